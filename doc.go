/*
Package swserve serves "Single Page Applications" (SPAs) together with their
service worker from a directory, for local development or lightweight
deployments.

The Handler type implements http.Handler to serve static files from any
resource provider implementing the fs.FS interface, with directories served
through their index.html. Serving from an os.Root confines all lookups to the
root directory, regardless of ".." elements or symbolic links.

What makes this more than a plain http.FileServer is the header policy applied
to every response, based solely on the request path:

  - the app shell ("/", any ".../index.html", and "/sw.js") must always be
    revalidated so that SPA updates become visible on the next load;
  - static assets (scripts, styles, images, fonts, the web manifest) are cached
    for a year as immutable, assuming the SPA build content-hashes them;
  - "/sw.js" additionally is allowed to control the whole origin.

Content types come from a small override table first, as the platform MIME
tables differ in what they think of ".js", ".mjs", and ".webmanifest".

The Server type binds the listener and serves with graceful shutdown upon
context cancellation, logging a line per request through log/slog.
*/
package swserve
