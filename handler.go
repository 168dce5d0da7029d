// Copyright 2022, 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package swserve

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DefaultIndex is the name of the file served for directory requests.
const DefaultIndex = "index.html"

// Handler implements an http.Handler that serves static files from an fs.FS,
// attaching caching headers that distinguish the SPA's app shell from its
// static assets. Directories are served through their index file; there are
// no directory listings.
type Handler struct {
	fs           fs.FS         // the FS to serve resources from.
	index        string        // name of the index file inside directories.
	contentTypes *ContentTypes // extension to MIME type table.
	log          *slog.Logger  // for details of errors the client doesn't get to see.
}

// NewHandler returns a new HTTP handler serving static resources from the
// specified fs. In order to serve the static resources from a directory on the
// OS file system without ever escaping it, use an os.Root:
//
//	root, err := os.OpenRoot("/opt/data/myspa")
//	h := NewHandler(root.FS())
func NewHandler(fs fs.FS, opts ...HandlerOption) *Handler {
	h := &Handler{
		fs:           fs,
		index:        DefaultIndex,
		contentTypes: DefaultContentTypes,
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlerOption sets optional properties at the time of creating a Handler.
type HandlerOption func(*Handler)

// WithIndex sets the name of the index file to serve for directories instead
// of the DefaultIndex. The name gets sanitized so it cannot refer to anything
// outside the directory.
func WithIndex(name string) HandlerOption {
	return func(h *Handler) {
		if name = path.Base(path.Clean("/" + name)); name != "/" {
			h.index = name
		}
	}
}

// WithContentTypes sets the content type table to use instead of the
// DefaultContentTypes.
func WithContentTypes(ct *ContentTypes) HandlerOption {
	return func(h *Handler) {
		h.contentTypes = ct
	}
}

// WithLogger sets the logger receiving the details of failed requests.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = log
	}
}

// ServeHTTP serves GET and HEAD requests for files inside the Handler's fs.
// The header policy is applied based on the still escaped request path as sent
// by the client, before anything else gets written.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sentPath := r.URL.EscapedPath()
	if sentPath == "" {
		sentPath = "/"
	}
	ApplyHeaderPolicy(w.Header(), sentPath)
	reqPath := r.URL.Path
	if reqPath == "" {
		reqPath = "/"
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.fail(w, r, fmt.Errorf("method %s: %w", r.Method, ErrProtocol))
		return
	}
	// Slapping "/" ensures that path.Clean never leaves any ".." elements
	// behind, so we cannot traverse outside the fs. Then make the path unrooted
	// as fs.FS wants it.
	name := path.Clean("/" + reqPath)[1:]
	if name == "" {
		name = "."
	}
	if err := h.serveFile(w, r, name, strings.HasSuffix(reqPath, "/")); err != nil {
		h.fail(w, r, err)
	}
}

// serveFile serves the named (unrooted, cleaned) resource, serving a
// directory's index file instead of the directory itself. Directories
// requested without a trailing slash get redirected, while anything else
// requested with a trailing slash isn't found.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string, slashed bool) error {
	f, info, err := h.open(name)
	if err != nil {
		return err
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()
	if info.IsDir() {
		if !slashed {
			// Redirect based on the cleaned path so that a request path such
			// as "//example.org" can never turn into an off-site redirect.
			loc := &url.URL{Path: "/" + name + "/", RawQuery: r.URL.RawQuery}
			http.Redirect(w, r, loc.String(), http.StatusMovedPermanently)
			return nil
		}
		// The deferred close picks up the index file instead.
		_ = f.Close()
		f, info, err = h.open(path.Join(name, h.index))
		if err != nil {
			return err
		}
	} else if slashed {
		return fmt.Errorf("%s/: %w", name, ErrNotFound)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	content, err := readSeeker(f)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", name, ErrIORead, err)
	}
	// Setting the Content-Type ourselves stops http.ServeContent from
	// sniffing the content.
	w.Header().Set("Content-Type", h.contentTypes.ByName(info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
	return nil
}

// open opens the named resource and stats it. Failing to open for other
// reasons than missing permissions means that the name doesn't resolve to
// anything inside the fs: a missing file, a file used as a directory, or a
// symbolic link escaping an os.Root.
func (h *Handler) open(name string) (fs.File, fs.FileInfo, error) {
	f, err := h.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w: %w", name, ErrIORead, err)
	}
	return f, info, nil
}

// fail sends a normalized error response, logging the details that are kept
// from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("serving resource failed", "path", r.URL.Path, "error", err)
	} else {
		h.log.Debug("resource not served", "path", r.URL.Path, "status", code, "error", err)
	}
	NormalizedHttpError(w, err)
}

// readSeeker returns the file as an io.ReadSeeker, as needed by
// http.ServeContent. fs.File implementations that cannot seek are read into
// memory.
func readSeeker(f fs.File) (io.ReadSeeker, error) {
	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, nil
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}
