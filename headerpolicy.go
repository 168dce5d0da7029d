// Copyright 2026 Harald Albrecht.
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
	"net/http"
	"strings"
)

// Response header names set by the header policy.
const (
	CacheControlHeader         = "Cache-Control"
	ServiceWorkerAllowedHeader = "Service-Worker-Allowed"
)

// Cache-Control header values for the different resource classes.
const (
	NoCache   = "no-cache, no-store, must-revalidate"
	Immutable = "public, max-age=31536000, immutable"
)

// ServiceWorkerPath is the request path of the service worker script that
// gets to control the whole origin.
const ServiceWorkerPath = "/sw.js"

// StaticAssetExtensions lists the file extensions of resources that are
// assumed to be content-hashed or versioned by the SPA build and thus can be
// cached for a year without any revalidation.
var StaticAssetExtensions = []string{
	".js", ".css",
	".png", ".jpg", ".jpeg", ".svg", ".webp", ".ico",
	".ttf", ".woff", ".woff2",
	".webmanifest",
}

// ResourceClass classifies a request path for the purpose of caching.
type ResourceClass int

const (
	// OtherResource gets no explicit caching policy.
	OtherResource ResourceClass = iota
	// AppShell resources must always be revalidated so that SPA updates
	// become visible on the next load.
	AppShell
	// StaticAsset resources are cached long-term and immutable.
	StaticAsset
)

// String returns the name of the resource class.
func (c ResourceClass) String() string {
	switch c {
	case AppShell:
		return "app-shell"
	case StaticAsset:
		return "static-asset"
	default:
		return "other"
	}
}

// ClassifyPath returns the resource class of the specified request path,
// which must not include any query string. The app shell check always takes
// precedence over the static asset check.
func ClassifyPath(p string) ResourceClass {
	if p == "/" || strings.HasSuffix(p, "/index.html") || p == ServiceWorkerPath {
		return AppShell
	}
	for _, ext := range StaticAssetExtensions {
		if strings.HasSuffix(p, ext) {
			return StaticAsset
		}
	}
	return OtherResource
}

// ApplyHeaderPolicy sets the caching-related response headers for the
// specified request path (without query string) in h. It must be called
// before the response status is written.
func ApplyHeaderPolicy(h http.Header, p string) {
	switch ClassifyPath(p) {
	case AppShell:
		h.Set(CacheControlHeader, NoCache)
	case StaticAsset:
		h.Set(CacheControlHeader, Immutable)
	}
	// Allow the service worker to control the origin's root scope, as
	// user agents otherwise limit it to the script's own directory.
	if p == ServiceWorkerPath {
		h.Set(ServiceWorkerAllowedHeader, "/")
	}
}
