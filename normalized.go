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
	"errors"
	"io/fs"
	"net/http"
)

// StatusCode returns the HTTP status code a per-request error maps to.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrProtocol):
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// NormalizedHttpError writes a normalized HTTP error message and HTTP status
// code based on the specified error, but not leaking any interesting internal
// server details from this specified error. Headers already set, such as the
// caching policy, are kept; only the content headers are replaced.
func NormalizedHttpError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	if code == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", "GET, HEAD")
	}
	// Don't let a Last-Modified or ETag from a failed file attempt leak into
	// the error response.
	w.Header().Del("Last-Modified")
	w.Header().Del("Etag")
	http.Error(w, http.StatusText(code), code)
}
