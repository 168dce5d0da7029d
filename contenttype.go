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
	"mime"
	"path"
	"strings"
)

// DefaultContentType is served for files whose extension is known neither to
// the override table nor to the platform MIME table.
const DefaultContentType = "application/octet-stream"

// ContentTypeOverrides lists the extension to MIME type mappings that take
// precedence over the platform MIME table. Platform tables notoriously differ
// in what they think of ".js" ("text/javascript", "application/x-javascript",
// ...) and often don't know about ".webmanifest" at all.
var ContentTypeOverrides = map[string]string{
	".webmanifest": "application/manifest+json",
	".mjs":         "application/javascript",
	".js":          "application/javascript",
}

// ContentTypes maps file extensions to MIME types. A ContentTypes value is
// immutable after creation and thus safe for concurrent use by any number of
// request handlers.
type ContentTypes struct {
	overrides map[string]string // lower-case extension including the leading dot.
}

// DefaultContentTypes is the content type table with the ContentTypeOverrides
// applied.
var DefaultContentTypes = NewContentTypes(ContentTypeOverrides)

// NewContentTypes returns a new content type table, using the specified
// overrides first before falling back to the platform MIME table. Extensions
// are normalized to lower case and a leading dot; the passed map is copied.
func NewContentTypes(overrides map[string]string) *ContentTypes {
	ct := &ContentTypes{
		overrides: make(map[string]string, len(overrides)),
	}
	for ext, mimetype := range overrides {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ct.overrides[ext] = mimetype
	}
	return ct
}

// ByExtension returns the MIME type for the specified file extension (with its
// leading dot), ignoring case.
func (ct *ContentTypes) ByExtension(ext string) string {
	if ext == "" {
		return DefaultContentType
	}
	ext = strings.ToLower(ext)
	if mimetype, ok := ct.overrides[ext]; ok {
		return mimetype
	}
	// mime.TypeByExtension already tries a lower-case variant on its own, but
	// we've lower-cased anyway.
	if mimetype := mime.TypeByExtension(ext); mimetype != "" {
		return mimetype
	}
	return DefaultContentType
}

// ByName returns the MIME type for the specified (slash-separated) file name
// or path, based on its final extension.
func (ct *ContentTypes) ByName(name string) string {
	return ct.ByExtension(path.Ext(name))
}
