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
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NewLogger returns a structured logger writing one record per line to w, in
// either LogFormatText or LogFormatJSON. The slog handlers issue a single
// write per record while holding their lock, so concurrent request handlers
// never garble each other's lines.
func NewLogger(w io.Writer, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch strings.ToLower(format) {
	case LogFormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// AccessLog returns a middleware logging a line per request, with the client
// address, the request line, the response status, and the number of body bytes
// sent. The record's time serves as the request timestamp.
func AccessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			logRequest(log, ClientIP(r),
				fmt.Sprintf("%s %s %s", r.Method, r.URL.RequestURI(), r.Proto),
				sw.status, sw.size)
		})
	}
}

// logRequest logs a served request, at warning level for client errors and at
// error level for server errors.
func logRequest(log *slog.Logger, client, request string, status int, size int64) {
	attrs := []any{
		"client", client,
		"request", request,
		"status", status,
		"size", size,
	}
	switch {
	case status >= 500:
		log.Error("request", attrs...)
	case status >= 400:
		log.Warn("request", attrs...)
	default:
		log.Info("request", attrs...)
	}
}

// ClientIP returns the IP address of the client (or the last proxy) sending
// the request.
func ClientIP(r *http.Request) string {
	return remoteHost(r.RemoteAddr)
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// statusWriter captures the response status and size.
type statusWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader && code >= 200 {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Unwrap allows http.ResponseController to reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
