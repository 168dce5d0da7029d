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
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
)

// net/http answers requests it cannot parse (malformed request lines, bad
// header lines, oversized headers, unsupported transfer encodings) itself,
// writing the error reply straight to the connection. No handler ever gets to
// see these requests, so the access log middleware cannot log them. Instead,
// the connections accepted by a rejectLogListener watch for response heads
// written while no handler is serving a request on them.

// trackedConnKey is the context key for the *trackedConn a request arrived on.
type trackedConnKey struct{}

// rejectLogListener wraps accepted connections into trackedConns.
type rejectLogListener struct {
	net.Listener
	log *slog.Logger
}

func (l *rejectLogListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &trackedConn{Conn: conn, log: l.log}, nil
}

// trackedConn knows whether a handler is currently serving a request on it;
// http.Server only writes a response head on its own while not.
type trackedConn struct {
	net.Conn
	log      *slog.Logger
	handling atomic.Bool
}

func (c *trackedConn) Write(b []byte) (int, error) {
	if !c.handling.Load() {
		if status, ok := responseStatus(b); ok {
			size := 0
			if idx := bytes.Index(b, []byte("\r\n\r\n")); idx >= 0 {
				size = len(b) - idx - 4
			}
			logRequest(c.log, remoteHost(c.RemoteAddr().String()), "-", status, int64(size))
		}
	}
	return c.Conn.Write(b)
}

// responseStatus returns the status code of an HTTP/1.x response head at the
// beginning of b.
func responseStatus(b []byte) (int, bool) {
	// "HTTP/1.1 400 ..."
	if len(b) < 12 || !bytes.HasPrefix(b, []byte("HTTP/1.")) || b[8] != ' ' {
		return 0, false
	}
	status, err := strconv.Atoi(string(b[9:12]))
	if err != nil || status < 100 {
		return 0, false
	}
	return status, true
}

// withTrackedConn stores the tracked connection in the context of the requests
// it carries; it serves as http.Server.ConnContext.
func withTrackedConn(ctx context.Context, conn net.Conn) context.Context {
	if tc, ok := conn.(*trackedConn); ok {
		return context.WithValue(ctx, trackedConnKey{}, tc)
	}
	return ctx
}

// trackConnState notes a connection's request being finished, including its
// response having been flushed; it serves as http.Server.ConnState.
func trackConnState(conn net.Conn, state http.ConnState) {
	if tc, ok := conn.(*trackedConn); ok && state == http.StateIdle {
		tc.handling.Store(false)
	}
}

// trackHandling marks the connection of each request as having a handler
// serving it.
func trackHandling(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tc, ok := r.Context().Value(trackedConnKey{}).(*trackedConn); ok {
			tc.handling.Store(true)
		}
		next.ServeHTTP(w, r)
	})
}
