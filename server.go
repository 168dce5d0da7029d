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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ShutdownGrace is the time in-flight requests get to finish after the serve
// context has been cancelled, before their connections get closed.
const ShutdownGrace = 2 * time.Second

// Config is the process-wide server configuration; it is never changed after
// the Server has been created.
type Config struct {
	Bind string // address of the interface to listen on; empty means all.
	Port int    // TCP port to listen on; 0 picks an ephemeral port.
	Dir  string // root directory to serve.

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Server serves the files inside a root directory over HTTP. Its lookups are
// confined to the root directory.
type Server struct {
	root     *os.Root
	rootPath string // absolute path of the root directory.
	bind     string
	listener net.Listener
	srv      *http.Server
}

// New returns a Server bound to the configured address and serving the
// configured root directory; it doesn't accept connections until Serve is
// called. It fails with a *ConfigError if the configuration is invalid or the
// root directory doesn't exist, and with a *BindError if the listener cannot be
// created.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, &ConfigError{Setting: "port", Err: fmt.Errorf("%d out of range", cfg.Port)}
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	rootPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, &ConfigError{Setting: "dir", Err: err}
	}
	// Announce the physical directory, not some symbolic link to it.
	rootPath, err = filepath.EvalSymlinks(rootPath)
	if err != nil {
		return nil, &ConfigError{Setting: "dir", Err: err}
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, &ConfigError{Setting: "dir", Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Setting: "dir", Err: fmt.Errorf("%s is not a directory", rootPath)}
	}
	root, err := os.OpenRoot(rootPath)
	if err != nil {
		return nil, &ConfigError{Setting: "dir", Err: err}
	}

	addr := net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = root.Close()
		return nil, &BindError{Addr: addr, Err: err}
	}

	handler := trackHandling(AccessLog(log)(NewHandler(root.FS(), WithLogger(log))))
	return &Server{
		root:     root,
		rootPath: rootPath,
		bind:     cfg.Bind,
		listener: &rejectLogListener{Listener: ln, log: log},
		srv: &http.Server{
			Handler:           handler,
			ConnContext:       withTrackedConn,
			ConnState:         trackConnState,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
	}, nil
}

// Root returns the absolute path of the root directory being served.
func (s *Server) Root() string { return s.rootPath }

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// URL returns the http URL of the server, using the configured bind address
// and the actual port.
func (s *Server) URL() string {
	port := strconv.Itoa(s.listener.Addr().(*net.TCPAddr).Port)
	bind := s.bind
	if bind == "" {
		bind = "0.0.0.0"
	}
	return "http://" + net.JoinHostPort(bind, port)
}

// Banner returns the human-readable startup banner.
func (s *Server) Banner() string {
	return fmt.Sprintf("Serving %s on %s", s.rootPath, s.URL())
}

// Serve accepts connections, handling each one concurrently, until either ctx
// gets cancelled or the server fails. Cancellation is a clean shutdown: Serve
// then returns nil after giving in-flight requests ShutdownGrace to complete.
// The Server cannot be reused after Serve returns.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.root.Close() }()
	done := make(chan error, 1)
	go func() {
		done <- s.srv.Serve(s.listener)
	}()
	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		_ = s.srv.Close()
	}
	<-done
	return nil
}

// Close immediately closes the listener and all connections.
func (s *Server) Close() error {
	err := s.srv.Close()
	// http.Server.Close only knows about the listener once Serve has been
	// called.
	_ = s.listener.Close()
	_ = s.root.Close()
	return err
}
