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
	"errors"
	"fmt"
	"io/fs"
)

// Per-request error sentinels; they never terminate the server but are turned
// into HTTP error responses instead.
var (
	// ErrNotFound signals that a request path doesn't resolve to a servable
	// file inside the root directory.
	ErrNotFound = fmt.Errorf("resource not found: %w", fs.ErrNotExist)
	// ErrIORead signals a failure reading a resolved file.
	ErrIORead = errors.New("reading resource failed")
	// ErrProtocol signals a request the server doesn't handle, such as an
	// unsupported method.
	ErrProtocol = errors.New("unsupported request")
)

// ConfigError is a fatal startup error due to an invalid configuration, such
// as a missing root directory.
type ConfigError struct {
	Setting string // name of the offending setting, such as "dir".
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Setting, e.Err.Error())
}

func (e *ConfigError) Unwrap() error { return e.Err }

// BindError is a fatal startup error due to being unable to create the
// listening socket.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("cannot listen on %s: %s", e.Addr, e.Err.Error())
}

func (e *BindError) Unwrap() error { return e.Err }
