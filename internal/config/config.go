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

/*
Package config loads the swserve configuration from, in increasing order of
priority: built-in defaults, an optional YAML configuration file, SWSERVE_*
environment variables, and explicitly set command line flags.

Environment variable names map onto the configuration keys by dropping the
prefix, lower-casing, and turning underscores into dots: SWSERVE_LOG_FORMAT
sets "log.format".
*/
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/thediveo/swserve"
)

// EnvPrefix is the prefix of environment variables configuring swserve.
const EnvPrefix = "SWSERVE_"

// Default configuration values.
const (
	DefaultBind      = "0.0.0.0"
	DefaultPort      = 8081
	DefaultDir       = "."
	DefaultLogFormat = swserve.LogFormatText

	DefaultHeaderTimeout = 10 * time.Second
	DefaultReadTimeout   = 30 * time.Second
	DefaultIdleTimeout   = 120 * time.Second
)

// Config is the complete swserve configuration.
type Config struct {
	Bind     string   `koanf:"bind"`
	Port     int      `koanf:"port"`
	Dir      string   `koanf:"dir"`
	Log      Log      `koanf:"log"`
	Timeouts Timeouts `koanf:"timeouts"`
}

// Log configures the request log.
type Log struct {
	Format string `koanf:"format"`
}

// Timeouts configures the connection timeouts; zero means no timeout.
type Timeouts struct {
	Header time.Duration `koanf:"header"`
	Read   time.Duration `koanf:"read"`
	Write  time.Duration `koanf:"write"` // unlimited by default, for slow clients fetching large files.
	Idle   time.Duration `koanf:"idle"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Bind: DefaultBind,
		Port: DefaultPort,
		Dir:  DefaultDir,
		Log: Log{
			Format: DefaultLogFormat,
		},
		Timeouts: Timeouts{
			Header: DefaultHeaderTimeout,
			Read:   DefaultReadTimeout,
			Idle:   DefaultIdleTimeout,
		},
	}
}

// Server returns the server configuration part.
func (c *Config) Server() swserve.Config {
	return swserve.Config{
		Bind:              c.Bind,
		Port:              c.Port,
		Dir:               c.Dir,
		ReadHeaderTimeout: c.Timeouts.Header,
		ReadTimeout:       c.Timeouts.Read,
		WriteTimeout:      c.Timeouts.Write,
		IdleTimeout:       c.Timeouts.Idle,
	}
}

// Loader loads the configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	flags     map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix instead of EnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML configuration file to load.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithFlags sets configuration values from command line flags, taking
// precedence over all other sources. Keys are dotted configuration keys, such
// as "log.format".
func WithFlags(values map[string]any) Option {
	return func(l *Loader) {
		l.flags = values
	}
}

// NewLoader returns a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: EnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the configuration merged from the defaults, the configuration
// file (if any), the environment, and flags. The configuration gets verified;
// all failures are *swserve.ConfigError errors.
func (l *Loader) Load() (*Config, error) {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, &swserve.ConfigError{Setting: "config file", Err: err}
		}
	}
	transform := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, l.envPrefix)), "_", ".")
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return nil, &swserve.ConfigError{Setting: "environment", Err: err}
	}
	if len(l.flags) > 0 {
		if err := l.k.Load(mapProvider(unflatten(l.flags)), nil); err != nil {
			return nil, &swserve.ConfigError{Setting: "flags", Err: err}
		}
	}
	cfg := Defaults()
	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, &swserve.ConfigError{Setting: "configuration", Err: err}
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Verify checks the configuration for invalid settings. It doesn't check the
// root directory, as the server does so when opening it.
func Verify(cfg *Config) error {
	if cfg.Bind == "" {
		return &swserve.ConfigError{Setting: "bind", Err: fmt.Errorf("address must not be empty")}
	}
	if strings.ContainsAny(cfg.Bind, "[]") || (strings.Contains(cfg.Bind, ":") && net.ParseIP(cfg.Bind) == nil) {
		return &swserve.ConfigError{Setting: "bind", Err: fmt.Errorf("%q is not a host name or IP address", cfg.Bind)}
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return &swserve.ConfigError{Setting: "port", Err: fmt.Errorf("%d out of range 0..65535", cfg.Port)}
	}
	switch strings.ToLower(cfg.Log.Format) {
	case swserve.LogFormatText, swserve.LogFormatJSON:
	default:
		return &swserve.ConfigError{Setting: "log.format", Err: fmt.Errorf("unknown format %q", cfg.Log.Format)}
	}
	for name, d := range map[string]time.Duration{
		"timeouts.header": cfg.Timeouts.Header,
		"timeouts.read":   cfg.Timeouts.Read,
		"timeouts.write":  cfg.Timeouts.Write,
		"timeouts.idle":   cfg.Timeouts.Idle,
	} {
		if d < 0 {
			return &swserve.ConfigError{Setting: name, Err: fmt.Errorf("negative duration %s", d)}
		}
	}
	return nil
}

// unflatten turns dotted keys into nested maps, as koanf only splits keys
// itself for parsed sources.
func unflatten(flat map[string]any) map[string]any {
	nested := map[string]any{}
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := nested
		for _, part := range parts[:len(parts)-1] {
			sub, ok := m[part].(map[string]any)
			if !ok {
				sub = map[string]any{}
				m[part] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = value
	}
	return nested
}
