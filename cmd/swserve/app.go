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

package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/thediveo/swserve"
	"github.com/thediveo/swserve/internal/config"
)

// newApp returns the CLI application, with the startup banner and request log
// going to stdout, and usage errors going to stderr.
func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "swserve",
		Usage:     "serve a single page application with app shell and static asset caching",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bind",
				Usage: "interface `ADDRESS` to listen on",
				Value: config.DefaultBind,
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "TCP `PORT` to listen on",
				Value: config.DefaultPort,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "root `DIRECTORY` to serve",
				Value: config.DefaultDir,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "optional YAML configuration `FILE`",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "request log `FORMAT`: text or json",
				Value: config.DefaultLogFormat,
			},
		},
		Action: serve,
	}
}

// serve loads the configuration, starts the server, and serves until the
// context gets cancelled.
func serve(c *cli.Context) error {
	if c.NArg() > 0 {
		return &swserve.ConfigError{Setting: "arguments", Err: fmt.Errorf("unexpected %q", c.Args().First())}
	}
	cfg, err := config.NewLoader(
		config.WithConfigFile(c.String("config")),
		config.WithFlags(setFlags(c)),
	).Load()
	if err != nil {
		return err
	}
	log, err := swserve.NewLogger(c.App.Writer, cfg.Log.Format)
	if err != nil {
		return &swserve.ConfigError{Setting: "log.format", Err: err}
	}
	srv, err := swserve.New(cfg.Server(), log)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, srv.Banner())
	return srv.Serve(c.Context)
}

// setFlags returns the values of only those flags explicitly set on the
// command line, keyed by their configuration keys, so that unset flags don't
// override the configuration file or environment.
func setFlags(c *cli.Context) map[string]any {
	values := map[string]any{}
	if c.IsSet("bind") {
		values["bind"] = c.String("bind")
	}
	if c.IsSet("port") {
		values["port"] = c.Int("port")
	}
	if c.IsSet("dir") {
		values["dir"] = c.String("dir")
	}
	if c.IsSet("log-format") {
		values["log.format"] = c.String("log-format")
	}
	return values
}
