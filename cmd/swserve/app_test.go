// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/onsi/gomega/gbytes"
	"github.com/thediveo/swserve"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var bannerRe = regexp.MustCompile(`^Serving (.+) on http://127\.0\.0\.1:(\d+)\n`)

var _ = Describe("swserve command", func() {

	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "index.html"), []byte("CANARY CMD INDEX"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "app.js"), []byte("// CANARY CMD JS"), 0o644)).To(Succeed())
	})

	run := func(ctx context.Context, args ...string) (*gbytes.Buffer, *gbytes.Buffer, chan error) {
		stdout := gbytes.NewBuffer()
		stderr := gbytes.NewBuffer()
		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- newApp(stdout, stderr).RunContext(ctx, append([]string{"swserve"}, args...))
		}()
		return stdout, stderr, done
	}

	It("serves until interrupted, then exits cleanly", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stdout, stderr, done := run(ctx, "--bind", "127.0.0.1", "--port", "0", "--dir", dir)

		Eventually(stdout).Should(gbytes.Say(`Serving .* on http://127\.0\.0\.1:\d+\n`))
		m := bannerRe.FindStringSubmatch(string(stdout.Contents()))
		Expect(m).To(HaveLen(3))
		Expect(m[1]).To(Equal(Successful(filepath.EvalSymlinks(dir))))
		base := "http://" + net.JoinHostPort("127.0.0.1", m[2])

		resp := Successful(http.Get(base + "/"))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Cache-Control")).To(Equal(swserve.NoCache))
		Expect(string(Successful(io.ReadAll(resp.Body)))).To(Equal("CANARY CMD INDEX"))
		_ = resp.Body.Close()

		resp = Successful(http.Get(base + "/app.js"))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/javascript"))
		Expect(resp.Header.Get("Cache-Control")).To(Equal(swserve.Immutable))
		_ = resp.Body.Close()

		Eventually(stdout).Should(gbytes.Say(`request="GET /app\.js HTTP/1\.1" status=200`))

		cancel()
		Eventually(done).WithTimeout(2 * swserve.ShutdownGrace).Should(Receive(BeNil()))
		Expect(stderr.Contents()).To(BeEmpty())
	})

	It("logs in JSON when asked to", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stdout, _, done := run(ctx, "--bind", "127.0.0.1", "--port", "0", "--dir", dir, "--log-format", "json")
		Eventually(stdout).Should(gbytes.Say(`Serving .* on http://127\.0\.0\.1:\d+\n`))
		m := bannerRe.FindStringSubmatch(string(stdout.Contents()))
		Expect(m).To(HaveLen(3))

		resp := Successful(http.Get("http://" + net.JoinHostPort("127.0.0.1", m[2]) + "/missing"))
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		Eventually(stdout).Should(gbytes.Say(`\{"time":".*","level":"WARN","msg":"request",.*"status":404`))

		cancel()
		Eventually(done).WithTimeout(2 * swserve.ShutdownGrace).Should(Receive(BeNil()))
	})

	It("takes its configuration from a file", func() {
		cfgfile := filepath.Join(GinkgoT().TempDir(), "swserve.yaml")
		Expect(os.WriteFile(cfgfile, []byte("bind: 127.0.0.1\nport: 0\ndir: "+dir+"\n"), 0o644)).To(Succeed())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stdout, _, done := run(ctx, "--config", cfgfile)
		Eventually(stdout).Should(gbytes.Say(`Serving .* on http://127\.0\.0\.1:\d+\n`))
		cancel()
		Eventually(done).WithTimeout(2 * swserve.ShutdownGrace).Should(Receive(BeNil()))
	})

	It("fails on a missing root directory", func() {
		stdout, _, done := run(context.Background(),
			"--bind", "127.0.0.1", "--port", "0", "--dir", filepath.Join(dir, "missing"))
		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(BeAssignableToTypeOf(&swserve.ConfigError{}))
		Expect(stdout.Contents()).NotTo(ContainSubstring("Serving"))
	})

	It("fails on a port already in use", func() {
		ln := Successful(net.Listen("tcp", "127.0.0.1:0"))
		defer ln.Close()
		port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
		_, _, done := run(context.Background(), "--bind", "127.0.0.1", "--port", port, "--dir", dir)
		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(BeAssignableToTypeOf(&swserve.BindError{}))
	})

	It("rejects positional arguments", func() {
		_, _, done := run(context.Background(), "--port", "0", dir)
		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(BeAssignableToTypeOf(&swserve.ConfigError{}))
	})

	It("rejects invalid log formats", func() {
		_, _, done := run(context.Background(), "--port", "0", "--dir", dir, "--log-format", "xml")
		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).To(MatchError(ContainSubstring("log.format")))
	})

	It("shows its version", func() {
		stdout, _, done := run(context.Background(), "--version")
		Eventually(done).Should(Receive(BeNil()))
		Expect(stdout).To(gbytes.Say(`swserve version dev`))
	})

})
