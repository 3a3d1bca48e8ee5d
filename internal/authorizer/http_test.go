/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package authorizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dkmstr/udstunnel/internal/authorizer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HTTP authorizer", func() {
	Describe("GetTicket", func() {
		It("decodes a 2xx JSON reply and requests the expected path", func() {
			var gotPath string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(authorizer.Reply{Host: "backend.internal", Port: 2222, Notify: "tok123"})
			}))
			defer srv.Close()

			auth := authorizer.NewHTTP(authorizer.HTTPConfig{Server: srv.URL, Token: "secrettoken", Timeout: 2 * time.Second, VerifySSL: true})

			reply, err := auth.GetTicket(context.Background(), "abc123", "10.0.0.1:5555")
			Expect(err).ToNot(HaveOccurred())
			Expect(reply.Host).To(Equal("backend.internal"))
			Expect(reply.Port).To(Equal(2222))
			Expect(reply.Notify).To(Equal("tok123"))
			Expect(gotPath).To(ContainSubstring("/abc123/"))
			Expect(gotPath).To(HaveSuffix("/secrettoken"))
		})

		It("errors on a non-2xx status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer srv.Close()

			auth := authorizer.NewHTTP(authorizer.HTTPConfig{Server: srv.URL, Token: "t", Timeout: 2 * time.Second, VerifySSL: true})

			_, err := auth.GetTicket(context.Background(), "abc", "peer")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NotifyEnd", func() {
		It("skips the request entirely when the notify ticket is empty", func() {
			called := false
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			auth := authorizer.NewHTTP(authorizer.HTTPConfig{Server: srv.URL, Token: "t", Timeout: time.Second, VerifySSL: true})

			Expect(auth.NotifyEnd(context.Background(), "", 10, 20, time.Second)).To(Succeed())
			Expect(called).To(BeFalse())
		})

		It("encodes sent/recv/elapsed into the query string", func() {
			var gotQuery, gotPath string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			auth := authorizer.NewHTTP(authorizer.HTTPConfig{Server: srv.URL, Token: "tok", Timeout: time.Second, VerifySSL: true})

			Expect(auth.NotifyEnd(context.Background(), "notify-xyz", 100, 200, 1500*time.Millisecond)).To(Succeed())
			Expect(gotPath).To(ContainSubstring("/notify-xyz/stop/tok"))
			Expect(gotQuery).To(ContainSubstring("sent=100"))
			Expect(gotQuery).To(ContainSubstring("recv=200"))
			Expect(gotQuery).To(ContainSubstring("elapsed=1.500"))
		})
	})
})
