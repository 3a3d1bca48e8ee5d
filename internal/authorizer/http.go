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

package authorizer

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"context"

	"github.com/dkmstr/udstunnel/internal/errs"
)

const userAgent = "udstunnel-broker/1"

// HTTPConfig configures the reference HTTP implementation of Authorizer.
type HTTPConfig struct {
	Server     string        // base URL, e.g. "https://uds.example.com"
	Token      string        // opaque bearer segment placed at the end of every call
	Timeout    time.Duration // connect + read timeout per request
	VerifySSL  bool
}

// httpAuthorizer is the reference implementation: a GET-based protocol
// against an external dispatch service, as described by the broker's wire
// contract. Every call is a fresh request; there is no session state.
type httpAuthorizer struct {
	base    string
	token   string
	timeout time.Duration
	cli     *http.Client
}

// NewHTTP builds an Authorizer backed by cfg. The returned value is safe
// for concurrent use across sessions: *http.Client already is.
func NewHTTP(cfg HTTPConfig) Authorizer {
	transport := &http.Transport{}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in
	}

	return &httpAuthorizer{
		base:    strings.TrimRight(cfg.Server, "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout,
		cli: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

func (h *httpAuthorizer) GetTicket(ctx context.Context, ticket, peer string) (Reply, error) {
	uri := fmt.Sprintf("%s/%s/%s/%s", h.base, url.PathEscape(ticket), url.PathEscape(peer), url.PathEscape(h.token))

	body, err := h.get(ctx, uri)
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return Reply{}, errs.CodeTicket.Errorf("decode authorizer reply: %w", err)
	}
	return reply, nil
}

func (h *httpAuthorizer) NotifyEnd(ctx context.Context, notifyTicket string, sent, recv int64, elapsed time.Duration) error {
	if notifyTicket == "" {
		return nil
	}

	q := url.Values{}
	q.Set("sent", strconv.FormatInt(sent, 10))
	q.Set("recv", strconv.FormatInt(recv, 10))
	q.Set("elapsed", strconv.FormatFloat(elapsed.Seconds(), 'f', 3, 64))

	uri := fmt.Sprintf("%s/%s/stop/%s?%s", h.base, url.PathEscape(notifyTicket), url.PathEscape(h.token), q.Encode())

	_, err := h.get(ctx, uri)
	return err
}

func (h *httpAuthorizer) get(ctx context.Context, uri string) ([]byte, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errs.CodeTicket.Errorf("build authorizer request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := h.cli.Do(req)
	if err != nil {
		return nil, errs.CodeTicket.Errorf("authorizer request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errs.CodeTicket.Errorf("read authorizer response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errs.CodeTicket.Errorf("authorizer returned status %d", res.StatusCode)
	}

	return body, nil
}
