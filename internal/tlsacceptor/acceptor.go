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

package tlsacceptor

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/dkmstr/udstunnel/internal/errs"
)

// Acceptor upgrades already-accepted plaintext connections to TLS, using a
// single shared *tls.Config built once at startup.
type Acceptor struct {
	tlsCfg *tls.Config
}

// New builds an Acceptor from cfg. The certificate is loaded once here;
// callers that need to support certificate rotation should build a fresh
// Acceptor and swap it in, rather than mutate this one.
func New(cfg *Config) (*Acceptor, error) {
	tlsCfg, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Acceptor{tlsCfg: tlsCfg}, nil
}

// Upgrade wraps conn in a server-side TLS connection and runs the handshake
// to completion, bounded by ctx. The caller has already consumed the
// pre-TLS handshake magic off conn before calling Upgrade.
func (a *Acceptor) Upgrade(ctx context.Context, conn net.Conn) (*tls.Conn, error) {
	tc := tls.Server(conn, a.tlsCfg)

	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return nil, errs.CodeHandshake.Errorf("set TLS handshake deadline: %w", err)
		}
		defer conn.SetDeadline(time.Time{})
	}

	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, errs.CodeHandshake.Errorf("TLS handshake: %w", err)
	}

	return tc, nil
}
