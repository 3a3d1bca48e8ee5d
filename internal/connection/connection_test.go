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

package connection_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/dkmstr/udstunnel/internal/authorizer"
	"github.com/dkmstr/udstunnel/internal/connection"
	"github.com/dkmstr/udstunnel/internal/counters"
	"github.com/dkmstr/udstunnel/internal/logx"
	"github.com/dkmstr/udstunnel/internal/protocol"
	"github.com/dkmstr/udstunnel/internal/relay"
	"github.com/dkmstr/udstunnel/internal/stopsignal"
	"github.com/dkmstr/udstunnel/internal/tlsacceptor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func generateSelfSigned() (certPEM, keyPEM string) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "udstunnel-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:         true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	Expect(err).ToNot(HaveOccurred())
	keyDER, err := x509.MarshalECPrivateKey(priv)
	Expect(err).ToNot(HaveOccurred())

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

type noopAuth struct{}

func (noopAuth) GetTicket(ctx context.Context, ticket, peer string) (authorizer.Reply, error) {
	return authorizer.Reply{}, nil
}
func (noopAuth) NotifyEnd(ctx context.Context, notifyTicket string, sent, recv int64, elapsed time.Duration) error {
	return nil
}

func newTestDeps() *connection.Deps {
	certPEM, keyPEM := generateSelfSigned()

	acc, err := tlsacceptor.New(&tlsacceptor.Config{CertPEM: certPEM, KeyPEM: keyPEM})
	Expect(err).ToNot(HaveOccurred())

	cnt := counters.New()

	return &connection.Deps{
		Acceptor:    acc,
		Counters:    cnt,
		ProcessStop: stopsignal.New(),
		Relay: &relay.Engine{
			Auth:        noopAuth{},
			Counters:    cnt,
			ProcessStop: stopsignal.New(),
			Log:         logx.New(nil, "debug"),
			DialTimeout: time.Second,
		},
		Log:              logx.New(nil, "debug"),
		HandshakeTimeout: 500 * time.Millisecond,
		CommandTimeout:   500 * time.Millisecond,
		Secret:           "correctsecret",
		AllowList:        nil,
	}
}

func dialTLSClient(conn net.Conn) *tls.Conn {
	tc := tls.Client(conn, &tls.Config{InsecureSkipVerify: true}) //nolint:gosec // test-only
	Expect(tc.Handshake()).To(Succeed())
	return tc
}

const connTestSecret = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const connTestWrongSecret = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

var _ = Describe("Connection", func() {
	Describe("handshake", func() {
		It("sends TIMEOUT when no handshake arrives in time", func() {
			deps := newTestDeps()
			server, client := net.Pipe()
			defer client.Close()

			done := make(chan struct{})
			go func() {
				connection.New(deps, server, "tid-1").Run(context.Background())
				close(done)
			}()

			resp := make([]byte, len(protocol.TimeoutError.Bytes()))
			_, err := io.ReadFull(client, resp)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp).To(Equal(protocol.TimeoutError.Bytes()))

			Eventually(done).WithTimeout(time.Second).Should(BeClosed())
		})

		It("sends ERROR_HANDSHAKE on a bad magic", func() {
			deps := newTestDeps()
			server, client := net.Pipe()
			defer client.Close()

			done := make(chan struct{})
			go func() {
				connection.New(deps, server, "tid-2").Run(context.Background())
				close(done)
			}()

			go func() { _, _ = client.Write(make([]byte, protocol.HandshakeLen)) }()

			resp := make([]byte, len(protocol.HandshakeError.Bytes()))
			_, err := io.ReadFull(client, resp)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp).To(Equal(protocol.HandshakeError.Bytes()))

			Eventually(done).WithTimeout(time.Second).Should(BeClosed())
		})
	})

	Describe("TEST command", func() {
		It("round-trips OK over the upgraded TLS connection", func() {
			deps := newTestDeps()
			server, client := net.Pipe()

			done := make(chan struct{})
			go func() {
				connection.New(deps, server, "tid-3").Run(context.Background())
				close(done)
			}()

			go func() { _, _ = client.Write(protocol.HandshakeV1) }()

			tc := dialTLSClient(client)
			_, err := tc.Write([]byte("TEST"))
			Expect(err).ToNot(HaveOccurred())

			resp := make([]byte, len(protocol.Ok.Bytes()))
			_, err = io.ReadFull(tc, resp)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp).To(Equal(protocol.Ok.Bytes()))

			Eventually(done).WithTimeout(time.Second).Should(BeClosed())
		})
	})

	Describe("STAT command", func() {
		It("returns FORBIDDEN on a wrong secret", func() {
			deps := newTestDeps()
			deps.Secret = connTestSecret
			server, client := net.Pipe()

			done := make(chan struct{})
			go func() {
				connection.New(deps, server, "tid-4").Run(context.Background())
				close(done)
			}()

			go func() { _, _ = client.Write(protocol.HandshakeV1) }()

			tc := dialTLSClient(client)
			_, err := tc.Write(append([]byte("STAT"), []byte(connTestWrongSecret)...))
			Expect(err).ToNot(HaveOccurred())

			resp := make([]byte, len(protocol.ForbiddenError.Bytes()))
			_, err = io.ReadFull(tc, resp)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp).To(Equal(protocol.ForbiddenError.Bytes()))

			Eventually(done).WithTimeout(time.Second).Should(BeClosed())
		})

		It("reports the process counters on a matching secret", func() {
			deps := newTestDeps()
			deps.Secret = connTestSecret
			deps.Counters.IncTotal()
			deps.Counters.IncConcurrent()
			deps.Counters.AddSent(100)
			deps.Counters.AddRecv(200)

			server, client := net.Pipe()

			done := make(chan struct{})
			go func() {
				connection.New(deps, server, "tid-5").Run(context.Background())
				close(done)
			}()

			go func() { _, _ = client.Write(protocol.HandshakeV1) }()

			tc := dialTLSClient(client)
			_, err := tc.Write(append([]byte("STAT"), []byte(connTestSecret)...))
			Expect(err).ToNot(HaveOccurred())

			resp := make([]byte, 64)
			n, err := io.ReadAtLeast(tc, resp, 1)
			Expect(err).ToNot(HaveOccurred())

			// Run() itself calls IncTotal() once more on Accepted, on top of the
			// pre-seeded counters above.
			Expect(string(resp[:n])).To(Equal("1;2;100;200"))

			Eventually(done).WithTimeout(time.Second).Should(BeClosed())
		})
	})
})
