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

package relay_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/dkmstr/udstunnel/internal/authorizer"
	"github.com/dkmstr/udstunnel/internal/counters"
	"github.com/dkmstr/udstunnel/internal/logx"
	"github.com/dkmstr/udstunnel/internal/protocol"
	"github.com/dkmstr/udstunnel/internal/relay"
	"github.com/dkmstr/udstunnel/internal/stopsignal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeAuth struct {
	reply      authorizer.Reply
	err        error
	notifyArgs []int64
	notified   chan struct{}
}

func (f *fakeAuth) GetTicket(ctx context.Context, ticket, peer string) (authorizer.Reply, error) {
	return f.reply, f.err
}

func (f *fakeAuth) NotifyEnd(ctx context.Context, notifyTicket string, sent, recv int64, elapsed time.Duration) error {
	f.notifyArgs = []int64{sent, recv}
	if f.notified != nil {
		close(f.notified)
	}
	return nil
}

func startEchoBackend() (addr string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				_, _ = io.Copy(c, c)
			}()
		}
	}()

	return ln.Addr().String(), func() { _ = ln.Close() }
}

var _ = Describe("Engine.Open", func() {
	It("relays bytes to a real backend and reports notify_end once", func() {
		addr, stop := startEchoBackend()
		defer stop()

		host, portStr, err := net.SplitHostPort(addr)
		Expect(err).ToNot(HaveOccurred())
		port, err := strconv.Atoi(portStr)
		Expect(err).ToNot(HaveOccurred())

		notified := make(chan struct{})
		auth := &fakeAuth{reply: authorizer.Reply{Host: host, Port: port, Notify: "notify-tok"}, notified: notified}

		eng := &relay.Engine{
			Auth:        auth,
			Counters:    counters.New(),
			ProcessStop: stopsignal.New(),
			Log:         logx.New(nil, "debug"),
			DialTimeout: 2 * time.Second,
		}

		serverSide, clientSide := net.Pipe()

		done := make(chan error, 1)
		go func() {
			done <- eng.Open(context.Background(), serverSide, "tic", "127.0.0.1:1")
		}()

		okBuf := make([]byte, len(protocol.Ok.Bytes()))
		_, err = io.ReadFull(clientSide, okBuf)
		Expect(err).ToNot(HaveOccurred())
		Expect(okBuf).To(Equal(protocol.Ok.Bytes()))

		payload := []byte("hello backend")
		_, err = clientSide.Write(payload)
		Expect(err).ToNot(HaveOccurred())

		echoed := make([]byte, len(payload))
		_, err = io.ReadFull(clientSide, echoed)
		Expect(err).ToNot(HaveOccurred())
		Expect(echoed).To(Equal(payload))

		// Closing only the client half must still unblock the twin pump,
		// which is parked in a blocking read on the backend half.
		clientSide.Close()

		Eventually(done).WithTimeout(3 * time.Second).Should(Receive(BeNil()))
		Eventually(notified).WithTimeout(time.Second).Should(BeClosed())

		Expect(auth.notifyArgs[0]).To(BeEquivalentTo(len(payload)))
	})

	It("writes ERROR_TICKET and returns an error when the authorizer fails", func() {
		auth := &fakeAuth{err: context.DeadlineExceeded}

		eng := &relay.Engine{
			Auth:        auth,
			Counters:    counters.New(),
			ProcessStop: stopsignal.New(),
			Log:         logx.New(nil, "debug"),
			DialTimeout: time.Second,
		}

		serverSide, clientSide := net.Pipe()
		defer clientSide.Close()

		errCh := make(chan error, 1)
		go func() { errCh <- eng.Open(context.Background(), serverSide, "tic", "peer") }()

		resp := make([]byte, len(protocol.TicketError.Bytes()))
		_, err := io.ReadFull(clientSide, resp)
		Expect(err).ToNot(HaveOccurred())
		Expect(bytes.Equal(resp, protocol.TicketError.Bytes())).To(BeTrue())

		Expect(<-errCh).To(HaveOccurred())
	})

	It("honors a #close directive with its payload", func() {
		auth := &fakeAuth{reply: authorizer.Reply{Host: "#close:bye"}}

		eng := &relay.Engine{
			Auth:        auth,
			Counters:    counters.New(),
			ProcessStop: stopsignal.New(),
			Log:         logx.New(nil, "debug"),
			DialTimeout: time.Second,
		}

		serverSide, clientSide := net.Pipe()
		defer clientSide.Close()

		errCh := make(chan error, 1)
		go func() { errCh <- eng.Open(context.Background(), serverSide, "tic", "peer") }()

		resp := make([]byte, 3)
		_, err := io.ReadFull(clientSide, resp)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(resp)).To(Equal("bye"))

		Expect(<-errCh).ToNot(HaveOccurred())
	})
})
