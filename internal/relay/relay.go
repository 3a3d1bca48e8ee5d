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

// Package relay implements RelaySetup and the dual-direction byte pumps
// that move data between a client's TLS stream and a backend TCP
// connection once a ticket has been authorized.
package relay

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dkmstr/udstunnel/internal/authorizer"
	"github.com/dkmstr/udstunnel/internal/counters"
	"github.com/dkmstr/udstunnel/internal/errs"
	"github.com/dkmstr/udstunnel/internal/logx"
	"github.com/dkmstr/udstunnel/internal/protocol"
	"github.com/dkmstr/udstunnel/internal/stopsignal"
)

const pumpBufferSize = 16 * 1024

// Engine runs RelaySetup for one Open command. A single Engine is built
// once at startup and shared (its fields are all reference-shared or
// immutable) across every session.
type Engine struct {
	Auth        authorizer.Authorizer
	Counters    *counters.Counters
	ProcessStop stopsignal.Signal
	Log         *logx.Logger
	DialTimeout time.Duration
}

// clientConn is the narrow surface RelaySetup needs from the upgraded TLS
// stream: a combined ReadWriteCloser. Both pump directions end by closing
// the whole stream; there is no half-close.
type clientConn interface {
	io.ReadWriteCloser
}

// Open runs the full RelaySetup (spec §4.6) for one accepted Open(ticket)
// command: resolve the ticket, dial the backend (or honor a directive),
// run both pumps to completion, and report the session end.
func (e *Engine) Open(ctx context.Context, client clientConn, ticket, peer string) error {
	reply, err := e.Auth.GetTicket(ctx, ticket, peer)
	if err != nil {
		_, _ = client.Write(protocol.TicketError.Bytes())
		return errs.CodeTicket.Errorf("get ticket: %w", err)
	}

	if strings.HasPrefix(reply.Host, "#") {
		return e.runDirective(client, reply.Host)
	}

	e.Log.Infof("OPEN TUNNEL ticket=%s peer=%s dst=%s:%d", ticket, peer, reply.Host, reply.Port)

	backend, err := net.DialTimeout("tcp", net.JoinHostPort(reply.Host, strconv.Itoa(reply.Port)), e.DialTimeout)
	if err != nil {
		_, _ = client.Write(protocol.ConnectError.Bytes())
		return errs.CodeConnect.Errorf("dial backend %s:%d: %w", reply.Host, reply.Port, err)
	}
	defer backend.Close()

	if _, err := client.Write(protocol.Ok.Bytes()); err != nil {
		return errs.CodeConnect.Errorf("write OK to client: %w", err)
	}

	e.Counters.IncConcurrent()
	start := time.Now()

	local := stopsignal.New()
	sent, recv := e.pump(client, backend, local)

	e.Counters.DecConcurrent()

	if reply.Notify != "" {
		if err := e.Auth.NotifyEnd(context.Background(), reply.Notify, sent, recv, time.Since(start)); err != nil {
			e.Log.Warnf("notify_end failed ticket=%s: %v", ticket, err)
		}
	}

	return nil
}

// runDirective handles the "#" prefixed reserved directive channel.
// Currently only "#close[:payload]" is recognized; anything else is a
// silent no-op close.
func (e *Engine) runDirective(client clientConn, directive string) error {
	defer client.Close()

	if !strings.HasPrefix(directive, "#close") {
		return nil
	}

	if idx := strings.Index(directive, ":"); idx >= 0 {
		payload := directive[idx+1:]
		if payload != "" {
			_, _ = client.Write([]byte(payload))
		}
	}
	return nil
}

// pump runs both pump directions concurrently and waits for both to exit.
// Either side ending fires local so its twin unwinds within one I/O slice;
// the caller's process-wide StopSignal is also observed by both sides.
func (e *Engine) pump(client clientConn, backend net.Conn, local stopsignal.Signal) (sent, recv int64) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		// S->C: read from the backend, write to the client.
		defer wg.Done()
		defer local.Set()
		sent = e.copyLoop(client, backend, local, e.Counters.AddSent)
	}()

	go func() {
		// C->S: read from the client, write to the backend.
		defer wg.Done()
		defer local.Set()
		recv = e.copyLoop(backend, client, local, e.Counters.AddRecv)
	}()

	go func() {
		select {
		case <-e.ProcessStop.Done():
		case <-local.Done():
		}
		// Either signal means both directions must stop. A pump blocked in
		// a plain Read on the other half never observes local/ProcessStop
		// on its own; closing both halves here is what actually unblocks it.
		_ = client.Close()
		_ = backend.Close()
	}()

	wg.Wait()
	_ = client.Close()
	_ = backend.Close()
	return sent, recv
}

// copyLoop reads from src and writes to dst until EOF, error, or
// cancellation, counting every read via count before attempting the
// matching write. A write failure still counts the bytes read and then
// breaks the loop.
func (e *Engine) copyLoop(dst io.Writer, src io.Reader, cancel stopsignal.Signal, count func(int64)) int64 {
	buf := make([]byte, pumpBufferSize)
	var total int64

	for {
		select {
		case <-cancel.Done():
			return total
		case <-e.ProcessStop.Done():
			return total
		default:
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			count(int64(n))
			total += int64(n)
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total
			}
		}
		if rerr != nil {
			return total
		}
	}
}
