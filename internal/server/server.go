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

// Package server is the Listener/Supervisor: it owns the accept loop,
// shares the TLS context and Counters across every accepted Connection,
// and drains live sessions on shutdown.
package server

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/dkmstr/udstunnel/internal/atomicx"
	"github.com/dkmstr/udstunnel/internal/connection"
	"github.com/dkmstr/udstunnel/internal/counters"
	"github.com/dkmstr/udstunnel/internal/logx"
	"github.com/dkmstr/udstunnel/internal/relay"
	"github.com/dkmstr/udstunnel/internal/stopsignal"
	"github.com/dkmstr/udstunnel/internal/tlsacceptor"
	"github.com/dkmstr/udstunnel/internal/tunnelid"
)

// DrainTimeout is the bounded wait for every accepted connection's handler
// to return after the accept loop exits, recommended at 8s by spec §4.7.
const DrainTimeout = 8 * time.Second

// Config bundles everything the Supervisor needs to build a shared
// TLS context and per-connection dependencies once at startup.
type Config struct {
	Address string
	Port    int
	IPv6    bool

	TLS   *tlsacceptor.Config
	Relay *relay.Engine

	HandshakeTimeout time.Duration
	CommandTimeout   time.Duration
	Secret           string
	AllowList        []string

	Log *logx.Logger
}

// Supervisor runs the accept loop and owns the shared Counters and
// process StopSignal that every Connection clones a handle to.
type Supervisor struct {
	cfg      Config
	acceptor atomicx.Value[*tlsacceptor.Acceptor]
	counters *counters.Counters
	stop     stopsignal.Signal
	wg       sync.WaitGroup

	ready chan struct{}
	addr  net.Addr
}

// New builds a Supervisor, constructing the shared TLS context once.
func New(cfg Config) (*Supervisor, error) {
	acc, err := tlsacceptor.New(cfg.TLS)
	if err != nil {
		return nil, err
	}

	acceptor := atomicx.NewValue[*tlsacceptor.Acceptor]()
	acceptor.Store(acc)

	cnt := counters.New()
	stop := stopsignal.New()

	// The relay pumps count into and observe the engine's own fields; point
	// them at the Supervisor's Counters and StopSignal so STAT replies see
	// relayed bytes and Stop reaches every live pump.
	if cfg.Relay != nil {
		cfg.Relay.Counters = cnt
		cfg.Relay.ProcessStop = stop
	}

	return &Supervisor{
		cfg:      cfg,
		acceptor: acceptor,
		counters: cnt,
		stop:     stop,
		ready:    make(chan struct{}),
	}, nil
}

// ReloadTLS builds a fresh Acceptor from cfg and swaps it in atomically.
// In-flight connections keep using the Acceptor they already captured;
// every connection accepted after this call uses the new certificate.
func (s *Supervisor) ReloadTLS(cfg *tlsacceptor.Config) error {
	acc, err := tlsacceptor.New(cfg)
	if err != nil {
		return err
	}
	s.acceptor.Store(acc)
	return nil
}

// Counters exposes the shared counters, e.g. for an admin metrics surface.
func (s *Supervisor) Counters() *counters.Counters { return s.counters }

// Addr blocks until the listening socket is bound, then returns its
// address. Useful in tests that bind Config.Port = 0 and need the
// ephemeral port actually chosen.
func (s *Supervisor) Addr() net.Addr {
	<-s.ready
	return s.addr
}

// Stop fires the process-wide StopSignal observed by the accept loop and
// every live pump.
func (s *Supervisor) Stop() { s.stop.Set() }

// Run binds the listening socket and accepts connections until ctx is
// canceled or Stop is called, then drains live sessions up to
// DrainTimeout before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	network := "tcp4"
	if s.cfg.IPv6 {
		network = "tcp"
	}

	ln, err := net.Listen(network, net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return err
	}
	defer ln.Close()

	s.addr = ln.Addr()
	close(s.ready)

	go func() {
		select {
		case <-ctx.Done():
			s.stop.Set()
		case <-s.stop.Done():
		}
		_ = ln.Close()
	}()

	s.acceptLoop(ln)
	s.drain()
	return nil
}

func (s *Supervisor) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stop.Done():
				return
			default:
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				return
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Supervisor) handle(conn net.Conn) {
	deps := &connection.Deps{
		Acceptor:         s.acceptor.Load(),
		Counters:         s.counters,
		ProcessStop:      s.stop,
		Relay:            s.cfg.Relay,
		Log:              s.cfg.Log,
		HandshakeTimeout: s.cfg.HandshakeTimeout,
		CommandTimeout:   s.cfg.CommandTimeout,
		Secret:           s.cfg.Secret,
		AllowList:        s.cfg.AllowList,
	}

	conn2 := connection.New(deps, conn, tunnelid.New())
	conn2.Run(context.Background())
}

// drain waits up to DrainTimeout for every live session to end; if the
// budget expires it proceeds anyway, as live pumps are already unwinding
// in response to the fired StopSignal.
func (s *Supervisor) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(DrainTimeout):
		s.cfg.Log.Warnf("drain timed out after %s with %d concurrent sessions remaining", DrainTimeout, s.counters.Snapshot().Concurrent)
	}
}
