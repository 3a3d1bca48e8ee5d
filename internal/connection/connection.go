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

// Package connection implements the per-connection state machine: from
// raw accept through the pre-TLS handshake, TLS upgrade, command read,
// and dispatch to Test/Stats/Open.
package connection

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dkmstr/udstunnel/internal/counters"
	"github.com/dkmstr/udstunnel/internal/logx"
	"github.com/dkmstr/udstunnel/internal/protocol"
	"github.com/dkmstr/udstunnel/internal/relay"
	"github.com/dkmstr/udstunnel/internal/stopsignal"
	"github.com/dkmstr/udstunnel/internal/tlsacceptor"
)

// Deps are the capabilities a Connection needs, all reference-shared
// across every accepted connection.
type Deps struct {
	Acceptor    *tlsacceptor.Acceptor
	Counters    *counters.Counters
	ProcessStop stopsignal.Signal
	Relay       *relay.Engine
	Log         *logx.Logger

	HandshakeTimeout time.Duration
	CommandTimeout   time.Duration

	Secret    string
	AllowList []string
}

// Connection owns one accepted plaintext socket and runs it through the
// FSM exactly once.
type Connection struct {
	deps   *Deps
	conn   net.Conn
	tid    string
	peer   string
}

// New builds a Connection for a freshly accepted socket.
func New(deps *Deps, conn net.Conn, tid string) *Connection {
	return &Connection{deps: deps, conn: conn, tid: tid, peer: peerAddress(conn.RemoteAddr())}
}

// peerAddress formats addr as host:port, bracketing IPv6 literals.
func peerAddress(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if strings.Contains(host, ":") {
		return fmt.Sprintf("[%s]:%s", host, port)
	}
	return net.JoinHostPort(host, port)
}

// Run drives the connection from Accepted to Closed. It never returns an
// error: every failure path is handled by writing the appropriate
// response token (best-effort) and closing the socket.
func (c *Connection) Run(ctx context.Context) {
	defer c.conn.Close()

	c.deps.Counters.IncTotal()
	c.deps.Log.Infof("CONNECTION %s from %s", c.tid, c.peer)

	if !c.readHandshake() {
		return
	}

	tlsConn, ok := c.upgrade(ctx)
	if !ok {
		return
	}

	cmd, ok := c.readCommand(tlsConn)
	if !ok {
		return
	}

	c.dispatch(ctx, tlsConn, cmd)
}

func (c *Connection) readHandshake() bool {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.deps.HandshakeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, protocol.HandshakeLen)
	_, err := readFull(c.conn, buf)
	if isTimeout(err) {
		c.writeBest(c.conn, protocol.TimeoutError)
		return false
	}
	if err != nil || !protocol.CheckHandshake(buf) {
		c.writeBest(c.conn, protocol.HandshakeError)
		return false
	}
	return true
}

func (c *Connection) upgrade(ctx context.Context) (*tls.Conn, bool) {
	tlsConn, err := c.deps.Acceptor.Upgrade(ctx, c.conn)
	if err != nil {
		c.deps.Log.Warnf("TLS handshake failed tid=%s peer=%s: %v", c.tid, c.peer, err)
		return nil, false
	}
	return tlsConn, true
}

func (c *Connection) readCommand(tc *tls.Conn) (protocol.Command, bool) {
	_ = tc.SetReadDeadline(time.Now().Add(c.deps.CommandTimeout))
	defer tc.SetReadDeadline(time.Time{})

	buf := make([]byte, protocol.MaxCommandLen)
	n, err := tc.Read(buf)
	if isTimeout(err) {
		c.writeBest(tc, protocol.TimeoutError)
		return protocol.Command{}, false
	}
	if err != nil && n == 0 {
		c.writeBest(tc, protocol.CommandError)
		return protocol.Command{}, false
	}

	cmd, perr := protocol.ParseCommand(buf[:n])
	if perr != nil {
		c.writeBest(tc, protocol.CommandError)
		return protocol.Command{}, false
	}
	return cmd, true
}

func (c *Connection) dispatch(ctx context.Context, tc *tls.Conn, cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.Test:
		c.writeBest(tc, protocol.Ok)

	case protocol.Stats:
		c.dispatchStats(tc, cmd.Secret)

	case protocol.Open:
		if err := c.deps.Relay.Open(ctx, tc, cmd.Ticket, c.peer); err != nil {
			c.deps.Log.Warnf("relay ended tid=%s peer=%s: %v", c.tid, c.peer, err)
		}

	default:
		c.writeBest(tc, protocol.CommandError)
	}
}

func (c *Connection) dispatchStats(tc *tls.Conn, secret string) {
	if !c.statsAllowed(secret) {
		c.writeBest(tc, protocol.ForbiddenError)
		return
	}

	snap := c.deps.Counters.Snapshot()
	line := fmt.Sprintf("%d;%d;%d;%d", snap.Concurrent, snap.Total, snap.Sent, snap.Recv)
	_, _ = tc.Write([]byte(line))
}

// statsAllowed implements spec §4.5's Stats guard: the secret check
// always applies; the allow-list check only applies when non-empty.
func (c *Connection) statsAllowed(secret string) bool {
	if secret != c.deps.Secret {
		return false
	}
	if len(c.deps.AllowList) == 0 {
		return true
	}

	host, _, err := net.SplitHostPort(c.peer)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(c.peer, "["), "]")
	}
	for _, allowed := range c.deps.AllowList {
		if allowed == host {
			return true
		}
	}
	return false
}

func (c *Connection) writeBest(w interface{ Write([]byte) (int, error) }, r protocol.Response) {
	_, _ = w.Write(r.Bytes())
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
