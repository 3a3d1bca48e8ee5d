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

package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dkmstr/udstunnel/internal/protocol"
	"github.com/dkmstr/udstunnel/internal/size"
)

const statsDialTimeout = 5 * time.Second

// runStats dials the broker's own listener and speaks the pre-TLS
// handshake plus a STAT command, the way any other client would, then
// prints the parsed counters line.
func runStats(flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	target := flags.tunnel
	if target == "" {
		target = net.JoinHostPort(loopbackHost(cfg.Address), strconv.Itoa(cfg.Port))
	}

	conn, err := net.DialTimeout("tcp", target, statsDialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(statsDialTimeout))

	if _, err := conn.Write(protocol.HandshakeV1); err != nil {
		return fmt.Errorf("write handshake: %w", err)
	}

	tc := tls.Client(conn, &tls.Config{InsecureSkipVerify: true}) //nolint:gosec // operator probe against its own broker
	if err := tc.Handshake(); err != nil {
		return fmt.Errorf("TLS handshake: %w", err)
	}

	if !protocol.ValidSecret(cfg.Secret) {
		return fmt.Errorf("no valid 64-character secret configured for --stats")
	}
	if _, err := tc.Write(append([]byte("STAT"), []byte(cfg.Secret)...)); err != nil {
		return fmt.Errorf("write STAT: %w", err)
	}

	resp := make([]byte, 256)
	n, err := io.ReadAtLeast(tc, resp, 1)
	if err != nil && n == 0 {
		return fmt.Errorf("read STAT response: %w", err)
	}
	line := string(resp[:n])

	if isErrorToken(line) {
		color.Red("broker returned %s", line)
		return fmt.Errorf("stats request rejected: %s", line)
	}

	if flags.detailedStats {
		printDetailedStats(line)
	} else {
		color.Green(line)
	}
	return nil
}

func isErrorToken(line string) bool {
	for _, r := range []protocol.Response{
		protocol.TicketError, protocol.CommandError, protocol.TimeoutError,
		protocol.HandshakeError, protocol.ForbiddenError, protocol.ConnectError,
	} {
		if line == r.String() {
			return true
		}
	}
	return false
}

// printDetailedStats parses the concurrent;total;sent;recv wire line into
// a human-labelled report with byte counts rendered via internal/size.
func printDetailedStats(line string) {
	parts := strings.Split(line, ";")
	if len(parts) != 4 {
		color.Yellow("unparseable stats line: %s", line)
		return
	}

	labels := []string{"concurrent sessions", "accepted connections", "bytes sent", "bytes received"}
	bold := color.New(color.Bold)

	for i, label := range labels {
		v, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			color.Yellow("unparseable field %q: %s", label, parts[i])
			continue
		}

		if i < 2 {
			bold.Printf("%-24s %d\n", label+":", v)
		} else {
			bold.Printf("%-24s %s\n", label+":", size.Size(v).String())
		}
	}
}

// loopbackHost maps a wildcard bind address to a dialable loopback host.
func loopbackHost(addr string) string {
	switch addr {
	case "", "0.0.0.0", "::":
		return "127.0.0.1"
	default:
		return addr
	}
}
