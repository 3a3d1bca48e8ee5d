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

// Package counters holds the process-wide traffic and connection totals.
// Every field is a lock-free atomic int64; there is no consistent cut
// across fields and none is required (spec §4.1).
package counters

import (
	"sync/atomic"
	"time"
)

// Counters is a reference-shared, cloneable handle around the process
// totals. The zero value is not usable; use New.
type Counters struct {
	sentBytes   atomic.Int64
	recvBytes   atomic.Int64
	totalConn   atomic.Int64
	concurrent  atomic.Int64
	startedAt   time.Time
}

// New returns a fresh Counters with its clock started now.
func New() *Counters {
	return &Counters{startedAt: time.Now()}
}

func (c *Counters) AddSent(n int64) {
	if n > 0 {
		c.sentBytes.Add(n)
	}
}

func (c *Counters) AddRecv(n int64) {
	if n > 0 {
		c.recvBytes.Add(n)
	}
}

func (c *Counters) IncTotal() {
	c.totalConn.Add(1)
}

func (c *Counters) IncConcurrent() {
	c.concurrent.Add(1)
}

func (c *Counters) DecConcurrent() {
	c.concurrent.Add(-1)
}

// Snapshot is an independently-read cut of the four counters plus elapsed
// process time.
type Snapshot struct {
	Concurrent int64
	Total      int64
	Sent       int64
	Recv       int64
	Elapsed    time.Duration
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Concurrent: c.concurrent.Load(),
		Total:      c.totalConn.Load(),
		Sent:       c.sentBytes.Load(),
		Recv:       c.recvBytes.Load(),
		Elapsed:    time.Since(c.startedAt),
	}
}
