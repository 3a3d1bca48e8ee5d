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

// Package stopsignal implements a cloneable, level-triggered broadcast
// one-shot event: Set() wakes every current and future waiter exactly
// once, idempotently, and dropping a waiter never leaks state.
package stopsignal

import "sync"

// core is the state shared by every clone of a Signal.
type core struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

// Signal is a cloneable handle around a one-shot broadcast event. The zero
// value is not usable; use New. Clones share the same underlying state:
// Set on any clone is observed by every clone.
type Signal struct {
	c *core
}

// New returns a fresh, unset Signal.
func New() Signal {
	return Signal{c: &core{ch: make(chan struct{})}}
}

// Clone returns a handle sharing the same underlying state. Cloning and
// dropping a Signal is always safe: there is no per-clone registration to
// leak, since every waiter selects on the same shared channel.
func (s Signal) Clone() Signal {
	return Signal{c: s.c}
}

// Set fires the signal. The first call flips the internal flag and closes
// the shared channel, which wakes every current and future waiter exactly
// once. Subsequent calls are no-ops. Set never panics, even if called
// concurrently from multiple goroutines or multiple times.
func (s Signal) Set() {
	s.c.mu.Lock()
	if s.c.set {
		s.c.mu.Unlock()
		return
	}

	s.c.set = true
	ch := s.c.ch
	s.c.mu.Unlock()

	// Closing happens after releasing the lock so that any waiter woken by
	// the close never blocks behind a goroutine still holding c.mu.
	close(ch)
}

// IsSet reports whether the signal has already fired.
func (s Signal) IsSet() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.set
}

// Done returns a channel that is closed exactly once, when the signal
// fires. Awaiting a signal that already fired returns immediately, since a
// closed channel is always ready to receive. Select on Done() alongside
// any other channel to race a local condition against shutdown.
func (s Signal) Done() <-chan struct{} {
	return s.c.ch
}
