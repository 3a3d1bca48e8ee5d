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

// Package authorizer is the narrow capability the connection FSM uses to
// resolve a ticket into a backend and to report session end. Tests can
// substitute a fake implementing Authorizer without touching HTTP.
package authorizer

import (
	"context"
	"time"
)

// Reply is the decoded dispatch decision for an Open ticket.
type Reply struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Notify string `json:"notify"`
}

// Authorizer resolves tickets to backends and reports session end. Both
// methods are safe for concurrent use by multiple sessions.
type Authorizer interface {
	// GetTicket resolves ticket for a client at peer. Used before starting
	// a relay; any error is mapped by the caller to a ticket error.
	GetTicket(ctx context.Context, ticket, peer string) (Reply, error)

	// NotifyEnd reports a finished session. Fire-and-forget: the caller
	// logs a returned error but never surfaces it to the client.
	NotifyEnd(ctx context.Context, notifyTicket string, sent, recv int64, elapsed time.Duration) error
}
