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

// Package errs provides the error taxonomy used across the tunnel broker:
// a numeric code, an optional parent chain, and compatibility with the
// standard errors.Is/errors.As machinery.
package errs

import "strconv"

// CodeError is a numeric classification of an error, similar in spirit to
// an HTTP status code but scoped to this broker's own taxonomy.
type CodeError uint16

const (
	CodeUnknown CodeError = iota
	CodeConfig
	CodeHandshake
	CodeTimeout
	CodeCommand
	CodeTicket
	CodeForbidden
	CodeConnect
	CodeRelay
	CodeStopSignal
)

func (c CodeError) String() string {
	switch c {
	case CodeConfig:
		return "config"
	case CodeHandshake:
		return "handshake"
	case CodeTimeout:
		return "timeout"
	case CodeCommand:
		return "command"
	case CodeTicket:
		return "ticket"
	case CodeForbidden:
		return "forbidden"
	case CodeConnect:
		return "connect"
	case CodeRelay:
		return "relay"
	case CodeStopSignal:
		return "stop_signal"
	default:
		return "unknown"
	}
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) Int() int {
	return int(c)
}

// Error builds a new Error for this code, using the code's name as its
// message, with the given parents.
func (c CodeError) Error(parent ...error) Error {
	return New(c, c.String(), parent...)
}

// Errorf builds a new Error for this code with a formatted message.
func (c CodeError) Errorf(pattern string, args ...any) Error {
	return newf(c, pattern, args...)
}

func (c CodeError) strCode() string {
	return strconv.Itoa(c.Int())
}
