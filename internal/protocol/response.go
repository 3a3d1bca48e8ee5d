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

package protocol

// Response is a closed enum of the fixed ASCII tokens written back to the
// client. There is no trailing newline or framing: the peer accepts a full
// short write followed by an orderly close.
type Response uint8

const (
	Ok Response = iota
	TicketError
	CommandError
	TimeoutError
	HandshakeError
	ForbiddenError
	ConnectError
)

func (r Response) Bytes() []byte {
	return []byte(r.String())
}

func (r Response) String() string {
	switch r {
	case Ok:
		return "OK"
	case TicketError:
		return "ERROR_TICKET"
	case CommandError:
		return "ERROR_COMMAND"
	case TimeoutError:
		return "TIMEOUT"
	case HandshakeError:
		return "ERROR_HANDSHAKE"
	case ForbiddenError:
		return "FORBIDDEN"
	case ConnectError:
		return "ERROR_CONNECT"
	default:
		return "ERROR_COMMAND"
	}
}
