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

import "fmt"

const (
	// MaxCommandLen is the largest a command frame is ever allowed to be.
	MaxCommandLen = 128

	tagLen    = 4
	ticketLen = 48
	secretLen = 64
)

// Kind identifies which variant a Command is.
type Kind uint8

const (
	Unknown Kind = iota
	Open
	Test
	Stats
)

// Command is the parsed result of a command frame.
type Command struct {
	Kind   Kind
	Ticket string // set iff Kind == Open
	Secret string // set iff Kind == Stats
}

// ParseCommand decodes a raw command frame per spec §4.4. Invalid lengths
// or non-alphanumeric payloads return an error; the caller maps that to
// CommandError. An unrecognized 4-byte tag yields Command{Kind: Unknown}
// with no error, since "unknown tag" is itself a valid outcome of parsing.
func ParseCommand(buf []byte) (Command, error) {
	if len(buf) < tagLen || len(buf) > MaxCommandLen {
		return Command{}, fmt.Errorf("protocol: command frame length %d out of range", len(buf))
	}

	tag := string(buf[:tagLen])
	rest := buf[tagLen:]

	switch tag {
	case "OPEN":
		if len(rest) != ticketLen || !isAlnum(rest) {
			return Command{}, fmt.Errorf("protocol: invalid OPEN ticket payload")
		}
		return Command{Kind: Open, Ticket: string(rest)}, nil

	case "TEST":
		if len(rest) != 0 {
			return Command{}, fmt.Errorf("protocol: TEST must carry no payload")
		}
		return Command{Kind: Test}, nil

	case "STAT", "INFO":
		if len(rest) != secretLen || !isAlnum(rest) {
			return Command{}, fmt.Errorf("protocol: invalid STAT/INFO secret payload")
		}
		return Command{Kind: Stats, Secret: string(rest)}, nil

	default:
		return Command{Kind: Unknown}, nil
	}
}

func isAlnum(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// ValidTicket reports whether s is a well-formed 48-char alphanumeric ticket.
func ValidTicket(s string) bool {
	return len(s) == ticketLen && isAlnum([]byte(s))
}

// ValidSecret reports whether s is a well-formed 64-char alphanumeric secret.
func ValidSecret(s string) bool {
	return len(s) == secretLen && isAlnum([]byte(s))
}
