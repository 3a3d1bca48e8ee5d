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

// Package protocol implements the pre-TLS handshake prefix, the on-wire
// command frame, and the fixed response tokens. All encode/decode here is
// pure: no I/O, no timeouts, no TLS.
package protocol

import "bytes"

// HandshakeV1 is the fixed byte sequence a client must send before the TLS
// handshake. It is treated as an opaque blob: compared byte-for-byte, never
// interpreted field by field.
var HandshakeV1 = []byte{0x5A, 0x4D, 0x47, 0x42, 0xA5, 0x01, 0x00, 0x00}

// HandshakeLen is the number of bytes a ReadHandshake step must read.
const HandshakeLen = len(HandshakeV1)

// CheckHandshake reports whether buf is exactly the expected magic.
func CheckHandshake(buf []byte) bool {
	return bytes.Equal(buf, HandshakeV1)
}
