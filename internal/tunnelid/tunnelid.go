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

// Package tunnelid generates the short opaque identifier logged and
// attached to every accepted connection.
package tunnelid

import (
	"strings"

	"github.com/hashicorp/go-uuid"
)

// Len is the number of characters a generated tunnel id carries. It is
// long enough to make log-line collisions a non-issue within a broker's
// lifetime, short enough to stay legible next to a peer address.
const Len = 13

// New returns a fresh opaque tunnel id. It panics only if the system's
// random source is unusable, mirroring go-uuid's own failure mode.
func New() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		panic("tunnelid: system random source unavailable: " + err.Error())
	}

	id = strings.ReplaceAll(id, "-", "")
	if len(id) > Len {
		id = id[:Len]
	}
	return id
}
