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

// Package tlsacceptor builds the server-side *tls.Config and upgrades
// already-accepted plain conns to TLS, trimmed to the handful of knobs the broker
// exposes: minimum version, a cipher whitelist, and exactly one certificate
// pair.
package tlsacceptor

import "crypto/tls"

// allowedCiphers is the fixed whitelist of cipher suites the broker ever
// negotiates, independent of what Go's standard library defaults to. A
// configured CipherList is intersected against this set; anything outside
// it is dropped rather than rejected, so a stale config entry degrades
// gracefully instead of refusing to start.
var allowedCiphers = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	tls.TLS_AES_128_GCM_SHA256,
	tls.TLS_AES_256_GCM_SHA384,
	tls.TLS_CHACHA20_POLY1305_SHA256,
}

// IsAllowedCipher reports whether id is in the fixed whitelist.
func IsAllowedCipher(id uint16) bool {
	for _, c := range allowedCiphers {
		if c == id {
			return true
		}
	}
	return false
}

// filterCiphers returns the subset of want that is in the whitelist, in
// want's original order. A nil or empty want yields a nil result, which
// tells crypto/tls to use its own default preference order.
func filterCiphers(want []uint16) []uint16 {
	if len(want) == 0 {
		return nil
	}

	out := make([]uint16, 0, len(want))
	for _, c := range want {
		if IsAllowedCipher(c) {
			out = append(out, c)
		}
	}
	return out
}
