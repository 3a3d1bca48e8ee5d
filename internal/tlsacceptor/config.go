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

package tlsacceptor

import (
	"crypto/tls"
	"strings"

	"github.com/dkmstr/udstunnel/internal/errs"
)

// Config is the subset of server TLS knobs the broker exposes: exactly one
// certificate pair (loaded from files or supplied inline as PEM), a minimum
// negotiated version, and an optional cipher preference list.
type Config struct {
	CertFile   string   `mapstructure:"certFile" json:"certFile" yaml:"certFile" toml:"certFile"`
	KeyFile    string   `mapstructure:"keyFile" json:"keyFile" yaml:"keyFile" toml:"keyFile"`
	CertPEM    string   `mapstructure:"certPem" json:"certPem" yaml:"certPem" toml:"certPem"`
	KeyPEM     string   `mapstructure:"keyPem" json:"keyPem" yaml:"keyPem" toml:"keyPem"`
	MinVersion string   `mapstructure:"minVersion" json:"minVersion" yaml:"minVersion" toml:"minVersion" validate:"omitempty,oneof=1.0 1.1 1.2 1.3"`
	CipherList []string `mapstructure:"cipherList" json:"cipherList" yaml:"cipherList" toml:"cipherList"`
}

var versionByCode = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

var cipherByName = map[string]uint16{
	"ecdhe_ecdsa_aes128_gcm_sha256":    tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"ecdhe_rsa_aes128_gcm_sha256":      tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"ecdhe_ecdsa_aes256_gcm_sha384":    tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"ecdhe_rsa_aes256_gcm_sha384":      tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"ecdhe_ecdsa_chacha20_poly1305":    tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	"ecdhe_rsa_chacha20_poly1305":      tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	"tls13_aes128_gcm_sha256":          tls.TLS_AES_128_GCM_SHA256,
	"tls13_aes256_gcm_sha384":          tls.TLS_AES_256_GCM_SHA384,
	"tls13_chacha20_poly1305_sha256":   tls.TLS_CHACHA20_POLY1305_SHA256,
}

// Build loads the certificate pair and assembles a *tls.Config. It never
// mutates c. A CertPEM/KeyPEM pair takes precedence over CertFile/KeyFile
// when both are set, so a config loaded from env vars can avoid touching
// disk at all.
func (c *Config) Build() (*tls.Config, error) {
	cert, err := c.loadCertificate()
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if v, ok := versionByCode[c.MinVersion]; ok {
		cfg.MinVersion = v
	}

	if want := c.resolveCiphers(); len(want) > 0 {
		cfg.CipherSuites = filterCiphers(want)
		cfg.PreferServerCipherSuites = true //nolint:staticcheck // kept for parity with older clients
	}

	return cfg, nil
}

func (c *Config) loadCertificate() (tls.Certificate, error) {
	if c.CertPEM != "" && c.KeyPEM != "" {
		cert, err := tls.X509KeyPair([]byte(c.CertPEM), []byte(c.KeyPEM))
		if err != nil {
			return tls.Certificate{}, errs.CodeConfig.Errorf("parse inline certificate pair: %w", err)
		}
		return cert, nil
	}

	if c.CertFile == "" || c.KeyFile == "" {
		return tls.Certificate{}, errs.CodeConfig.Errorf("no certificate pair configured")
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return tls.Certificate{}, errs.CodeConfig.Errorf("load certificate pair from %q/%q: %w", c.CertFile, c.KeyFile, err)
	}
	return cert, nil
}

func (c *Config) resolveCiphers() []uint16 {
	if len(c.CipherList) == 0 {
		return nil
	}

	out := make([]uint16, 0, len(c.CipherList))
	for _, name := range c.CipherList {
		// OpenSSL spells suites with hyphens (ECDHE-RSA-AES128-GCM-SHA256);
		// the table keys use underscores.
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
		if id, ok := cipherByName[key]; ok {
			out = append(out, id)
		}
	}
	return out
}
