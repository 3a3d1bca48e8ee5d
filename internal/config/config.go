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

// Package config is the broker's single configuration surface: a flat,
// validated struct loaded by merging a file with environment variables
// (prefix udstunnel_, environment wins), the way nabbar/golib's
// certificates.Config validates itself with go-playground/validator.
package config

import (
	"strings"
	"time"

	"github.com/dkmstr/udstunnel/internal/size"
)

// Configuration is the broker's full, immutable-after-load configuration.
type Configuration struct {
	PidFile  string `mapstructure:"pidfile" json:"pidfile" yaml:"pidfile" toml:"pidfile"`
	User     string `mapstructure:"user" json:"user" yaml:"user" toml:"user"`
	LogLevel string `mapstructure:"loglevel" json:"loglevel" yaml:"loglevel" toml:"loglevel" validate:"omitempty,oneof=debug info warn error"`
	LogFile  string `mapstructure:"logfile" json:"logfile" yaml:"logfile" toml:"logfile"`
	LogSize  string `mapstructure:"logsize" json:"logsize" yaml:"logsize" toml:"logsize"`
	LogNum   int    `mapstructure:"lognumber" json:"lognumber" yaml:"lognumber" toml:"lognumber"`

	Address string `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`
	Port    int    `mapstructure:"port" json:"port" yaml:"port" toml:"port" validate:"required,min=1,max=65535"`
	IPv6    bool   `mapstructure:"ipv6" json:"ipv6" yaml:"ipv6" toml:"ipv6"`
	Workers int    `mapstructure:"workers" json:"workers" yaml:"workers" toml:"workers"`

	SSLMinTLSVersion  string   `mapstructure:"ssl_min_tls_version" json:"ssl_min_tls_version" yaml:"ssl_min_tls_version" toml:"ssl_min_tls_version" validate:"omitempty,oneof=1.2 1.3"`
	SSLCertificate    string   `mapstructure:"ssl_certificate" json:"ssl_certificate" yaml:"ssl_certificate" toml:"ssl_certificate" validate:"required"`
	SSLCertificateKey string   `mapstructure:"ssl_certificate_key" json:"ssl_certificate_key" yaml:"ssl_certificate_key" toml:"ssl_certificate_key" validate:"required"`
	SSLCiphers        string   `mapstructure:"ssl_ciphers" json:"ssl_ciphers" yaml:"ssl_ciphers" toml:"ssl_ciphers"`

	UDSServer      string  `mapstructure:"uds_server" json:"uds_server" yaml:"uds_server" toml:"uds_server" validate:"required"`
	UDSToken       string  `mapstructure:"uds_token" json:"uds_token" yaml:"uds_token" toml:"uds_token"`
	UDSTimeout     float64 `mapstructure:"uds_timeout" json:"uds_timeout" yaml:"uds_timeout" toml:"uds_timeout"`
	UDSVerifySSL   bool    `mapstructure:"uds_verify_ssl" json:"uds_verify_ssl" yaml:"uds_verify_ssl" toml:"uds_verify_ssl"`
	CommandTimeout float64 `mapstructure:"command_timeout" json:"command_timeout" yaml:"command_timeout" toml:"command_timeout"`
	HandshakeTimeout float64 `mapstructure:"handshake_timeout" json:"handshake_timeout" yaml:"handshake_timeout" toml:"handshake_timeout"`

	Secret string `mapstructure:"secret" json:"secret" yaml:"secret" toml:"secret" validate:"omitempty,len=64,hexadecimal"`
	Allow  string `mapstructure:"allow" json:"allow" yaml:"allow" toml:"allow"`

	// AdminAddress, when set, serves /metrics and /healthz (internal/metrics).
	// Left empty, the admin surface is not started.
	AdminAddress string `mapstructure:"admin_address" json:"admin_address" yaml:"admin_address" toml:"admin_address"`
}

// Default returns a configuration with every clamp-bound field set to a
// sane operational default; Validate still applies on top of it.
func Default() *Configuration {
	return &Configuration{
		LogLevel:         "info",
		LogSize:          "10M",
		LogNum:           5,
		Address:          "0.0.0.0",
		Port:             4443,
		Workers:          0,
		SSLMinTLSVersion: "1.2",
		UDSTimeout:       4,
		CommandTimeout:   3.2,
		HandshakeTimeout: 3.2,
	}
}

// AllowList splits the comma-separated Allow field into trimmed entries.
func (c *Configuration) AllowList() []string {
	if strings.TrimSpace(c.Allow) == "" {
		return nil
	}

	parts := strings.Split(c.Allow, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CipherNames splits the colon-separated OpenSSL-style cipher list.
func (c *Configuration) CipherNames() []string {
	if strings.TrimSpace(c.SSLCiphers) == "" {
		return nil
	}

	parts := strings.Split(c.SSLCiphers, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UDSTimeoutDuration clamps uds_timeout to [0.1, 60] seconds.
func (c *Configuration) UDSTimeoutDuration() time.Duration {
	return clampSeconds(c.UDSTimeout, 0.1, 60)
}

// CommandTimeoutDuration clamps command_timeout to [0.4, 16] seconds.
func (c *Configuration) CommandTimeoutDuration() time.Duration {
	return clampSeconds(c.CommandTimeout, 0.4, 16)
}

// HandshakeTimeoutDuration clamps handshake_timeout to [0.4, 16] seconds.
func (c *Configuration) HandshakeTimeoutDuration() time.Duration {
	return clampSeconds(c.HandshakeTimeout, 0.4, 16)
}

// LogSizeBytes parses the K/M/G-suffixed LogSize field.
func (c *Configuration) LogSizeBytes() (size.Size, error) {
	if c.LogSize == "" {
		return 0, nil
	}
	return size.Parse(c.LogSize)
}

func clampSeconds(v, min, max float64) time.Duration {
	if v <= 0 {
		v = min
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return time.Duration(v * float64(time.Second))
}
