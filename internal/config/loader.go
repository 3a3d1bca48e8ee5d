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

package config

import (
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/dkmstr/udstunnel/internal/errs"
)

const envPrefix = "udstunnel"

// Load reads path (if non-empty) and merges environment variables
// prefixed udstunnel_ on top, environment winning over file on every key.
// The result is validated before being returned.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	bindDefaults(v, def)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.CodeConfig.Errorf("read config file %q: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.CodeConfig.Errorf("unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate runs struct-tag validation over cfg, wrapping every violation
// into a single CodeConfig error, in the same spirit as
// certificates.Config.Validate.
func Validate(cfg *Configuration) error {
	if err := validator.New().Struct(cfg); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("field %q fails constraint %q", e.Namespace(), e.ActualTag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return errs.CodeConfig.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	if _, err := cfg.LogSizeBytes(); err != nil {
		return errs.CodeConfig.Errorf("invalid logsize %q: %w", cfg.LogSize, err)
	}

	return nil
}

func bindDefaults(v *viper.Viper, def *Configuration) {
	v.SetDefault("loglevel", def.LogLevel)
	v.SetDefault("logsize", def.LogSize)
	v.SetDefault("lognumber", def.LogNum)
	v.SetDefault("address", def.Address)
	v.SetDefault("port", def.Port)
	v.SetDefault("ssl_min_tls_version", def.SSLMinTLSVersion)
	v.SetDefault("uds_timeout", def.UDSTimeout)
	v.SetDefault("command_timeout", def.CommandTimeout)
	v.SetDefault("handshake_timeout", def.HandshakeTimeout)
}
