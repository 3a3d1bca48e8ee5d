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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkmstr/udstunnel/internal/authorizer"
	"github.com/dkmstr/udstunnel/internal/config"
	"github.com/dkmstr/udstunnel/internal/counters"
	"github.com/dkmstr/udstunnel/internal/logx"
	"github.com/dkmstr/udstunnel/internal/metrics"
	"github.com/dkmstr/udstunnel/internal/relay"
	"github.com/dkmstr/udstunnel/internal/server"
	"github.com/dkmstr/udstunnel/internal/stopsignal"
	"github.com/dkmstr/udstunnel/internal/tlsacceptor"
)

func runBroker(flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if flags.ipv6 {
		cfg.IPv6 = true
	}

	log := logx.New(nil, cfg.LogLevel)

	auth := authorizer.NewHTTP(authorizer.HTTPConfig{
		Server:    cfg.UDSServer,
		Token:     cfg.UDSToken,
		Timeout:   cfg.UDSTimeoutDuration(),
		VerifySSL: cfg.UDSVerifySSL,
	})

	cnt := counters.New()
	stop := stopsignal.New()

	relayEngine := &relay.Engine{
		Auth:        auth,
		Counters:    cnt,
		ProcessStop: stop,
		Log:         log,
		DialTimeout: cfg.UDSTimeoutDuration(),
	}

	sup, err := server.New(server.Config{
		Address: cfg.Address,
		Port:    cfg.Port,
		IPv6:    cfg.IPv6,
		TLS: &tlsacceptor.Config{
			CertFile:   cfg.SSLCertificate,
			KeyFile:    cfg.SSLCertificateKey,
			MinVersion: cfg.SSLMinTLSVersion,
			CipherList: cfg.CipherNames(),
		},
		Relay:            relayEngine,
		HandshakeTimeout: cfg.HandshakeTimeoutDuration(),
		CommandTimeout:   cfg.CommandTimeoutDuration(),
		Secret:           cfg.Secret,
		AllowList:        cfg.AllowList(),
		Log:              log,
	})
	if err != nil {
		return fmt.Errorf("build supervisor: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.AdminAddress != "" {
		admin := metrics.NewServer(cfg.AdminAddress, sup.Counters())
		go func() {
			if err := admin.Run(ctx); err != nil {
				log.Warnf("admin HTTP surface stopped: %v", err)
			}
		}()
	}

	log.Infof("listening on %s:%d", cfg.Address, cfg.Port)
	return sup.Run(ctx)
}

func loadConfig(flags *rootFlags) (*config.Configuration, error) {
	path := flags.configPath
	if path == "" {
		def, err := defaultConfigPath()
		if err == nil {
			if _, statErr := os.Stat(def); statErr == nil {
				path = def
			}
		}
	}
	return config.Load(path)
}
