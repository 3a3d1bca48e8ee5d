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

// Package metrics exposes the broker's Counters as Prometheus gauges and
// serves them, plus a liveness probe, over a small admin HTTP surface.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkmstr/udstunnel/internal/counters"
)

// Collector feeds a Counters snapshot into five gauges on every scrape.
type Collector struct {
	counters *counters.Counters

	concurrent prometheus.Gauge
	total      prometheus.Gauge
	sent       prometheus.Gauge
	recv       prometheus.Gauge
	uptime     prometheus.Gauge
}

// NewCollector builds a Collector reading from c. Register it on a
// prometheus.Registry before serving /metrics.
func NewCollector(c *counters.Counters) *Collector {
	return &Collector{
		counters: c,
		concurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udstunnel", Name: "concurrent_sessions", Help: "Currently open tunnel sessions.",
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udstunnel", Name: "accepted_connections_total", Help: "Sockets accepted since start.",
		}),
		sent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udstunnel", Name: "bytes_sent_total", Help: "Bytes relayed from backend to client.",
		}),
		recv: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udstunnel", Name: "bytes_received_total", Help: "Bytes relayed from client to backend.",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udstunnel", Name: "uptime_seconds", Help: "Seconds since process start.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.concurrent.Desc()
	ch <- c.total.Desc()
	ch <- c.sent.Desc()
	ch <- c.recv.Desc()
	ch <- c.uptime.Desc()
}

// Collect implements prometheus.Collector, pulling one fresh snapshot.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.counters.Snapshot()

	c.concurrent.Set(float64(snap.Concurrent))
	c.total.Set(float64(snap.Total))
	c.sent.Set(float64(snap.Sent))
	c.recv.Set(float64(snap.Recv))
	c.uptime.Set(snap.Elapsed.Seconds())

	ch <- c.concurrent
	ch <- c.total
	ch <- c.sent
	ch <- c.recv
	ch <- c.uptime
}

// Server is the small gin-routed admin surface: /metrics for Prometheus
// scraping and /healthz as a liveness probe.
type Server struct {
	http *http.Server
}

// NewServer builds an admin Server bound to addr, registering a fresh
// Collector over c on a private registry (never the global one, so
// running the broker twice in one process never panics on double
// registration).
func NewServer(addr string, c *counters.Counters) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(c))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	return &Server{http: &http.Server{Addr: addr, Handler: r}}
}

// Run serves until ctx is canceled, then shuts down within 5s.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.http.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
