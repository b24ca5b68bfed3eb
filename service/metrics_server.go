package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the default prometheus registry on /metrics
type MetricsServer struct {
	mu     sync.Mutex
	ctx    context.Context
	server *http.Server
	closed bool
}

// Start serves /metrics on addr until Shutdown is called
func (m *MetricsServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
	))
	server := &http.Server{
		Handler: hdlr,
		Addr:    addr,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return http.ErrServerClosed
	}
	m.server, m.ctx = server, ctx
	m.mu.Unlock()
	return server.ListenAndServe()
}

// Shutdown stops the server. A later Start returns http.ErrServerClosed.
func (m *MetricsServer) Shutdown() error {
	m.mu.Lock()
	m.closed = true
	server, ctx := m.server, m.ctx
	m.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
