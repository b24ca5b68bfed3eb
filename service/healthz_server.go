package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// HealthzServer answers liveness probes
type HealthzServer struct {
	mu     sync.Mutex
	ctx    context.Context
	server *http.Server
	closed bool
	log    log.Logger
}

// Start serves /healthz on addr until Shutdown is called
func (h *HealthzServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/healthz", h.Handle)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	server := &http.Server{
		Handler: c.Handler(hdlr),
		Addr:    addr,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return http.ErrServerClosed
	}
	h.server, h.ctx = server, ctx
	h.mu.Unlock()
	return server.ListenAndServe()
}

// Shutdown stops the server. A later Start returns http.ErrServerClosed.
func (h *HealthzServer) Shutdown() error {
	h.mu.Lock()
	h.closed = true
	server, ctx := h.server, h.ctx
	h.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	if h.log != nil {
		h.log.Debug("Received health check request", "path", r.URL.Path)
	}
	w.Write([]byte("OK")) //nolint:errcheck
}
