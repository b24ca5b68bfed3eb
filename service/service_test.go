package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
)

func TestHealthzHandle(t *testing.T) {
	h := &HealthzServer{log: log.NewLogger(log.DiscardHandler())}
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAddrs(t *testing.T) {
	s := New(DefaultConfig("127.0.0.1", 7300), log.NewLogger(log.DiscardHandler()))
	assert.Equal(t, "0.0.0.0:8080", s.HealthzAddr())
	assert.Equal(t, "127.0.0.1:7300", s.MetricsAddr())
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(DefaultConfig("127.0.0.1", 7300), log.NewLogger(log.DiscardHandler()))
	assert.NotPanics(t, s.Shutdown)
}

func TestServerShutdownWhileStarting(t *testing.T) {
	healthz := &HealthzServer{log: log.NewLogger(log.DiscardHandler())}
	metrics := &MetricsServer{}

	tests := []struct {
		name     string
		start    func(ctx context.Context, addr string) error
		shutdown func() error
	}{
		{name: "healthz", start: healthz.Start, shutdown: healthz.Shutdown},
		{name: "metrics", start: metrics.Start, shutdown: metrics.Shutdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := make(chan error, 1)
			go func() {
				errs <- tt.start(context.Background(), "127.0.0.1:0")
			}()
			assert.NoError(t, tt.shutdown())

			select {
			case err := <-errs:
				assert.ErrorIs(t, err, http.ErrServerClosed)
			case <-time.After(5 * time.Second):
				t.Fatal("server kept running after shutdown")
			}
		})
	}
}
