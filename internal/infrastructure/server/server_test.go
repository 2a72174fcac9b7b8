package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Worker.PoolSize = 1
	return cfg
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Worker.PoolSize = 0

	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServerRoutesAndMiddleware(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)
	defer srv.Close()

	req := httptest.NewRequest("POST", "/channels", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["port1"])

	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunAndShutdown(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	// Give the listener a moment to start
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
