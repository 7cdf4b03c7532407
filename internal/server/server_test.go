package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autosave/internal/server/storage/sqlite"
	"github.com/iudanet/autosave/pkg/api"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "server.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(cfg, store, logger)
	t.Cleanup(s.stopLimiter)
	return s
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, Config{Version: "test"})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// Записи еще нет
	resp, err := http.Get(ts.URL + "/api/v1/entities/daily-plan/p1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(api.RequestIDHeader))

	for i, title := range []string{"A", "B"} {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/entities/daily-plan/p1",
			strings.NewReader(`{"payload":{"title":"`+title+`"}}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(api.RequestIDHeader, "req-"+title)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		var saved api.EntityResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "req-"+title, resp.Header.Get(api.RequestIDHeader))
		assert.Equal(t, int64(i+1), saved.Revision)
	}

	resp, err = http.Get(ts.URL + "/api/v1/entities/daily-plan/p1")
	require.NoError(t, err)
	var got api.EntityResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.JSONEq(t, `{"title":"B"}`, string(got.Payload))
	assert.Equal(t, int64(2), got.Revision)

	resp, err = http.Get(ts.URL + HealthPath)
	require.NoError(t, err)
	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestServer_RateLimitAppliesToWritesOnly(t *testing.T) {
	s := newTestServer(t, Config{RateLimit: 1, RateWindow: time.Minute})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	put := func() int {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/entities/daily-plan/p1",
			strings.NewReader(`{"payload":{}}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, put())
	assert.Equal(t, http.StatusTooManyRequests, put())

	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + HealthPath)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestServer_ServeStopsOnContextCancel(t *testing.T) {
	s := newTestServer(t, Config{ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + HealthPath)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
