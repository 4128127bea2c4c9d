package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/delay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, addr string) (*API, *delay.Store) {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.NoDataDelayFile)
	require.NoError(t, os.WriteFile(path, []byte("150"), 0600))

	store := delay.NewStore()
	w := delay.NewWatcher(path, store)
	w.Load(true)

	return New(&config.Config{API: addr}, store, w), store
}

func Test_Run(t *testing.T) {
	a, _ := newAPI(t, "")
	assert.NoError(t, a.Run(context.Background()))

	a, _ = newAPI(t, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("api did not stop")
	}

	a, _ = newAPI(t, "256.0.0.1:80")
	assert.Error(t, a.Run(context.Background()))
}

func Test_AllAPICalls(t *testing.T) {
	a, store := newAPI(t, "")

	routes := []struct {
		Method         string
		ReqURL         string
		ExpectedStatus int
		Contains       string
	}{
		{"GET", "/healthz", http.StatusOK, `"status":"ok"`},
		{"GET", "/api/v1/nodata", http.StatusOK, `"delay_ms":150`},
		{"GET", "/metrics", http.StatusOK, "go_goroutines"},
		{"POST", "/healthz", http.StatusMethodNotAllowed, ""},
		{"GET", "/api/v1/unknown", http.StatusNotFound, ""},
	}

	for _, r := range routes {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(r.Method, r.ReqURL, nil)
		a.Handler().ServeHTTP(w, req)

		assert.Equal(t, r.ExpectedStatus, w.Code, r.ReqURL)
		assert.Equal(t, "ingressdns", w.Header().Get("Server"))
		if r.Contains != "" {
			assert.True(t, strings.Contains(w.Body.String(), r.Contains), w.Body.String())
		}
	}

	store.Set(0)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/nodata", nil)
	a.Handler().ServeHTTP(w, req)

	var status struct {
		DelayMs int64  `json:"delay_ms"`
		Watcher string `json:"watcher"`
		Path    string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, int64(0), status.DelayMs)
	assert.Equal(t, "unarmed", status.Watcher)
	assert.Equal(t, config.NoDataDelayFile, filepath.Base(status.Path))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func Test_RouterRecover(t *testing.T) {
	r := NewRouter()
	r.GET("/panic", func(ctx *Context) { panic("boom") })

	stderr := os.Stderr
	os.Stderr, _ = os.Open(os.DevNull)
	defer func() { os.Stderr = stderr }()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func Test_RouterParam(t *testing.T) {
	r := NewRouter()
	r.Group("/v1").GET("/echo/{name}", func(ctx *Context) {
		ctx.JSON(http.StatusOK, Json{"name": ctx.Param("name")})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/echo/app", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"app"}`, w.Body.String())
}
