package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(buf *bytes.Buffer) *serverImpl {
	var logger *slog.Logger
	if buf != nil {
		logger = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return New(Config{}, logger).(*serverImpl)
}

func TestAccessLog_AssignsRequestID(t *testing.T) {
	srv := newTestServer(&bytes.Buffer{})

	handler := srv.accessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetRequestID(r.Context())
		assert.NotEmpty(t, id)
		w.Header().Set("X-Test-Request-ID", id)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/files/id:1", nil))

	resp := w.Result()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, resp.Header.Get(RequestIDHeader), resp.Header.Get("X-Test-Request-ID"))
}

func TestAccessLog_KeepsClientRequestID(t *testing.T) {
	var buf bytes.Buffer
	srv := newTestServer(&buf)

	handler := srv.accessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "existing-id", GetRequestID(r.Context()))
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest("GET", "/files/search", nil)
	req.Header.Set(RequestIDHeader, "existing-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "existing-id", w.Result().Header.Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "request_id=existing-id")
	assert.Contains(t, buf.String(), "bytes=5")
	assert.Contains(t, buf.String(), "path=/files/search")
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestRecoverPanic(t *testing.T) {
	srv := newTestServer(&bytes.Buffer{})

	handler := srv.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("oops")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
}

func TestHandler_PanicIsLoggedWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	srv := newTestServer(&buf)
	handler := srv.handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/files/id:a", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, buf.String(), `msg="Handler panic"`)
	assert.Contains(t, buf.String(), "request_id=req-7")
	assert.Contains(t, buf.String(), "status=500")
}

func TestHandler_SetsHeaders(t *testing.T) {
	srv := newTestServer(&bytes.Buffer{})
	handler := srv.handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	for _, kv := range responseHeaders {
		assert.Equal(t, kv[1], w.Header().Get(kv[0]))
	}
}

func TestAccessLevel(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, slog.LevelInfo, accessLevel(context.Background(), http.StatusOK))
	assert.Equal(t, slog.LevelInfo, accessLevel(context.Background(), http.StatusNotFound))
	assert.Equal(t, slog.LevelWarn, accessLevel(context.Background(), 499))
	assert.Equal(t, slog.LevelWarn, accessLevel(canceled, http.StatusInternalServerError))
	assert.Equal(t, slog.LevelError, accessLevel(context.Background(), http.StatusInternalServerError))
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "BAD_REQUEST", "bad")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":"BAD_REQUEST","message":"bad"}`, w.Body.String())
}
