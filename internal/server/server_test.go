package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"referral-earn-bot/internal/utils"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func serve(t *testing.T, h http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Alive(t *testing.T) {
	w := serve(t, NewRouter(nil, nil), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bot is alive", w.Body.String())
}

func TestRouter_Healthz(t *testing.T) {
	w := serve(t, NewRouter(nil, nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"ok"}`+"\n", w.Body.String())
}

func TestRouter_Readyz(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		store := &MockPinger{}
		store.On("Ping", mock.Anything).Return(nil)
		cache := &MockPinger{}
		cache.On("Ping", mock.Anything).Return(nil)

		w := serve(t, NewRouter(map[string]Pinger{"store": store, "redis": cache}, nil), http.MethodGet, "/readyz", "")

		assert.Equal(t, http.StatusOK, w.Code)
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("store down", func(t *testing.T) {
		store := &MockPinger{}
		store.On("Ping", mock.Anything).Return(assert.AnError)

		w := serve(t, NewRouter(map[string]Pinger{"store": store}, nil), http.MethodGet, "/readyz", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unavailable"`)
		assert.Contains(t, w.Body.String(), "store unreachable")
	})

	t.Run("ping func adapter", func(t *testing.T) {
		called := false
		check := PingFunc(func(context.Context) error {
			called = true
			return nil
		})

		w := serve(t, NewRouter(map[string]Pinger{"redis": check}, nil), http.MethodGet, "/readyz", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
	})
}

func TestRouter_Metrics(t *testing.T) {
	w := serve(t, NewRouter(nil, nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# TYPE")
}

func TestRouter_Webhook(t *testing.T) {
	allow, err := utils.NewAllowList([]string{"149.154.160.0/20"})
	require.NoError(t, err)

	hits := 0
	hook := &Webhook{
		Path: "/telegram/webhook",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.WriteHeader(http.StatusOK)
		}),
		AllowList: allow,
	}
	router := NewRouter(nil, hook)

	// CASE: Telegram address
	w := serve(t, router, http.MethodPost, "/telegram/webhook", "149.154.167.220:443")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, hits)

	// CASE: anyone else
	w = serve(t, router, http.MethodPost, "/telegram/webhook", "8.8.8.8:443")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1, hits)
}

func TestRouter_NoWebhookInPollingMode(t *testing.T) {
	w := serve(t, NewRouter(nil, nil), http.MethodPost, "/telegram/webhook", "149.154.167.220:443")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
