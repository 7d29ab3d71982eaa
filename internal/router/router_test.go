package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"order-composer/internal/config"
	"order-composer/internal/handler"
	"order-composer/internal/metrics"
	"order-composer/internal/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "router-test-key"

func newTestRouter(t *testing.T, limit config.RateLimitConfig) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()

	rateLimit, err := middleware.RateLimit(limit, 16, logger)
	require.NoError(t, err)

	// Services are never reached: every request below is answered by
	// middleware or fails URL parsing first.
	h := Handlers{
		Catalog:   handler.NewCatalogHandler(nil, logger),
		Order:     handler.NewOrderHandler(nil, nil, logger),
		OrderItem: handler.NewOrderItemHandler(nil, config.ListingConfig{DefaultPageSize: 50, MaxPageSize: 200}, logger),
	}
	return New(h, Options{APIKey: testAPIKey, RateLimit: rateLimit, Metrics: metrics.New(reg), Gatherer: reg}, logger)
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t, config.RateLimitConfig{Enabled: false})

	tests := []struct {
		name           string
		method         string
		path           string
		apiKey         string
		expectedStatus int
	}{
		{name: "Health needs no key", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "Metrics needs no key", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "API requires key", method: http.MethodGet, path: "/api/orders/abc/items", expectedStatus: http.StatusUnauthorized},
		{name: "Order routes parse the ID", method: http.MethodGet, path: "/api/orders/abc/items", apiKey: testAPIKey, expectedStatus: http.StatusBadRequest},
		{name: "Summary route", method: http.MethodGet, path: "/api/orders/abc", apiKey: testAPIKey, expectedStatus: http.StatusBadRequest},
		{name: "Activate route", method: http.MethodPost, path: "/api/orders/abc/activate", apiKey: testAPIKey, expectedStatus: http.StatusBadRequest},
		{name: "Search route", method: http.MethodGet, path: "/api/orders/abc/products", apiKey: testAPIKey, expectedStatus: http.StatusBadRequest},
		{name: "Wrong method", method: http.MethodPut, path: "/api/order-items", apiKey: testAPIKey, expectedStatus: http.StatusMethodNotAllowed},
		{name: "Unknown route", method: http.MethodGet, path: "/api/unknown", apiKey: testAPIKey, expectedStatus: http.StatusNotFound},
		{name: "Preflight", method: http.MethodOptions, path: "/health", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRouter_RateLimitOnAPIOnly(t *testing.T) {
	r := newTestRouter(t, config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1})

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-API-Key", testAPIKey)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send("/api/orders/abc"))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/orders/abc"))
	assert.Equal(t, http.StatusOK, send("/health"))
}
