package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthRequest(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	tests := []struct {
		name      string
		db, redis Pinger
		code      int
		status    string
		dbStatus  string
		redisStat string
	}{
		{"all up", up, up, http.StatusOK, "healthy", "up", "up"},
		{"no redis", up, nil, http.StatusOK, "healthy", "up", "disabled"},
		{"redis down", up, down, http.StatusOK, "degraded", "up", "down"},
		{"db down", down, up, http.StatusServiceUnavailable, "unhealthy", "down", "up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := healthRequest(t, NewHealthHandler("govfunds", "test", tt.db, tt.redis))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.dbStatus, body.DB)
			assert.Equal(t, tt.redisStat, body.Redis)
			assert.Equal(t, "govfunds", body.Service)
		})
	}
}
