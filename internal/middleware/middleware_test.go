package middleware_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/SscSPs/booking_settlement/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "middleware-secret"
	issuer = "settlement-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAuthRouter(roles ...domain.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{middleware.AuthMiddleware(secret, issuer)}
	if len(roles) > 0 {
		handlers = append(handlers, middleware.RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		caller, ok := middleware.GetCallerFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": caller.ID, "role": caller.Role})
	})
	r.GET("/protected", handlers...)
	return r
}

func serve(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func mustToken(t *testing.T, caller domain.Caller, key string, expiry time.Duration, iss string) string {
	t.Helper()
	token, err := utils.GenerateCallerJWT(caller, key, expiry, iss)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	host := domain.Caller{ID: "host-1", Role: domain.RoleHost}

	tests := []struct {
		name        string
		header      string
		wantMessage string
	}{
		{"missing header", "", "Authorization header required"},
		{"wrong scheme", "Basic abc", "Authorization header format must be Bearer {token}"},
		{"garbage token", "Bearer not-a-jwt", "Invalid token"},
		{"wrong secret", "Bearer " + mustToken(t, host, "other-secret", time.Hour, issuer), "Invalid token"},
		{"expired", "Bearer " + mustToken(t, host, secret, -time.Minute, issuer), "Token has expired"},
		{"wrong issuer", "Bearer " + mustToken(t, host, secret, time.Hour, "someone-else"), "Invalid token"},
		{"unknown role", "Bearer " + mustToken(t, domain.Caller{ID: "x", Role: "PIRATE"}, secret, time.Hour, issuer), "Invalid token claims"},
		{"missing subject", "Bearer " + mustToken(t, domain.Caller{Role: domain.RoleGuest}, secret, time.Hour, issuer), "Invalid token claims"},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "Unauthenticated", body.Error.Kind)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestAuthMiddleware_SetsCaller(t *testing.T) {
	r := newAuthRouter()
	token := mustToken(t, domain.Caller{ID: "guest-7", Role: domain.RoleGuest}, secret, time.Hour, issuer)

	w := serve(r, "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "guest-7", got["id"])
	assert.Equal(t, "GUEST", got["role"])
}

func TestRequireRoles(t *testing.T) {
	r := newAuthRouter(domain.RoleAdmin, domain.RoleSystem)

	w := serve(r, "Bearer "+mustToken(t, domain.Caller{ID: "host-1", Role: domain.RoleHost}, secret, time.Hour, issuer))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NotAuthorized", decodeError(t, w).Error.Kind)

	w = serve(r, "Bearer "+mustToken(t, domain.Caller{ID: "admin-1", Role: domain.RoleAdmin}, secret, time.Hour, issuer))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/protected", middleware.RequireRoles(domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter, err := middleware.NewRateLimiter("2-M", nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RateLimit(limiter))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RateLimited", decodeError(t, last).Error.Kind)
}

func TestNewRateLimiter_InvalidRate(t *testing.T) {
	_, err := middleware.NewRateLimiter("lots", nil)
	assert.Error(t, err)
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, middleware.GetLoggerFromCtx(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
