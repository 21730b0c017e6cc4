package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/logistics/internal/core/domain"
)

const routerSecret = "router-test-secret"

func signToken(t *testing.T, role, vendorID string) string {
	t.Helper()
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username":  "op-" + role,
		"role":      role,
		"vendor_id": vendorID,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	s, err := tkn.SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return s
}

// NewRouter registers prometheus collectors on the default registry, so the
// router is built once for all subtests.
func TestRouter(t *testing.T) {
	e := NewRouter(Dependencies{JWTSecret: routerSecret, Log: zerolog.Nop()})

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	admin := signToken(t, domain.RoleAdmin, "")
	vendor := signToken(t, domain.RoleVendor, "v-42")

	t.Run("liveness is public", func(t *testing.T) {
		rec := do(http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("metrics are public", func(t *testing.T) {
		do(http.MethodGet, "/health", "")
		rec := do(http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "logistics_requests_total")
	})

	t.Run("v1 requires a token", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})

	t.Run("me echoes the token identity", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/me", vendor)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"success":true,"data":{"username":"op-vendor","role":"vendor","vendor_id":"v-42"}}`,
			rec.Body.String())
	})

	t.Run("waybill pool is admin only", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/waybills/stats", vendor)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("scan ingestion is admin only", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/events", vendor)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("manual status is admin only", func(t *testing.T) {
		rec := do(http.MethodPut, "/v1/shipments/waybill/WB1/status", vendor)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/nowhere", admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
