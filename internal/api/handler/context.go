package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/core/domain"
)

// envelope is the success body of every /v1 endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Success: true, Data: data})
}

// ctxClaims extracts the auth claims injected by the Auth middleware and
// fails fast before any service call. Vendor tokens must carry a vendor id.
func ctxClaims(c echo.Context) (role, vendorID string, err error) {
	role, _ = c.Get("role").(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	vendorID, _ = c.Get("vendor_id").(string)
	if role == domain.RoleVendor && vendorID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing vendor identity")
	}

	return role, vendorID, nil
}

// bindAndValidate binds the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewError(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return domain.NewError(domain.KindValidation, err.Error())
	}
	return nil
}

func queryInt(c echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return v
	}
	return def
}

// queryDate accepts RFC 3339 or a plain YYYY-MM-DD.
func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Errorf(domain.KindValidation, "%s must be a date (YYYY-MM-DD)", name).WithField(name)
}
