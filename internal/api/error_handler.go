package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain error
// kinds to status codes, logs unexpected errors without leaking them, and
// renders errorResponse.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:             http.StatusBadRequest,
	domain.KindOrderNotFound:          http.StatusNotFound,
	domain.KindShipmentNotFound:       http.StatusNotFound,
	domain.KindWarehouseNotFound:      http.StatusNotFound,
	domain.KindWaybillNotFound:        http.StatusNotFound,
	domain.KindInvalidOrderStatus:     http.StatusConflict,
	domain.KindDuplicateShipment:      http.StatusConflict,
	domain.KindWarehouseExists:        http.StatusConflict,
	domain.KindUnreconciledDuplicate:  http.StatusConflict,
	domain.KindInvalidTransition:      http.StatusConflict,
	domain.KindEditNotAllowed:         http.StatusUnprocessableEntity,
	domain.KindWeightLocked:           http.StatusUnprocessableEntity,
	domain.KindPaymentModeConversion:  http.StatusUnprocessableEntity,
	domain.KindCODMismatch:            http.StatusUnprocessableEntity,
	domain.KindCancelNotAllowed:       http.StatusUnprocessableEntity,
	domain.KindWarehouseNotRegistered: http.StatusUnprocessableEntity,
	domain.KindCarrierRejected:        http.StatusUnprocessableEntity,
	domain.KindInsufficientBalance:    http.StatusPaymentRequired,
	domain.KindInsufficientWaybills:   http.StatusServiceUnavailable,
	domain.KindCarrierNotConfigured:   http.StatusServiceUnavailable,
	domain.KindCarrierTechnical:       http.StatusBadGateway,
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		code, ok := kindStatus[de.Kind]
		if !ok {
			code = http.StatusInternalServerError
		}
		if code >= http.StatusInternalServerError {
			log.Warn().Err(err).Str("kind", string(de.Kind)).Str("path", c.Path()).Msg("request failed")
		}
		return code, errorResponse{
			Error:      de.Message,
			Kind:       string(de.Kind),
			Field:      de.Field,
			Suggestion: de.Suggestion,
		}
	}

	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists"}
	case errors.Is(err, delhivery.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorResponse{Error: "carrier is not configured", Kind: string(domain.KindCarrierNotConfigured)}
	case errors.Is(err, delhivery.ErrCircuitOpen):
		return http.StatusServiceUnavailable, errorResponse{Error: "carrier temporarily unavailable", Kind: string(domain.KindCarrierTechnical)}
	}

	var ae *delhivery.APIError
	if errors.As(err, &ae) {
		log.Warn().Err(err).Int("carrier_status", ae.StatusCode).Str("path", c.Path()).Msg("carrier call failed")
		return http.StatusBadGateway, errorResponse{Error: "carrier request failed", Kind: string(domain.KindCarrierTechnical)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
