package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
)

func render(t *testing.T, method string, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/v1/shipments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if method != http.MethodHead {
		if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
		}
	}
	return rec, body
}

func TestErrorHandler_DomainKinds(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.NewError(domain.KindValidation, "bad"), http.StatusBadRequest},
		{domain.ErrOrderNotFound, http.StatusNotFound},
		{domain.ErrDuplicateShipment, http.StatusConflict},
		{domain.NewError(domain.KindWeightLocked, "locked"), http.StatusUnprocessableEntity},
		{domain.NewError(domain.KindInsufficientBalance, "low"), http.StatusPaymentRequired},
		{domain.NewError(domain.KindInsufficientWaybills, "empty"), http.StatusServiceUnavailable},
		{domain.NewError(domain.KindCarrierTechnical, "down"), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", domain.ErrShipmentNotFound), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(string(domain.KindOf(tc.err)), func(t *testing.T) {
			rec, body := render(t, http.MethodGet, tc.err)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if body.Success || body.Kind != string(domain.KindOf(tc.err)) {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestErrorHandler_CarriesFieldAndSuggestion(t *testing.T) {
	err := domain.NewError(domain.KindCODMismatch, "cod must match").
		WithField("cod_amount").
		WithSuggestion("send the order total")
	_, body := render(t, http.MethodPost, err)
	if body.Field != "cod_amount" || body.Suggestion != "send the order total" || body.Error != "cod must match" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestErrorHandler_Sentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrUserExists, http.StatusConflict},
		{delhivery.ErrNotConfigured, http.StatusServiceUnavailable},
		{fmt.Errorf("call: %w", delhivery.ErrCircuitOpen), http.StatusServiceUnavailable},
		{&delhivery.APIError{StatusCode: 500, Endpoint: "/api/cmu/create.json"}, http.StatusBadGateway},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}
	for _, tc := range cases {
		rec, _ := render(t, http.MethodGet, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestErrorHandler_HidesUnexpectedErrors(t *testing.T) {
	rec, body := render(t, http.MethodGet, errors.New("mongo: connection refused at 10.0.0.4"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body.Error != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body.Error)
	}
}

func TestErrorHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := render(t, http.MethodHead, domain.ErrOrderNotFound)
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Body.String())
	}
}
