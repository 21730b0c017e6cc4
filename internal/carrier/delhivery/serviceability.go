package delhivery

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/storefront/logistics/internal/core/domain"
)

const (
	RemarkNonServiceable = "Non-serviceable zone (NSZ)"
	RemarkEmbargo        = "Embargo"
	remarkCheckFailed    = "Serviceability check unavailable; assuming serviceable"
)

// Serviceability is the carrier's verdict on a destination pincode.
type Serviceability struct {
	Pincode     string `json:"pincode"`
	Serviceable bool   `json:"serviceable"`
	Embargo     bool   `json:"embargo"`
	Remark      string `json:"remark"`
	City        string `json:"city,omitempty"`
	District    string `json:"district,omitempty"`
	State       string `json:"state,omitempty"`
	COD         bool   `json:"cod"`
	Prepaid     bool   `json:"prepaid"`
	Pickup      bool   `json:"pickup"`
	Replacement bool   `json:"replacement"`
	ODA         bool   `json:"oda"`
	// FailOpen is set when the check could not reach the carrier.
	FailOpen bool `json:"fail_open,omitempty"`
}

// HeavyServiceability is the verdict for heavy-goods shipments.
type HeavyServiceability struct {
	Pincode      string   `json:"pincode"`
	Serviceable  bool     `json:"serviceable"`
	PaymentTypes []string `json:"payment_types,omitempty"`
	Remark       string   `json:"remark,omitempty"`
	FailOpen     bool     `json:"fail_open,omitempty"`
}

// CheckPincodeServiceability reports whether the carrier delivers to pincode.
// Transport failures fail open so an unrelated flow is never blocked.
func (c *Client) CheckPincodeServiceability(ctx context.Context, pincode string) (Serviceability, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return Serviceability{}, domain.NewError(domain.KindValidation, "pincode is required").WithField("pincode")
	}
	v, err := c.doJSON(ctx, request{
		op:     "pincode_serviceability",
		method: http.MethodGet,
		path:   "/c/api/pin-codes/json/",
		query:  url.Values{"filter_codes": {pincode}},
	})
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return Serviceability{}, err
		}
		c.log.Warn().Err(err).Str("pincode", pincode).Msg("serviceability check failed, failing open")
		return Serviceability{Pincode: pincode, Serviceable: true, COD: true, Prepaid: true, Remark: remarkCheckFailed, FailOpen: true}, nil
	}
	return normalizeServiceability(pincode, v), nil
}

// CheckHeavyServiceability reports heavy-goods serviceability. It fails open like
// CheckPincodeServiceability.
func (c *Client) CheckHeavyServiceability(ctx context.Context, pincode string) (HeavyServiceability, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return HeavyServiceability{}, domain.NewError(domain.KindValidation, "pincode is required").WithField("pincode")
	}
	v, err := c.doJSON(ctx, request{
		op:     "heavy_serviceability",
		method: http.MethodGet,
		path:   "/api/dc/fetch/serviceability/pincode",
		query:  url.Values{"product_type": {"Heavy"}, "pincode": {pincode}},
	})
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return HeavyServiceability{}, err
		}
		c.log.Warn().Err(err).Str("pincode", pincode).Msg("heavy serviceability check failed, failing open")
		return HeavyServiceability{Pincode: pincode, Serviceable: true, Remark: remarkCheckFailed, FailOpen: true}, nil
	}
	return normalizeHeavyServiceability(pincode, v), nil
}
