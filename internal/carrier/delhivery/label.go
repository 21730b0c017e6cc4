package delhivery

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/storefront/logistics/internal/core/domain"
)

// LabelOptions controls the packing slip format.
type LabelOptions struct {
	PDF     bool
	PDFSize string
}

// LabelResult carries either download links (JSON reply) or the document itself.
type LabelResult struct {
	ContentType string           `json:"content_type,omitempty"`
	Document    []byte           `json:"-"`
	Links       []string         `json:"links,omitempty"`
	Packages    []map[string]any `json:"packages,omitempty"`
	Raw         map[string]any   `json:"-"`
}

// GenerateShippingLabel fetches the packing slip for waybill.
func (c *Client) GenerateShippingLabel(ctx context.Context, waybill string, opts LabelOptions) (*LabelResult, error) {
	if strings.TrimSpace(waybill) == "" {
		return nil, domain.NewError(domain.KindValidation, "waybill is required").WithField("waybill")
	}
	q := url.Values{"wbns": {waybill}, "pdf": {strconv.FormatBool(opts.PDF)}}
	if opts.PDFSize != "" {
		q.Set("pdf_size", opts.PDFSize)
	}
	resp, err := c.do(ctx, request{
		op:     "label",
		method: http.MethodGet,
		path:   "/api/p/packing_slip",
		query:  q,
	})
	if err != nil {
		return nil, err
	}
	ct := strings.ToLower(resp.ContentType)
	if strings.Contains(ct, "application/pdf") || strings.Contains(ct, "octet-stream") {
		return &LabelResult{ContentType: resp.ContentType, Document: resp.Body}, nil
	}
	v, err := decodeBody("/api/p/packing_slip", resp)
	if err != nil {
		return nil, err
	}
	res := normalizeLabelResponse(v)
	res.ContentType = resp.ContentType
	return res, nil
}

// EwaybillUpdate attaches a GST e-waybill to a shipment.
type EwaybillUpdate struct {
	InvoiceNumber  string `json:"dcn"`
	EwaybillNumber string `json:"ewbn"`
}

// EwaybillResult is the normalised e-waybill reply.
type EwaybillResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Raw     map[string]any `json:"-"`
}

// UpdateEwaybill sends the e-waybill number for waybill.
func (c *Client) UpdateEwaybill(ctx context.Context, waybill string, upd EwaybillUpdate) (*EwaybillResult, error) {
	if strings.TrimSpace(waybill) == "" {
		return nil, domain.NewError(domain.KindValidation, "waybill is required").WithField("waybill")
	}
	if strings.TrimSpace(upd.EwaybillNumber) == "" {
		return nil, domain.NewError(domain.KindValidation, "e-waybill number is required").WithField("ewbn")
	}
	v, err := c.doJSON(ctx, request{
		op:     "update_ewaybill",
		method: http.MethodPut,
		path:   "/api/rest/ewaybill/" + url.PathEscape(waybill) + "/",
		body:   map[string]any{"data": []EwaybillUpdate{upd}},
	})
	if err != nil {
		return nil, err
	}
	return normalizeEwaybillResponse(v), nil
}
