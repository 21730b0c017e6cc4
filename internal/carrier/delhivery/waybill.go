package delhivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// InsufficientWaybillsError reports a batch that returned fewer waybills than asked.
type InsufficientWaybillsError struct {
	Requested int
	Received  int
	Collected []string
}

func (e *InsufficientWaybillsError) Error() string {
	return fmt.Sprintf("delhivery: insufficient waybills: requested %d, received %d", e.Requested, e.Received)
}

// GenerateWaybills obtains count fresh waybills. One waybill uses the single
// fetch endpoint, up to the batch size uses one bulk call, and anything larger
// is split into sequential bulk calls separated by the configured delay.
func (c *Client) GenerateWaybills(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if count == 1 {
		return c.fetchSingleWaybill(ctx)
	}

	out := make([]string, 0, count)
	for remaining, batch := count, 0; remaining > 0; batch++ {
		if batch > 0 {
			if err := c.sleep(ctx, c.batchDelay); err != nil {
				return out, err
			}
		}
		size := min(remaining, c.batchSize)
		got, err := c.fetchBulkWaybills(ctx, size)
		if err != nil {
			return out, err
		}
		if len(got) < size {
			out = append(out, got...)
			return out, &InsufficientWaybillsError{Requested: size, Received: len(got), Collected: out}
		}
		out = append(out, got[:size]...)
		remaining -= size
		c.log.Debug().Int("batch", batch).Int("size", size).Int("remaining", remaining).Msg("waybill batch fetched")
	}
	return out, nil
}

func (c *Client) fetchSingleWaybill(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, request{
		op:       "fetch_waybill",
		method:   http.MethodGet,
		path:     "/waybill/api/fetch/json/",
		tokenArg: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.isHTML() {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: "/waybill/api/fetch/json/", HTML: true}
	}
	got := normalizeWaybills(resp.Body)
	if len(got) == 0 {
		return nil, &InsufficientWaybillsError{Requested: 1, Received: 0}
	}
	return got[:1], nil
}

func (c *Client) fetchBulkWaybills(ctx context.Context, count int) ([]string, error) {
	resp, err := c.do(ctx, request{
		op:       "bulk_waybills",
		method:   http.MethodGet,
		path:     "/waybill/api/bulk/json/",
		query:    url.Values{"count": {strconv.Itoa(count)}},
		tokenArg: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.isHTML() {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: "/waybill/api/bulk/json/", HTML: true}
	}
	return normalizeWaybills(resp.Body), nil
}
