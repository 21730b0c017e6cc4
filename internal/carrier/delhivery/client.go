// Package delhivery is the HTTP client for the Delhivery logistics API.
//
// The client owns request construction, circuit breaking and the normalisation
// of the carrier's inconsistent response shapes. It never reads global state:
// everything it needs is passed to New.
package delhivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/storefront/logistics/internal/pkg/metrics"
)

const (
	DefaultBaseURL           = "https://track.delhivery.com"
	DefaultTimeout           = 30 * time.Second
	DefaultWaybillBatchSize  = 10000
	DefaultWaybillBatchDelay = 2 * time.Second

	minTokenLength = 16
	maxBodyBytes   = 10 << 20
)

var (
	// ErrNotConfigured is returned by every call when no usable API token is set.
	ErrNotConfigured = errors.New("delhivery: api token not configured")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("delhivery: circuit breaker open")
)

// APIError is a transport-level failure: non-2xx status or a body that is not
// the JSON the endpoint promises.
type APIError struct {
	StatusCode int
	Body       string
	Endpoint   string
	HTML       bool
}

func (e *APIError) Error() string {
	switch {
	case e.HTML:
		return fmt.Sprintf("delhivery %s: HTTP %d: unexpected HTML response", e.Endpoint, e.StatusCode)
	case e.Body != "":
		return fmt.Sprintf("delhivery %s: HTTP %d: %s", e.Endpoint, e.StatusCode, truncate(e.Body, 300))
	default:
		return fmt.Sprintf("delhivery %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
}

// NotFound reports a 404 from the carrier itself. HTML 404 pages come from
// gateways or a wrong base URL and do not count.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound && !e.HTML
}

// Config holds everything the client needs. Zero values fall back to defaults.
type Config struct {
	BaseURL             string
	Token               string
	Timeout             time.Duration
	WaybillBatchSize    int
	WaybillBatchDelay   time.Duration
	WarehouseProbePaths []string
	HTTPClient          *http.Client
}

// Client talks to the Delhivery API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	batchSize  int
	batchDelay time.Duration
	probePaths []string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	probes     *gobreaker.CircuitBreaker
	log        zerolog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// New builds a client from cfg.
func New(cfg Config, log zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	batchSize := cfg.WaybillBatchSize
	if batchSize <= 0 {
		batchSize = DefaultWaybillBatchSize
	}
	batchDelay := cfg.WaybillBatchDelay
	if batchDelay < 0 {
		batchDelay = DefaultWaybillBatchDelay
	}
	probePaths := cfg.WarehouseProbePaths
	if len(probePaths) == 0 {
		probePaths = DefaultWarehouseProbePaths
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		batchSize:  batchSize,
		batchDelay: batchDelay,
		probePaths: probePaths,
		httpClient: httpClient,
		log:        log,
		now:        time.Now,
		sleep:      sleepContext,
	}
	c.breaker = newBreaker("delhivery", log)
	c.probes = newBreaker("delhivery-probe", log)
	return c
}

func newBreaker(name string, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests >= 20 {
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		// Client errors are answers from a healthy carrier and must not trip the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
			}
			return false
		},
	})
}

// Configured reports whether the token looks usable. Calls on an unconfigured
// client fail fast with ErrNotConfigured.
func (c *Client) Configured() bool {
	return validToken(c.token)
}

func validToken(token string) bool {
	if len(token) < minTokenLength || strings.ContainsAny(token, " \t\r\n") {
		return false
	}
	lower := strings.ToLower(token)
	for _, placeholder := range []string{"your", "xxxx", "changeme", "placeholder", "token_here", "replace"} {
		if strings.Contains(lower, placeholder) {
			return false
		}
	}
	return true
}

// request describes one call to the carrier.
type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	form     url.Values
	body     any
	tokenArg bool
	// probe requests guess at endpoints and use their own breaker.
	probe    bool
}

// response is a fully read carrier reply.
type response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (r *response) isHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html") || looksLikeHTML(r.Body)
}

// do sends req through the circuit breaker. Non-2xx replies become *APIError.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	breaker := c.breaker
	if req.probe {
		breaker = c.probes
	}
	start := time.Now()
	out, err := breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, req)
	})
	metrics.CarrierRequestDuration.WithLabelValues(req.op).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CarrierRequestsTotal.WithLabelValues(req.op, "circuit_open").Inc()
		c.log.Warn().Str("operation", req.op).Msg("carrier call rejected by circuit breaker")
		return nil, ErrCircuitOpen
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			metrics.CarrierRequestsTotal.WithLabelValues(req.op, "http_error").Inc()
		} else {
			metrics.CarrierRequestsTotal.WithLabelValues(req.op, "transport_error").Inc()
		}
		return nil, err
	}
	metrics.CarrierRequestsTotal.WithLabelValues(req.op, "ok").Inc()
	return out.(*response), nil
}

func (c *Client) roundTrip(ctx context.Context, req request) (*response, error) {
	endpoint := c.baseURL + req.path
	query := url.Values{}
	for k, v := range req.query {
		query[k] = v
	}
	if req.tokenArg {
		query.Set("token", c.token)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("delhivery %s: encode request: %w", req.path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("delhivery %s: build request: %w", req.path, err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.token)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("delhivery %s: %w", req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("delhivery %s: read response: %w", req.path, err)
	}
	out := &response{StatusCode: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: raw}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Endpoint:   req.path,
			HTML:       out.isHTML(),
		}
	}
	return out, nil
}

// doJSON performs req and decodes the reply into an untyped JSON value. HTML
// pages and undecodable bodies are reported as *APIError.
func (c *Client) doJSON(ctx context.Context, req request) (any, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeBody(req.path, resp)
}

func decodeBody(path string, resp *response) (any, error) {
	if resp.isHTML() {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: path, HTML: true}
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return map[string]any{}, nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: path}
	}
	return v, nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<head>") || strings.Contains(head, "<body")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
