// Package http drives payment-gated HTTP requests: a status-agnostic
// dispatcher and the single-retry orchestration around 402 challenges.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"strings"

	"github.com/wirepay/x402"
)

// Dispatcher issues HTTP requests and returns every status as a normal,
// inspectable outcome. Only transport-level failures (DNS, connection,
// timeout) surface as errors.
type Dispatcher struct {
	base *nethttp.Client
}

// NewDispatcher wraps an HTTP client. A nil client uses http.DefaultClient.
func NewDispatcher(client *nethttp.Client) *Dispatcher {
	if client == nil {
		client = nethttp.DefaultClient
	}
	return &Dispatcher{base: client}
}

// Response is the outcome of one dispatch: status, headers, and the fully
// read body. A 402 status is an expected, inspectable result, not an error.
type Response struct {
	StatusCode int
	Header     nethttp.Header
	Body       []byte
}

// Send issues one request. Non-2xx statuses, 402 included, pass through as
// successful dispatches.
func (d *Dispatcher) Send(ctx context.Context, method, url string, header nethttp.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeTransport, "failed to build request", fmt.Errorf("%w: %v", x402.ErrTransport, err))
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := d.base.Do(req)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeTransport, "request dispatch failed", fmt.Errorf("%w: %v", x402.ErrTransport, err)).
			WithDetails("url", url).
			WithDetails("method", method)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeTransport, "failed to read response body", fmt.Errorf("%w: %v", x402.ErrTransport, err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       payload,
	}, nil
}

// IsJSON reports whether the response declares a JSON content type.
func (r *Response) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// JSON decodes the body into v when the response declares a JSON content
// type; structured decoding is opt-in for the caller.
func (r *Response) JSON(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("response content type %q is not JSON", r.Header.Get("Content-Type"))
	}
	return json.Unmarshal(r.Body, v)
}
