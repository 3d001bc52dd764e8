package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wirepay/x402"
	"github.com/wirepay/x402/encoding"
	"github.com/wirepay/x402/logger"
	"github.com/wirepay/x402/metrics"
)

// PaymentHeader carries the encoded payment proof on the retried request.
const PaymentHeader = "X-PAYMENT"

// Request describes one payment-gated HTTP request. Each Request is owned by
// a single Do invocation and never shared across concurrent calls.
type Request struct {
	// URL is the target resource.
	URL string

	// Method defaults to GET.
	Method string

	// Header carries caller-supplied headers, merged into both attempts.
	Header nethttp.Header

	// Body is the request payload for both attempts.
	Body []byte

	// Network optionally pre-selects the network alias used for chain
	// resolution instead of trusting the challenge's offer.
	Network string

	// SpendCapUSD is the maximum the caller will pay for this request.
	// A zero value falls back to the client's configured cap.
	SpendCapUSD decimal.Decimal
}

// Result is the terminal outcome of one orchestrated request. Payment is nil
// unless an authorization was signed and the paid retry was not challenged
// again.
type Result struct {
	StatusCode int                  `json:"statusCode"`
	Header     nethttp.Header       `json:"-"`
	Body       []byte               `json:"-"`
	Payment    *x402.PaymentReceipt `json:"_x402Payment,omitempty"`
}

// Client orchestrates the challenge/response sequence: dispatch, detect 402,
// parse, guard, sign, encode, and re-dispatch exactly once.
type Client struct {
	dispatcher *Dispatcher
	registry   *x402.Registry
	guard      *x402.SpendGuard
	signer     x402.AuthorizationSigner
	spendCap   decimal.Decimal
	log        logger.Logger
	metrics    metrics.Recorder
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// NewClient creates a payment-enabled HTTP client around a signer.
func NewClient(signer x402.AuthorizationSigner, opts ...ClientOption) (*Client, error) {
	if signer == nil {
		return nil, x402.NewPaymentError(x402.ErrCodeConfiguration, "authorization signer is required", x402.ErrInvalidCredential)
	}

	c := &Client{
		dispatcher: NewDispatcher(nil),
		registry:   x402.NewRegistry(),
		guard:      x402.NewSpendGuard(),
		signer:     signer,
		log:        logger.Noop{},
		metrics:    metrics.Noop{},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithHTTPClient sets the underlying HTTP client for both attempts.
func WithHTTPClient(client *nethttp.Client) ClientOption {
	return func(c *Client) error {
		c.dispatcher = NewDispatcher(client)
		return nil
	}
}

// WithRegistry injects a custom network registry.
func WithRegistry(registry *x402.Registry) ClientOption {
	return func(c *Client) error {
		c.registry = registry
		return nil
	}
}

// WithSpendCap sets the default per-request spend cap in USD, used when a
// request does not carry its own.
func WithSpendCap(capUSD decimal.Decimal) ClientOption {
	return func(c *Client) error {
		c.spendCap = capUSD
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(log logger.Logger) ClientOption {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) ClientOption {
	return func(c *Client) error {
		c.metrics = recorder
		return nil
	}
}

// Do runs the full sequence for one request. Non-402 first responses return
// as-is with no payment metadata. A 402 triggers parse, first-offer
// selection, network resolution, the spend guard (always before signing),
// signing, proof encoding, and a single retry. A second 402 is returned
// unmodified; the orchestrator never retries a rejected payment.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	method := req.Method
	if method == "" {
		method = nethttp.MethodGet
	}

	first, err := c.dispatcher.Send(ctx, method, req.URL, req.Header, req.Body)
	if err != nil {
		return nil, err
	}

	if first.StatusCode != nethttp.StatusPaymentRequired {
		return &Result{StatusCode: first.StatusCode, Header: first.Header, Body: first.Body}, nil
	}

	challenge, err := x402.ParseChallenge(first.Body)
	if err != nil {
		return nil, err
	}

	offer, err := challenge.FirstOffer()
	if err != nil {
		return nil, err
	}

	alias := offer.Network
	if req.Network != "" {
		alias = req.Network
	}

	chain, err := c.registry.Resolve(alias)
	if err != nil {
		return nil, err
	}

	capUSD := req.SpendCapUSD
	if capUSD.IsZero() {
		capUSD = c.spendCap
	}

	// The guard hard-fails before any signing occurs.
	cost, err := c.guard.Check(offer, capUSD)
	if err != nil {
		c.metrics.IncCounter("payment_declined", map[string]string{"network": chain.Name})
		return nil, err
	}

	c.log.Info("payment challenge accepted", map[string]any{
		"url":     req.URL,
		"network": chain.Name,
		"costUsd": c.guard.FormatFiat(cost),
		"payTo":   offer.PayTo,
	})
	c.metrics.IncCounter("payment_attempt", map[string]string{"network": chain.Name})

	started := time.Now()

	auth, err := c.signer.Sign(offer, chain)
	if err != nil {
		c.metrics.IncCounter("payment_failed", map[string]string{"network": chain.Name})
		return nil, err
	}

	proof := x402.NewPaymentProof(challenge, offer, auth)
	headerValue, err := encoding.EncodeProof(proof)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigningFailed, "failed to encode payment proof", err)
	}

	retryHeader := req.Header.Clone()
	if retryHeader == nil {
		retryHeader = nethttp.Header{}
	}
	retryHeader.Set(PaymentHeader, headerValue)

	second, err := c.dispatcher.Send(ctx, method, req.URL, retryHeader, req.Body)
	if err != nil {
		c.metrics.IncCounter("payment_failed", map[string]string{"network": chain.Name})
		return nil, err
	}

	c.metrics.ObserveLatency("paid_request", time.Since(started), map[string]string{"network": chain.Name})

	result := &Result{StatusCode: second.StatusCode, Header: second.Header, Body: second.Body}

	if second.StatusCode == nethttp.StatusPaymentRequired {
		// Payment rejected: the second 402 is terminal and unmodified.
		c.log.Warn("paid retry challenged again", map[string]any{"url": req.URL, "network": chain.Name})
		c.metrics.IncCounter("payment_rejected", map[string]string{"network": chain.Name})
		return result, nil
	}

	result.Payment = &x402.PaymentReceipt{
		Amount:    c.guard.FormatFiat(cost),
		AmountRaw: auth.Amount,
		Network:   chain.Name,
		ChainID:   chain.ID,
		Asset:     auth.Asset,
		AssetName: offer.DomainName(),
		Recipient: auth.Recipient,
		Payer:     auth.Payer,
		Status:    "paid",
		Signature: proof.Signature,
	}

	c.log.Info("payment completed", map[string]any{
		"url":     req.URL,
		"network": chain.Name,
		"status":  second.StatusCode,
		"payer":   auth.Payer,
	})
	c.metrics.IncCounter("payment_paid", map[string]string{"network": chain.Name})

	return result, nil
}
