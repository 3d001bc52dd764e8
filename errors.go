package x402

import (
	"errors"
	"fmt"
)

// Standard x402 error definitions

var (
	// ErrInvalidCredential indicates missing or malformed wallet credential material.
	ErrInvalidCredential = errors.New("x402: invalid or missing credential material")

	// ErrTransport indicates a network-level failure during dispatch.
	ErrTransport = errors.New("x402: transport failure")

	// ErrProtocol indicates a malformed or schema-violating 402 challenge body.
	ErrProtocol = errors.New("x402: malformed payment challenge")

	// ErrNoOffer indicates a challenge whose offer list is empty.
	ErrNoOffer = errors.New("x402: challenge contains no offers")

	// ErrUnsupportedNetwork indicates an offer network alias not present in the registry.
	ErrUnsupportedNetwork = errors.New("x402: unsupported network")

	// ErrSpendCapExceeded indicates the offer's cost is above the caller's spend cap.
	ErrSpendCapExceeded = errors.New("x402: offer exceeds spend cap")

	// ErrSigningFailed indicates the signing capability could not produce a signature.
	ErrSigningFailed = errors.New("x402: payment signing failed")

	// ErrInvalidAmount indicates an amount that is not a decimal base-unit integer.
	ErrInvalidAmount = errors.New("x402: invalid amount")

	// ErrMalformedProof indicates a payment proof header that cannot be decoded.
	ErrMalformedProof = errors.New("x402: malformed payment proof")
)

// ErrorCode classifies a payment failure for batch reporting.
type ErrorCode string

const (
	// ErrCodeConfiguration covers missing or invalid credential material.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeTransport covers DNS, connection, and timeout failures on dispatch.
	ErrCodeTransport ErrorCode = "TRANSPORT"

	// ErrCodeProtocol covers malformed 402 challenge bodies.
	ErrCodeProtocol ErrorCode = "PROTOCOL"

	// ErrCodeNoOffer covers challenges with an empty offer list.
	ErrCodeNoOffer ErrorCode = "NO_OFFER"

	// ErrCodeUnsupportedNetwork covers offer networks outside the registry.
	ErrCodeUnsupportedNetwork ErrorCode = "UNSUPPORTED_NETWORK"

	// ErrCodeSpendCapExceeded covers offers priced above the caller's cap.
	ErrCodeSpendCapExceeded ErrorCode = "SPEND_CAP_EXCEEDED"

	// ErrCodeSigningFailed covers signing capability failures.
	ErrCodeSigningFailed ErrorCode = "SIGNING_FAILED"

	// ErrCodeUnknown covers failures outside the payment taxonomy.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// PaymentError carries a classified payment failure with optional context.
type PaymentError struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error

	// Details carries structured diagnostic context.
	Details map[string]interface{}
}

// NewPaymentError creates a PaymentError with an initialized details map.
func NewPaymentError(code ErrorCode, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a diagnostic key/value pair and returns the error for chaining.
func (e *PaymentError) WithDetails(key string, value interface{}) *PaymentError {
	e.Details[key] = value
	return e
}

// Classify maps an error to its ErrorCode for batch result records.
// Non-payment errors classify as ErrCodeUnknown.
func Classify(err error) ErrorCode {
	var paymentErr *PaymentError
	if errors.As(err, &paymentErr) {
		return paymentErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidCredential):
		return ErrCodeConfiguration
	case errors.Is(err, ErrTransport):
		return ErrCodeTransport
	case errors.Is(err, ErrProtocol), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMalformedProof):
		return ErrCodeProtocol
	case errors.Is(err, ErrNoOffer):
		return ErrCodeNoOffer
	case errors.Is(err, ErrUnsupportedNetwork):
		return ErrCodeUnsupportedNetwork
	case errors.Is(err, ErrSpendCapExceeded):
		return ErrCodeSpendCapExceeded
	case errors.Is(err, ErrSigningFailed):
		return ErrCodeSigningFailed
	default:
		return ErrCodeUnknown
	}
}
