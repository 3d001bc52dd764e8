package x402

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"InvalidCredential", ErrInvalidCredential, "x402: invalid or missing credential material"},
		{"Transport", ErrTransport, "x402: transport failure"},
		{"Protocol", ErrProtocol, "x402: malformed payment challenge"},
		{"NoOffer", ErrNoOffer, "x402: challenge contains no offers"},
		{"UnsupportedNetwork", ErrUnsupportedNetwork, "x402: unsupported network"},
		{"SpendCapExceeded", ErrSpendCapExceeded, "x402: offer exceeds spend cap"},
		{"SigningFailed", ErrSigningFailed, "x402: payment signing failed"},
		{"InvalidAmount", ErrInvalidAmount, "x402: invalid amount"},
		{"MalformedProof", ErrMalformedProof, "x402: malformed payment proof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error message mismatch: got %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestPaymentError_Creation(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
		err     error
	}{
		{"spend cap exceeded", ErrCodeSpendCapExceeded, "offer too expensive", ErrSpendCapExceeded},
		{"protocol error", ErrCodeProtocol, "body is not an object", ErrProtocol},
		{"signing failure", ErrCodeSigningFailed, "capability failed", ErrSigningFailed},
		{"without underlying cause", ErrCodeNoOffer, "custom message", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paymentErr := NewPaymentError(tt.code, tt.message, tt.err)

			if paymentErr.Code != tt.code {
				t.Errorf("Code = %v, want %v", paymentErr.Code, tt.code)
			}
			if paymentErr.Message != tt.message {
				t.Errorf("Message = %v, want %v", paymentErr.Message, tt.message)
			}
			if paymentErr.Err != tt.err {
				t.Errorf("Err = %v, want %v", paymentErr.Err, tt.err)
			}
			if paymentErr.Details == nil {
				t.Error("Details map should be initialized")
			}
		})
	}
}

func TestPaymentError_ErrorMessage(t *testing.T) {
	withCause := NewPaymentError(ErrCodeSigningFailed, "signature generation failed", errors.New("bad key"))
	msg := withCause.Error()
	if !strings.Contains(msg, "signature generation failed") || !strings.Contains(msg, "bad key") {
		t.Errorf("Error() = %q, want message and cause", msg)
	}

	withoutCause := NewPaymentError(ErrCodeNoOffer, "no offers present", nil)
	if withoutCause.Error() != "no offers present" {
		t.Errorf("Error() = %q, want bare message", withoutCause.Error())
	}
}

func TestPaymentError_WithDetails(t *testing.T) {
	paymentErr := NewPaymentError(ErrCodeSpendCapExceeded, "too expensive", ErrSpendCapExceeded).
		WithDetails("costUsd", "0.20").
		WithDetails("spendCapUsd", "0.10")

	if len(paymentErr.Details) != 2 {
		t.Fatalf("Details length = %d, want 2", len(paymentErr.Details))
	}
	if paymentErr.Details["costUsd"] != "0.20" {
		t.Errorf("Details[costUsd] = %v, want 0.20", paymentErr.Details["costUsd"])
	}

	// Overwrite keeps the latest value.
	paymentErr.WithDetails("costUsd", "0.25")
	if paymentErr.Details["costUsd"] != "0.25" {
		t.Errorf("Details[costUsd] = %v, want 0.25", paymentErr.Details["costUsd"])
	}
}

func TestPaymentError_Unwrap(t *testing.T) {
	paymentErr := NewPaymentError(ErrCodeTransport, "dispatch failed", ErrTransport)

	if !errors.Is(paymentErr, ErrTransport) {
		t.Error("errors.Is should match the wrapped sentinel")
	}
	if errors.Is(paymentErr, ErrProtocol) {
		t.Error("errors.Is should not match a different sentinel")
	}

	bare := NewPaymentError(ErrCodeNoOffer, "empty", nil)
	if bare.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", bare.Unwrap())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"payment error code wins", NewPaymentError(ErrCodeSpendCapExceeded, "m", nil), ErrCodeSpendCapExceeded},
		{"wrapped payment error", fmt.Errorf("outer: %w", NewPaymentError(ErrCodeProtocol, "m", nil)), ErrCodeProtocol},
		{"configuration sentinel", fmt.Errorf("wrap: %w", ErrInvalidCredential), ErrCodeConfiguration},
		{"transport sentinel", ErrTransport, ErrCodeTransport},
		{"protocol sentinel", ErrProtocol, ErrCodeProtocol},
		{"invalid amount maps to protocol", ErrInvalidAmount, ErrCodeProtocol},
		{"no offer sentinel", ErrNoOffer, ErrCodeNoOffer},
		{"unsupported network sentinel", ErrUnsupportedNetwork, ErrCodeUnsupportedNetwork},
		{"spend cap sentinel", ErrSpendCapExceeded, ErrCodeSpendCapExceeded},
		{"signing sentinel", ErrSigningFailed, ErrCodeSigningFailed},
		{"unknown error", errors.New("something else"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}
