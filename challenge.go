package x402

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var offerValidator = validator.New()

// ParseChallenge validates a 402 response body against the challenge schema.
// A missing body, a body that is not a JSON object, or an absent/non-array
// accepts field is a protocol error, never "no payment needed". An empty
// accepts array parses successfully; selecting from it fails with a
// no-offer error.
func ParseChallenge(raw []byte) (*PaymentChallenge, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, NewPaymentError(ErrCodeProtocol, "challenge body is empty", ErrProtocol)
	}

	var probe struct {
		X402Version int             `json:"x402Version"`
		Error       string          `json:"error"`
		Accepts     json.RawMessage `json:"accepts"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, NewPaymentError(ErrCodeProtocol, "challenge body is not a JSON object", fmt.Errorf("%w: %v", ErrProtocol, err))
	}

	accepts := bytes.TrimSpace(probe.Accepts)
	if len(accepts) == 0 || bytes.Equal(accepts, []byte("null")) {
		return nil, NewPaymentError(ErrCodeProtocol, "challenge has no accepts field", ErrProtocol)
	}

	var offers []PaymentOffer
	if err := json.Unmarshal(accepts, &offers); err != nil {
		return nil, NewPaymentError(ErrCodeProtocol, "accepts field is not a sequence of offers", fmt.Errorf("%w: %v", ErrProtocol, err))
	}

	for i := range offers {
		if err := offerValidator.Struct(&offers[i]); err != nil {
			return nil, NewPaymentError(ErrCodeProtocol, "offer fails schema validation", fmt.Errorf("%w: %v", ErrProtocol, err)).
				WithDetails("offerIndex", i)
		}
		if _, err := offers[i].Amount(); err != nil {
			return nil, err
		}
	}

	return &PaymentChallenge{
		X402Version: probe.X402Version,
		Error:       probe.Error,
		Accepts:     offers,
	}, nil
}

// FirstOffer returns the challenge's first offer. Selection is deterministic;
// no price or network preference is applied.
func (c *PaymentChallenge) FirstOffer() (*PaymentOffer, error) {
	if len(c.Accepts) == 0 {
		return nil, NewPaymentError(ErrCodeNoOffer, "challenge offer list is empty", ErrNoOffer)
	}
	return &c.Accepts[0], nil
}
