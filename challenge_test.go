package x402

import (
	"encoding/json"
	"errors"
	"testing"
)

const validChallengeBody = `{
	"x402Version": 1,
	"error": "Payment required",
	"accepts": [{
		"scheme": "exact",
		"network": "base-sepolia",
		"maxAmountRequired": "50000",
		"resource": "https://api.example.com/premium",
		"description": "Premium data",
		"mimeType": "application/json",
		"payTo": "0xAA00000000000000000000000000000000000001",
		"maxTimeoutSeconds": 30,
		"asset": "0xBB00000000000000000000000000000000000002",
		"extra": {"name": "USDC", "version": "2"}
	}]
}`

func TestParseChallengeValid(t *testing.T) {
	challenge, err := ParseChallenge([]byte(validChallengeBody))
	if err != nil {
		t.Fatalf("ParseChallenge error: %v", err)
	}

	if challenge.X402Version != 1 {
		t.Errorf("X402Version = %d, want 1", challenge.X402Version)
	}
	if len(challenge.Accepts) != 1 {
		t.Fatalf("Accepts length = %d, want 1", len(challenge.Accepts))
	}

	offer := challenge.Accepts[0]
	if offer.Network != "base-sepolia" {
		t.Errorf("Network = %q, want base-sepolia", offer.Network)
	}
	if offer.MaxAmountRequired != "50000" {
		t.Errorf("MaxAmountRequired = %q, want 50000", offer.MaxAmountRequired)
	}
	if offer.PayTo != "0xAA00000000000000000000000000000000000001" {
		t.Errorf("PayTo = %q", offer.PayTo)
	}
	if offer.Asset != "0xBB00000000000000000000000000000000000002" {
		t.Errorf("Asset = %q", offer.Asset)
	}
	if offer.MaxTimeoutSeconds != 30 {
		t.Errorf("MaxTimeoutSeconds = %d, want 30", offer.MaxTimeoutSeconds)
	}
}

func TestParseChallengeRoundTrip(t *testing.T) {
	challenge, err := ParseChallenge([]byte(validChallengeBody))
	if err != nil {
		t.Fatalf("ParseChallenge error: %v", err)
	}

	reserialized, err := json.Marshal(challenge.Accepts[0])
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var offer PaymentOffer
	if err := json.Unmarshal(reserialized, &offer); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	// All fields consumed downstream must survive the round trip.
	original := challenge.Accepts[0]
	if offer.Network != original.Network ||
		offer.MaxAmountRequired != original.MaxAmountRequired ||
		offer.PayTo != original.PayTo ||
		offer.Asset != original.Asset ||
		offer.MaxTimeoutSeconds != original.MaxTimeoutSeconds {
		t.Errorf("round trip lost fields: %+v vs %+v", offer, original)
	}
}

func TestParseChallengeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"whitespace body", "   \n"},
		{"not JSON", "payment required"},
		{"JSON string", `"payment required"`},
		{"JSON array", `[{"accepts": []}]`},
		{"missing accepts", `{"x402Version": 1, "error": "pay up"}`},
		{"null accepts", `{"x402Version": 1, "accepts": null}`},
		{"accepts not a sequence", `{"x402Version": 1, "accepts": {"scheme": "exact"}}`},
		{"offer missing payTo", `{"accepts": [{"network": "base", "maxAmountRequired": "1", "asset": "0xBB"}]}`},
		{"offer amount not integer", `{"accepts": [{"network": "base", "maxAmountRequired": "1.5", "payTo": "0xAA", "asset": "0xBB"}]}`},
		{"offer negative timeout", `{"accepts": [{"network": "base", "maxAmountRequired": "1", "payTo": "0xAA", "asset": "0xBB", "maxTimeoutSeconds": -5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChallenge([]byte(tt.body))
			if err == nil {
				t.Fatal("expected protocol error")
			}
			if Classify(err) != ErrCodeProtocol {
				t.Errorf("Classify() = %s, want %s (err: %v)", Classify(err), ErrCodeProtocol, err)
			}
		})
	}
}

func TestFirstOfferEmpty(t *testing.T) {
	challenge, err := ParseChallenge([]byte(`{"x402Version": 1, "accepts": []}`))
	if err != nil {
		t.Fatalf("empty accepts should parse, got: %v", err)
	}

	_, err = challenge.FirstOffer()
	if err == nil {
		t.Fatal("expected no-offer error")
	}
	if !errors.Is(err, ErrNoOffer) {
		t.Errorf("error = %v, want ErrNoOffer", err)
	}
}

func TestFirstOfferDeterministic(t *testing.T) {
	body := `{"accepts": [
		{"network": "base", "maxAmountRequired": "100", "payTo": "0xAA", "asset": "0xBB"},
		{"network": "polygon", "maxAmountRequired": "1", "payTo": "0xCC", "asset": "0xDD"}
	]}`

	challenge, err := ParseChallenge([]byte(body))
	if err != nil {
		t.Fatalf("ParseChallenge error: %v", err)
	}

	// The cheaper second offer must never be preferred.
	offer, err := challenge.FirstOffer()
	if err != nil {
		t.Fatalf("FirstOffer error: %v", err)
	}
	if offer.Network != "base" || offer.MaxAmountRequired != "100" {
		t.Errorf("FirstOffer = %+v, want the first entry", offer)
	}
}

func TestChallengeVersionDefault(t *testing.T) {
	challenge := &PaymentChallenge{}
	if challenge.Version() != DefaultProtocolVersion {
		t.Errorf("Version() = %d, want %d", challenge.Version(), DefaultProtocolVersion)
	}

	challenge.X402Version = 2
	if challenge.Version() != 2 {
		t.Errorf("Version() = %d, want 2", challenge.Version())
	}
}
