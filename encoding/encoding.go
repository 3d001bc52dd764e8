// Package encoding provides the wire codec for x402 payment proofs.
// Proofs are JSON-serialized and base64-encoded for the X-PAYMENT header.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/wirepay/x402"
)

// EncodeProof converts a PaymentProof to a base64-encoded JSON string.
// Encoding is deterministic: identical proofs produce byte-identical values.
func EncodeProof(proof x402.PaymentProof) (string, error) {
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment proof: %w", err)
	}
	return base64.StdEncoding.EncodeToString(proofJSON), nil
}

// DecodeProof converts a base64-encoded JSON string back to a PaymentProof.
func DecodeProof(encoded string) (x402.PaymentProof, error) {
	var proof x402.PaymentProof

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return proof, fmt.Errorf("%w: invalid base64: %v", x402.ErrMalformedProof, err)
	}

	if err := json.Unmarshal(decoded, &proof); err != nil {
		return proof, fmt.Errorf("%w: invalid JSON: %v", x402.ErrMalformedProof, err)
	}

	return proof, nil
}
