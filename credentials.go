package x402

import (
	"encoding/base64"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Credential is the wallet credential record consumed by account derivation.
// The core never handles raw key bytes beyond handing the decoded seed to
// the derivation collaborator.
type Credential struct {
	// WalletSeed is the base64-encoded seed the signing account derives from.
	WalletSeed string `json:"wallet_seed" validate:"required,base64"`

	// WalletAddress is the expected payer address, used as a consistency
	// check against the derived account when present.
	WalletAddress string `json:"wallet_address"`
}

var credentialValidator = validator.New()

// Validate checks the credential for missing or malformed material.
func (c Credential) Validate() error {
	if err := credentialValidator.Struct(c); err != nil {
		return NewPaymentError(ErrCodeConfiguration, "wallet credential is invalid", fmt.Errorf("%w: %v", ErrInvalidCredential, err))
	}
	return nil
}

// SeedBytes decodes the credential's seed material.
func (c Credential) SeedBytes() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	seed, err := base64.StdEncoding.DecodeString(c.WalletSeed)
	if err != nil {
		return nil, NewPaymentError(ErrCodeConfiguration, "wallet seed is not valid base64", fmt.Errorf("%w: %v", ErrInvalidCredential, err))
	}
	if len(seed) == 0 {
		return nil, NewPaymentError(ErrCodeConfiguration, "wallet seed is empty", ErrInvalidCredential)
	}
	return seed, nil
}
