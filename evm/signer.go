package evm

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/wirepay/x402"
)

// authorizationType is the fixed EIP-712 field layout of a payment
// authorization. The resource server must verify against the same layout.
var authorizationType = []apitypes.Type{
	{Name: "recipient", Type: "address"},
	{Name: "amount", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "deadline", Type: "uint256"},
}

// Signer builds and signs payment authorizations using an external
// TypedDataSigner capability. It implements x402.AuthorizationSigner.
type Signer struct {
	account TypedDataSigner
	now     func() time.Time
	nonceFn func() (*big.Int, error)
}

// SignerOption configures a Signer.
type SignerOption func(*Signer) error

// NewSigner creates an authorization signer over the given capability.
func NewSigner(account TypedDataSigner, opts ...SignerOption) (*Signer, error) {
	if account == nil {
		return nil, x402.NewPaymentError(x402.ErrCodeConfiguration, "signing capability is required", x402.ErrInvalidCredential)
	}

	s := &Signer{
		account: account,
		now:     time.Now,
		nonceFn: newNonce,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// WithClock overrides the signer's time source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) error {
		s.now = now
		return nil
	}
}

// WithNonceSource overrides nonce generation.
func WithNonceSource(nonceFn func() (*big.Int, error)) SignerOption {
	return func(s *Signer) error {
		s.nonceFn = nonceFn
		return nil
	}
}

// Payer implements x402.AuthorizationSigner.
func (s *Signer) Payer() string {
	return s.account.Address().Hex()
}

// Sign implements x402.AuthorizationSigner. The typed-data domain binds the
// signature to {offer domain name, domain version, chain id, asset contract};
// the deadline is issue time plus the offer's timeout and is strictly in the
// future at signing. The authorization names the resolved chain, not the
// offer's raw alias, so the wire proof always agrees with the signed domain.
func (s *Signer) Sign(offer *x402.PaymentOffer, chain x402.Chain) (*x402.PaymentAuthorization, error) {
	amount, err := offer.Amount()
	if err != nil {
		return nil, err
	}

	nonce, err := s.nonceFn()
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigningFailed, "failed to generate nonce", fmt.Errorf("%w: %v", x402.ErrSigningFailed, err))
	}

	issuedAt := s.now()
	deadline := issuedAt.Unix() + int64(offer.TimeoutSeconds())

	auth := &x402.PaymentAuthorization{
		Amount:    offer.MaxAmountRequired,
		Asset:     offer.Asset,
		Recipient: offer.PayTo,
		Payer:     s.Payer(),
		Nonce:     nonce,
		Deadline:  deadline,
		Network:   chain.Name,
		ChainID:   chain.ID,
	}

	typedData := authorizationTypedData(offer, chain, amount, nonce, deadline)

	signature, err := s.account.SignTypedData(typedData)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigningFailed, "signing capability failed", fmt.Errorf("%w: %v", x402.ErrSigningFailed, err))
	}
	auth.Signature = signature

	return auth, nil
}

// AuthorizationDigest recomputes the EIP-712 digest a signed authorization
// was produced over, so a verifier can recover the payer from the signature.
func AuthorizationDigest(offer *x402.PaymentOffer, chain x402.Chain, auth *x402.PaymentAuthorization) ([]byte, error) {
	amount, err := offer.Amount()
	if err != nil {
		return nil, err
	}
	typedData := authorizationTypedData(offer, chain, amount, auth.Nonce, auth.Deadline)
	return TypedDataDigest(typedData)
}

func authorizationTypedData(offer *x402.PaymentOffer, chain x402.Chain, amount, nonce *big.Int, deadline int64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"PaymentAuthorization": authorizationType,
		},
		PrimaryType: "PaymentAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              offer.DomainName(),
			Version:           offer.DomainVersion(),
			ChainId:           ethmath.NewHexOrDecimal256(chain.ID),
			VerifyingContract: common.HexToAddress(offer.Asset).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"recipient": common.HexToAddress(offer.PayTo).Hex(),
			"amount":    (*ethmath.HexOrDecimal256)(amount),
			"nonce":     (*ethmath.HexOrDecimal256)(nonce),
			"deadline":  (*ethmath.HexOrDecimal256)(new(big.Int).SetInt64(deadline)),
		},
	}
}

// newNonce combines the nanosecond timestamp with 64 random bits into a
// 128-bit value, so rapid sequential or concurrent signings within the same
// clock tick still produce distinct nonces.
func newNonce() (*big.Int, error) {
	var entropy [8]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return nil, err
	}

	nonce := new(big.Int).SetInt64(time.Now().UnixNano())
	nonce.Lsh(nonce, 64)
	nonce.Or(nonce, new(big.Int).SetUint64(binary.BigEndian.Uint64(entropy[:])))
	return nonce, nil
}
