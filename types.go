package x402

import (
	"encoding/hex"
	"math/big"
	"strconv"
)

// Protocol defaults applied when a challenge omits the corresponding field.
const (
	// DefaultProtocolVersion is the x402 protocol version this client speaks.
	DefaultProtocolVersion = 1

	// DefaultDomainName is the EIP-712 domain name used when the offer's
	// extra metadata does not carry one.
	DefaultDomainName = "USDC"

	// DefaultDomainVersion is the EIP-712 domain version used when the
	// offer's extra metadata does not carry one.
	DefaultDomainVersion = "2"

	// DefaultTimeoutSeconds bounds the authorization deadline when the offer
	// does not specify maxTimeoutSeconds.
	DefaultTimeoutSeconds = 60
)

// PaymentOffer represents a single payment option from a 402 response.
type PaymentOffer struct {
	// Scheme is the payment scheme identifier (e.g., "exact").
	Scheme string `json:"scheme"`

	// Network is the blockchain network alias, resolved via a Registry.
	Network string `json:"network" validate:"required"`

	// MaxAmountRequired is the payment amount in asset base units, encoded
	// as a decimal integer string. It is never parsed as a float.
	MaxAmountRequired string `json:"maxAmountRequired" validate:"required"`

	// Resource is the URL of the protected resource.
	Resource string `json:"resource"`

	// Description is an optional human-readable payment description.
	Description string `json:"description"`

	// MimeType is the content type of the protected resource.
	MimeType string `json:"mimeType"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payTo" validate:"required"`

	// MaxTimeoutSeconds is the validity period for the payment authorization.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds" validate:"gte=0"`

	// Asset is the token contract address identifying the payment asset.
	Asset string `json:"asset" validate:"required"`

	// Extra carries optional EIP-712 domain metadata ({name, version, ...}).
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// DomainName returns the EIP-712 domain name for this offer, falling back to
// the protocol default when the extra metadata does not carry one.
func (o *PaymentOffer) DomainName() string {
	if o.Extra != nil {
		if name, ok := o.Extra["name"].(string); ok && name != "" {
			return name
		}
	}
	return DefaultDomainName
}

// DomainVersion returns the EIP-712 domain version for this offer, falling
// back to the protocol default when the extra metadata does not carry one.
func (o *PaymentOffer) DomainVersion() string {
	if o.Extra != nil {
		if version, ok := o.Extra["version"].(string); ok && version != "" {
			return version
		}
	}
	return DefaultDomainVersion
}

// Amount parses MaxAmountRequired as a base-unit integer.
func (o *PaymentOffer) Amount() (*big.Int, error) {
	amount, ok := new(big.Int).SetString(o.MaxAmountRequired, 10)
	if !ok || amount.Sign() < 0 {
		return nil, NewPaymentError(ErrCodeProtocol, "offer amount is not a base-unit integer", ErrInvalidAmount).
			WithDetails("maxAmountRequired", o.MaxAmountRequired)
	}
	return amount, nil
}

// TimeoutSeconds returns the offer's authorization validity window, applying
// the protocol default when the offer leaves it unspecified.
func (o *PaymentOffer) TimeoutSeconds() int {
	if o.MaxTimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds
	}
	return o.MaxTimeoutSeconds
}

// PaymentChallenge represents the complete 402 response body.
type PaymentChallenge struct {
	// X402Version is the protocol version (currently 1).
	X402Version int `json:"x402Version"`

	// Error is a human-readable message from the resource server.
	Error string `json:"error"`

	// Accepts is the ordered list of payment offers the server will accept.
	Accepts []PaymentOffer `json:"accepts"`
}

// Version returns the challenge's protocol version, defaulting when absent.
func (c *PaymentChallenge) Version() int {
	if c.X402Version <= 0 {
		return DefaultProtocolVersion
	}
	return c.X402Version
}

// PaymentAuthorization is an off-chain signed payment authorization for one
// selected offer. It is never broadcast as a transaction; the resource server
// verifies the signature against the same domain and field layout used at
// signing time.
type PaymentAuthorization struct {
	// Signature is the 65-byte secp256k1 signature over the EIP-712 digest.
	Signature []byte

	// Amount equals the selected offer's MaxAmountRequired exactly.
	Amount string

	// Asset is the verifying contract address from the offer.
	Asset string

	// Recipient is the offer's payTo address.
	Recipient string

	// Payer is the wallet address the authorization was signed with.
	Payer string

	// Nonce is unique per authorization.
	Nonce *big.Int

	// Deadline is the unix timestamp after which the authorization expires.
	Deadline int64

	// Network is the alias the offer was issued for.
	Network string

	// ChainID is the resolved numeric chain id.
	ChainID int64
}

// PaymentProof is the wire form of a signed authorization, carried in the
// X-PAYMENT header of the retried request.
type PaymentProof struct {
	Version   int    `json:"version"`
	Scheme    string `json:"scheme"`
	Signature string `json:"signature"`
	Amount    string `json:"amount"`
	Asset     string `json:"asset"`
	Recipient string `json:"recipient"`
	Payer     string `json:"payer"`
	Nonce     string `json:"nonce"`
	Deadline  string `json:"deadline"`
	Network   string `json:"network"`
}

// NewPaymentProof assembles the wire proof for a signed authorization.
func NewPaymentProof(challenge *PaymentChallenge, offer *PaymentOffer, auth *PaymentAuthorization) PaymentProof {
	return PaymentProof{
		Version:   challenge.Version(),
		Scheme:    offer.Scheme,
		Signature: "0x" + hex.EncodeToString(auth.Signature),
		Amount:    auth.Amount,
		Asset:     auth.Asset,
		Recipient: auth.Recipient,
		Payer:     auth.Payer,
		Nonce:     auth.Nonce.String(),
		Deadline:  strconv.FormatInt(auth.Deadline, 10),
		Network:   auth.Network,
	}
}

// PaymentReceipt is the payment metadata merged into the final result of a
// paid request.
type PaymentReceipt struct {
	// Amount is the fiat-equivalent cost formatted with 6 decimal places.
	Amount string `json:"amount"`

	// AmountRaw is the base-unit amount exactly as signed.
	AmountRaw string `json:"amountRaw"`

	// Network is the canonical network name.
	Network string `json:"network"`

	// ChainID is the numeric chain id the authorization was bound to.
	ChainID int64 `json:"chainId"`

	// Asset is the payment asset contract address.
	Asset string `json:"asset"`

	// AssetName is the asset's EIP-712 domain name.
	AssetName string `json:"assetName"`

	// Recipient is the paid address.
	Recipient string `json:"recipient"`

	// Payer is the wallet address that signed the authorization.
	Payer string `json:"payer"`

	// Status is "paid" for completed payments.
	Status string `json:"status"`

	// Signature is the hex-encoded authorization signature.
	Signature string `json:"signature"`
}
