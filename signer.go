package x402

// AuthorizationSigner produces signed payment authorizations for offers.
// Implementations delegate the cryptographic signature to an external
// signing capability bound to one account; they own no key material.
type AuthorizationSigner interface {
	// Payer returns the wallet address authorizations are signed with.
	Payer() string

	// Sign builds and signs a payment authorization for the offer on the
	// resolved chain. The returned authorization's amount equals the offer's
	// MaxAmountRequired exactly and its deadline is strictly in the future.
	Sign(offer *PaymentOffer, chain Chain) (*PaymentAuthorization, error)
}
