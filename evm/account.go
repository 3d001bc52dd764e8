// Package evm implements payment authorization signing for EVM-compatible
// chains: deterministic account derivation from seed material and EIP-712
// typed-data signatures over payment authorizations.
package evm

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"github.com/wirepay/x402"
)

// TypedDataSigner is the opaque signing capability bound to one account.
// Implementations sign EIP-712 typed data and expose the account address;
// callers never see key material.
type TypedDataSigner interface {
	// Address returns the account the capability signs for.
	Address() common.Address

	// SignTypedData produces a 65-byte signature over the EIP-712 digest of
	// the typed data, with the recovery id adjusted to 27/28.
	SignTypedData(typedData apitypes.TypedData) ([]byte, error)
}

// Account is a locally derived signing capability.
type Account struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// DeriveAccount derives a deterministic account from raw seed bytes.
// Derivation path: m/44'/60'/0'/0/0. The same seed always yields the same
// address, so accounts are shared-safe across concurrent requests.
func DeriveAccount(seed []byte) (*Account, error) {
	return DeriveAccountAt(seed, 0)
}

// DeriveAccountAt derives the account at m/44'/60'/0'/0/{index}.
func DeriveAccountAt(seed []byte, index uint32) (*Account, error) {
	privateKey, err := deriveKey(seed, index)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeConfiguration, "failed to derive account from seed", fmt.Errorf("%w: %v", x402.ErrInvalidCredential, err))
	}
	return &Account{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// DeriveAccountFromMnemonic derives an account from a BIP39 mnemonic phrase.
func DeriveAccountFromMnemonic(mnemonic string, index uint32) (*Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, x402.NewPaymentError(x402.ErrCodeConfiguration, "invalid mnemonic phrase", x402.ErrInvalidCredential)
	}
	return DeriveAccountAt(bip39.NewSeed(mnemonic, ""), index)
}

// AccountFromCredential decodes a wallet credential and derives its account.
// When the credential carries an expected address, a mismatch with the
// derived address is a configuration error.
func AccountFromCredential(cred x402.Credential) (*Account, error) {
	seed, err := cred.SeedBytes()
	if err != nil {
		return nil, err
	}

	account, err := DeriveAccount(seed)
	if err != nil {
		return nil, err
	}

	if cred.WalletAddress != "" && !addressesEqual(cred.WalletAddress, account.address) {
		return nil, x402.NewPaymentError(x402.ErrCodeConfiguration, "derived address does not match credential wallet_address", x402.ErrInvalidCredential).
			WithDetails("derived", account.address.Hex()).
			WithDetails("expected", cred.WalletAddress)
	}

	return account, nil
}

// Address implements TypedDataSigner.
func (a *Account) Address() common.Address {
	return a.address
}

// SignTypedData implements TypedDataSigner. It hashes the typed data per
// EIP-712 (keccak256 of 0x1901 || domainSeparator || structHash) and signs
// the digest with the account key.
func (a *Account) SignTypedData(typedData apitypes.TypedData) ([]byte, error) {
	digest, err := TypedDataDigest(typedData)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(digest, a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrSigningFailed, err)
	}

	// Ethereum expects v in {27, 28}
	signature[64] += 27

	return signature, nil
}

// TypedDataDigest computes the EIP-712 signing digest for typed data.
// Exposed so verifiers can recover the payer address from a signature.
func TypedDataDigest(typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := append([]byte{0x19, 0x01}, append(domainSeparator, messageHash...)...)
	return crypto.Keccak256(rawData), nil
}

// deriveKey walks the BIP44 path m/44'/60'/0'/0/{index} from a seed.
func deriveKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44, // purpose
		bip32.FirstHardenedChild + 60, // ethereum coin type
		bip32.FirstHardenedChild + 0,  // account 0
		0,                             // external chain
		index,
	}

	key := masterKey
	for _, segment := range path {
		key, err = key.NewChildKey(segment)
		if err != nil {
			return nil, err
		}
	}

	return crypto.ToECDSA(key.Key)
}

func addressesEqual(hex string, addr common.Address) bool {
	return common.IsHexAddress(hex) && common.HexToAddress(hex) == addr
}
