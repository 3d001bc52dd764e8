// Package x402 implements the buyer side of the x402 payment-gated HTTP
// convention: parsing 402 payment challenges, enforcing spend caps, building
// and signing EIP-712 payment authorizations, and encoding the payment proof
// for a single paid retry.
package x402

import (
	"sort"
	"strings"
)

// Chain describes one supported blockchain network.
type Chain struct {
	// ID is the numeric chain id used in the EIP-712 domain.
	ID int64

	// Name is the canonical network name (e.g., "base-sepolia").
	Name string
}

// RegistryEntry pairs a chain with the aliases that resolve to it.
type RegistryEntry struct {
	Chain   Chain
	Aliases []string
}

// Registry maps case-insensitive network aliases to chain descriptors.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	byAlias map[string]Chain
	aliases []string
}

// defaultEntries is the documented alias table: each supported mainnet plus
// its public testnet, with the human-friendly synonyms callers actually use.
var defaultEntries = []RegistryEntry{
	{Chain{1, "ethereum"}, []string{"ethereum", "eth", "mainnet"}},
	{Chain{11155111, "sepolia"}, []string{"sepolia", "eth-sepolia", "ethereum-sepolia"}},
	{Chain{8453, "base"}, []string{"base"}},
	{Chain{84532, "base-sepolia"}, []string{"base-sepolia"}},
	{Chain{137, "polygon"}, []string{"polygon", "matic", "polygon-pos"}},
	{Chain{80002, "polygon-amoy"}, []string{"polygon-amoy", "amoy"}},
	{Chain{10, "optimism"}, []string{"optimism", "op", "op-mainnet"}},
	{Chain{11155420, "optimism-sepolia"}, []string{"optimism-sepolia", "op-sepolia"}},
	{Chain{42161, "arbitrum"}, []string{"arbitrum", "arb", "arbitrum-one"}},
	{Chain{421614, "arbitrum-sepolia"}, []string{"arbitrum-sepolia", "arb-sepolia"}},
	{Chain{43114, "avalanche"}, []string{"avalanche", "avax", "avalanche-c"}},
	{Chain{43113, "avalanche-fuji"}, []string{"avalanche-fuji", "fuji", "avax-fuji"}},
	{Chain{56, "bsc"}, []string{"bsc", "bnb", "binance", "bnb-smart-chain"}},
	{Chain{97, "bsc-testnet"}, []string{"bsc-testnet", "bnb-testnet"}},
}

// NewRegistry returns a registry over the documented alias table.
func NewRegistry() *Registry {
	return NewRegistryWith(defaultEntries...)
}

// NewRegistryWith builds a registry from explicit entries. Aliases are keys
// and must be unique across the table; a later entry never silently
// overrides an earlier one, the first mapping wins.
func NewRegistryWith(entries ...RegistryEntry) *Registry {
	r := &Registry{byAlias: make(map[string]Chain)}
	for _, entry := range entries {
		for _, alias := range entry.Aliases {
			key := normalizeAlias(alias)
			if _, exists := r.byAlias[key]; exists {
				continue
			}
			r.byAlias[key] = entry.Chain
			r.aliases = append(r.aliases, key)
		}
	}
	sort.Strings(r.aliases)
	return r
}

// Resolve looks up a network alias case-insensitively. Unknown aliases fail
// with an unsupported-network error carrying the full valid alias list.
func (r *Registry) Resolve(alias string) (Chain, error) {
	chain, ok := r.byAlias[normalizeAlias(alias)]
	if !ok {
		return Chain{}, NewPaymentError(ErrCodeUnsupportedNetwork, "network "+alias+" is not supported", ErrUnsupportedNetwork).
			WithDetails("network", alias).
			WithDetails("validAliases", r.Aliases())
	}
	return chain, nil
}

// Aliases returns the sorted list of every alias the registry resolves.
func (r *Registry) Aliases() []string {
	out := make([]string, len(r.aliases))
	copy(out, r.aliases)
	return out
}

func normalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
