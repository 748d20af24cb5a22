// Package registry loads the static chain and token configuration the
// orchestrator resolves transfer requests against. The registry is plain
// data; everything that can change at runtime (liquidity, allowances,
// balances) is queried elsewhere.
package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Chain describes one supported network.
type Chain struct {
	Name        string `yaml:"name"`
	ChainID     int64  `yaml:"chain_id"`
	RPCURL      string `yaml:"rpc_url"`
	ExplorerURL string `yaml:"explorer_url"`

	NativeSymbol   string `yaml:"native_symbol"`
	NativeDecimals int32  `yaml:"native_decimals"`

	// PoolAddress is the liquidity pool contract serving fee and reward
	// reads on this chain.
	PoolAddress string `yaml:"pool_address"`

	// TransferGasOverhead is the fixed gas cost the bridge charges for
	// completing a transfer on this chain as the source.
	TransferGasOverhead int64 `yaml:"transfer_gas_overhead"`
}

// TxURL returns the explorer link for a transaction hash.
func (c *Chain) TxURL(txHash string) string {
	return strings.TrimSuffix(c.ExplorerURL, "/") + "/tx/" + txHash
}

// Deployment is a token's contract on one chain. The zero address marks the
// chain's native asset. MinCap and MaxCap are the pool bounds for deposits
// of this token on this chain, in human-readable units.
type Deployment struct {
	Address  string          `yaml:"address"`
	Decimals int32           `yaml:"decimals"`
	MinCap   decimal.Decimal `yaml:"min_cap"`
	MaxCap   decimal.Decimal `yaml:"max_cap"`
}

// IsNative reports whether this deployment is the chain's native asset.
func (d *Deployment) IsNative() bool {
	return d.Address == "" || d.Address == "0x0000000000000000000000000000000000000000"
}

// Token is a bridgeable asset and its per-chain deployments, keyed by
// chain id.
type Token struct {
	Symbol      string                `yaml:"symbol"`
	Deployments map[int64]*Deployment `yaml:"deployments"`
}

// Registry is the full static configuration.
type Registry struct {
	Chains []*Chain `yaml:"chains"`
	Tokens []*Token `yaml:"tokens"`

	chainsByID     map[int64]*Chain
	tokensBySymbol map[string]*Token
}

// Load reads and indexes a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

// Parse decodes registry yaml and builds the lookup indexes.
func Parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	r.chainsByID = make(map[int64]*Chain, len(r.Chains))
	for _, c := range r.Chains {
		if c.ChainID == 0 {
			return nil, fmt.Errorf("chain %q has no chain_id", c.Name)
		}
		if _, dup := r.chainsByID[c.ChainID]; dup {
			return nil, fmt.Errorf("duplicate chain id %d", c.ChainID)
		}
		r.chainsByID[c.ChainID] = c
	}

	r.tokensBySymbol = make(map[string]*Token, len(r.Tokens))
	for _, tok := range r.Tokens {
		sym := strings.ToUpper(tok.Symbol)
		if _, dup := r.tokensBySymbol[sym]; dup {
			return nil, fmt.Errorf("duplicate token symbol %s", sym)
		}
		for chainID := range tok.Deployments {
			if _, ok := r.chainsByID[chainID]; !ok {
				return nil, fmt.Errorf("token %s deployed on unknown chain %d", sym, chainID)
			}
		}
		r.tokensBySymbol[sym] = tok
	}

	return &r, nil
}

// Chain returns the chain with the given id, or nil.
func (r *Registry) Chain(chainID int64) *Chain {
	return r.chainsByID[chainID]
}

// Token returns the token with the given symbol, or nil.
func (r *Registry) Token(symbol string) *Token {
	return r.tokensBySymbol[strings.ToUpper(symbol)]
}

// Deployment resolves a token's contract on one chain. Returns nil if the
// token or the deployment is unknown.
func (r *Registry) Deployment(symbol string, chainID int64) *Deployment {
	tok := r.Token(symbol)
	if tok == nil {
		return nil
	}
	return tok.Deployments[chainID]
}
