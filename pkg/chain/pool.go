package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Liquidity pool contract surface: fee and reward reads plus the two
// deposit entry points.
const poolABIJSON = `[
	{"constant":true,"inputs":[{"name":"tokenAddress","type":"address"},{"name":"amount","type":"uint256"}],"name":"getTransferFee","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"amount","type":"uint256"},{"name":"tokenAddress","type":"address"}],"name":"getRewardAmount","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"toChainId","type":"uint256"},{"name":"tokenAddress","type":"address"},{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"}],"name":"depositErc20","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"receiver","type":"address"},{"name":"toChainId","type":"uint256"}],"name":"depositNative","outputs":[],"payable":true,"type":"function"}
]`

var poolABI = mustParseABI(poolABIJSON)

// GetTransferFee reads the pool's current fee for transferring rawAmount of
// a token, scaled by the fee percentage base.
func (c *Client) GetTransferFee(ctx context.Context, tokenAddr common.Address, rawAmount *big.Int) (*big.Int, error) {
	pool := common.HexToAddress(c.chain.PoolAddress)
	fee, err := c.callAndUnpack(ctx, poolABI, pool, "getTransferFee", tokenAddr, rawAmount)
	if err != nil {
		return nil, fmt.Errorf("transfer fee on %s: %w", c.chain.Name, err)
	}
	return fee, nil
}

// GetRewardAmount reads the rebalancing reward the pool would pay for a
// deposit of rawAmount, in raw token units.
func (c *Client) GetRewardAmount(ctx context.Context, rawAmount *big.Int, tokenAddr common.Address) (*big.Int, error) {
	pool := common.HexToAddress(c.chain.PoolAddress)
	reward, err := c.callAndUnpack(ctx, poolABI, pool, "getRewardAmount", rawAmount, tokenAddr)
	if err != nil {
		return nil, fmt.Errorf("reward amount on %s: %w", c.chain.Name, err)
	}
	return reward, nil
}

// Pools fans pool reads out to the right chain's client. It implements the
// fee engine's pool reader over every configured network.
type Pools struct {
	clients map[int64]*Client
}

// NewPools indexes clients by chain id.
func NewPools(clients ...*Client) *Pools {
	byID := make(map[int64]*Client, len(clients))
	for _, c := range clients {
		byID[c.ChainID()] = c
	}
	return &Pools{clients: byID}
}

// Client returns the client for a chain, or nil.
func (p *Pools) Client(chainID int64) *Client {
	return p.clients[chainID]
}

// GetTransferFee reads the transfer fee from the pool on chainID.
func (p *Pools) GetTransferFee(ctx context.Context, chainID int64, tokenAddress common.Address, rawAmount *big.Int) (*big.Int, error) {
	c := p.clients[chainID]
	if c == nil {
		return nil, fmt.Errorf("no client for chain %d", chainID)
	}
	return c.GetTransferFee(ctx, tokenAddress, rawAmount)
}

// GetRewardAmount reads the rebalancing reward from the pool on chainID.
func (p *Pools) GetRewardAmount(ctx context.Context, chainID int64, rawAmount *big.Int, tokenAddress common.Address) (*big.Int, error) {
	c := p.clients[chainID]
	if c == nil {
		return nil, fmt.Errorf("no client for chain %d", chainID)
	}
	return c.GetRewardAmount(ctx, rawAmount, tokenAddress)
}
