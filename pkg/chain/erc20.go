package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse ABI: %v", err))
	}
	return parsed
}

func (c *Client) erc20BalanceOf(ctx context.Context, tokenAddr, account common.Address) (*big.Int, error) {
	out, err := c.callAndUnpack(ctx, erc20ABI, tokenAddr, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Allowance reads how much of a token the owner has approved the spender
// for, in raw units.
func (c *Client) Allowance(ctx context.Context, tokenAddr, owner, spender common.Address) (*big.Int, error) {
	out, err := c.callAndUnpack(ctx, erc20ABI, tokenAddr, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("allowance on %s: %w", c.chain.Name, err)
	}
	return out, nil
}

func (c *Client) callAndUnpack(ctx context.Context, parsed abi.ABI, contract common.Address, method string, args ...interface{}) (*big.Int, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("call %s: empty return", method)
	}
	out, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected return type %T", method, values[0])
	}
	return out, nil
}
