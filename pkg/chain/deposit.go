package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Signer signs transactions for one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID int64) (*types.Transaction, error)
}

// DepositErc20 calls depositErc20 on the pool contract and returns the
// broadcast transaction hash.
func (c *Client) DepositErc20(ctx context.Context, signer Signer, contract, tokenAddr, receiver common.Address, rawAmount *big.Int, toChainID int64) (common.Hash, error) {
	data, err := poolABI.Pack("depositErc20", big.NewInt(toChainID), tokenAddr, receiver, rawAmount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack depositErc20: %w", err)
	}
	return c.sendTx(ctx, signer, contract, big.NewInt(0), data)
}

// DepositNative calls depositNative on the pool contract with the amount as
// transaction value and returns the broadcast transaction hash.
func (c *Client) DepositNative(ctx context.Context, signer Signer, contract, receiver common.Address, rawAmount *big.Int, toChainID int64) (common.Hash, error) {
	data, err := poolABI.Pack("depositNative", receiver, big.NewInt(toChainID))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack depositNative: %w", err)
	}
	return c.sendTx(ctx, signer, contract, rawAmount, data)
}

func (c *Client) sendTx(ctx context.Context, signer Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	from := signer.Address()

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce on %s: %w", c.chain.Name, err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price on %s: %w", c.chain.Name, err)
	}

	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas on %s: %w", c.chain.Name, err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := signer.SignTx(tx, c.chain.ChainID)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast on %s: %w", c.chain.Name, err)
	}

	c.logger.Info("Transaction broadcast",
		zap.String("chain", c.chain.Name),
		zap.String("hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce))

	return signed.Hash(), nil
}
