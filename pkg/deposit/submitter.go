// Package deposit submits the source-chain deposit transaction, either
// signed locally and broadcast directly or relayed through the backend's
// gasless meta-transaction route, and waits for it to confirm.
package deposit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/pkg/backend"
	"github.com/lpbridge/middleware/pkg/chain"
	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/token"
	"github.com/lpbridge/middleware/pkg/transfer"
)

// Broadcaster submits and tracks transactions on one chain. *chain.Client
// satisfies it.
type Broadcaster interface {
	DepositErc20(ctx context.Context, signer chain.Signer, contract, tokenAddr, receiver common.Address, rawAmount *big.Int, toChainID int64) (common.Hash, error)
	DepositNative(ctx context.Context, signer chain.Signer, contract, receiver common.Address, rawAmount *big.Int, toChainID int64) (common.Hash, error)
	WaitForConfirmation(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error)
}

// RelayDepositor is the backend's gasless deposit route.
type RelayDepositor interface {
	Deposit(ctx context.Context, req *backend.DepositRequest) (*backend.DepositResponse, error)
}

// Submitter routes a deposit to the right source chain and waits for its
// confirmation.
type Submitter struct {
	registry          *registry.Registry
	chains            map[int64]Broadcaster
	relay             RelayDepositor
	signer            chain.Signer
	gasless           bool
	confirmationDepth uint64
	logger            *zap.Logger
}

// Options configures a Submitter.
type Options struct {
	// Gasless routes deposits through the backend relay instead of
	// signing and broadcasting locally.
	Gasless bool

	// ConfirmationDepth is how many blocks must build on top of the
	// deposit before it counts as confirmed.
	ConfirmationDepth uint64
}

// NewSubmitter creates a deposit submitter over the given per-chain
// broadcasters.
func NewSubmitter(reg *registry.Registry, chains map[int64]Broadcaster, relay RelayDepositor, signer chain.Signer, opts Options, logger *zap.Logger) *Submitter {
	return &Submitter{
		registry:          reg,
		chains:            chains,
		relay:             relay,
		signer:            signer,
		gasless:           opts.Gasless,
		confirmationDepth: opts.ConfirmationDepth,
		logger:            logger,
	}
}

// Submit broadcasts the deposit for req into the pool contract and returns
// the source-chain transaction hash. Wallet errors, including the user
// declining the signing prompt, pass through untouched so the caller can
// classify them.
func (s *Submitter) Submit(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error) {
	dep := s.registry.Deployment(req.TokenSymbol, req.SourceChainID)
	if dep == nil {
		return common.Hash{}, fmt.Errorf("submit deposit: %s not deployed on chain %d", req.TokenSymbol, req.SourceChainID)
	}
	raw := token.ToRawUnits(req.Amount, dep.Decimals)

	if s.gasless {
		return s.submitRelayed(ctx, req, dep, raw)
	}

	bc := s.chains[req.SourceChainID]
	if bc == nil {
		return common.Hash{}, fmt.Errorf("submit deposit: no client for chain %d", req.SourceChainID)
	}

	var (
		hash common.Hash
		err  error
	)
	if dep.IsNative() {
		hash, err = bc.DepositNative(ctx, s.signer, contract, req.Receiver, raw, req.DestChainID)
	} else {
		hash, err = bc.DepositErc20(ctx, s.signer, contract, common.HexToAddress(dep.Address), req.Receiver, raw, req.DestChainID)
	}
	if err != nil {
		return common.Hash{}, err
	}

	s.logger.Info("Deposit submitted",
		zap.String("hash", hash.Hex()),
		zap.String("token", req.TokenSymbol),
		zap.Int64("from_chain", req.SourceChainID),
		zap.Int64("to_chain", req.DestChainID))

	return hash, nil
}

func (s *Submitter) submitRelayed(ctx context.Context, req *transfer.Request, dep *registry.Deployment, raw *big.Int) (common.Hash, error) {
	resp, err := s.relay.Deposit(ctx, &backend.DepositRequest{
		TokenAddress: dep.Address,
		Amount:       raw.String(),
		FromChainID:  req.SourceChainID,
		ToChainID:    req.DestChainID,
		Receiver:     req.Receiver.Hex(),
		UserAddress:  s.signer.Address().Hex(),
	})
	if err != nil {
		return common.Hash{}, err
	}

	s.logger.Info("Deposit relayed",
		zap.String("hash", resp.Hash),
		zap.String("token", req.TokenSymbol))

	return common.HexToHash(resp.Hash), nil
}

// WaitConfirmed blocks until the deposit has reached the configured
// confirmation depth on its source chain.
func (s *Submitter) WaitConfirmed(ctx context.Context, srcChainID int64, hash common.Hash) (*transfer.DepositReceipt, error) {
	bc := s.chains[srcChainID]
	if bc == nil {
		return nil, fmt.Errorf("confirm deposit: no client for chain %d", srcChainID)
	}

	depth, err := bc.WaitForConfirmation(ctx, hash, s.confirmationDepth)
	if err != nil {
		return nil, fmt.Errorf("confirm deposit %s: %w", hash.Hex(), err)
	}

	return &transfer.DepositReceipt{
		TxHash:              hash,
		ConfirmedBlockDepth: depth,
	}, nil
}
