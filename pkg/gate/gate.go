// Package gate performs the pre-deposit feasibility check: before any
// transaction is signed, the backend is asked whether the deposit would
// currently succeed. The answer is a verdict, never an error, so the
// orchestrator can present actionable outcomes like a missing allowance or
// drained destination liquidity.
package gate

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/internal/metrics"
	"github.com/lpbridge/middleware/pkg/backend"
	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/token"
	"github.com/lpbridge/middleware/pkg/transfer"
)

// StatusChecker is the backend call the gate depends on.
type StatusChecker interface {
	PreDepositStatus(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error)
}

// Gate maps backend feasibility codes to transfer verdicts. Every Check is a
// fresh backend round trip; verdicts are never cached because allowance and
// liquidity change under the caller's feet.
type Gate struct {
	registry *registry.Registry
	checker  StatusChecker
	logger   *zap.Logger
}

// NewGate creates a pre-deposit gate.
func NewGate(reg *registry.Registry, checker StatusChecker, logger *zap.Logger) *Gate {
	return &Gate{registry: reg, checker: checker, logger: logger}
}

// Check asks the backend whether the deposit from user would currently
// succeed. Transport failures are errors; feasibility failures are verdicts.
func (g *Gate) Check(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error) {
	dep := g.registry.Deployment(req.TokenSymbol, req.SourceChainID)
	if dep == nil {
		return nil, fmt.Errorf("pre-deposit check: %s not deployed on chain %d", req.TokenSymbol, req.SourceChainID)
	}

	raw := token.ToRawUnits(req.Amount, dep.Decimals)
	resp, err := g.checker.PreDepositStatus(ctx, &backend.PreDepositRequest{
		TokenAddress: dep.Address,
		Amount:       raw.String(),
		FromChainID:  req.SourceChainID,
		ToChainID:    req.DestChainID,
		UserAddress:  user.Hex(),
	})
	if err != nil {
		return nil, err
	}

	verdict := &transfer.Verdict{
		Code:    codeToVerdict(resp.Code),
		Message: resp.Message,
	}
	if verdict.Code == transfer.VerdictOK {
		if resp.DepositContract == "" {
			return nil, fmt.Errorf("pre-deposit check: feasible but no deposit contract returned")
		}
		verdict.DepositContract = common.HexToAddress(resp.DepositContract)
	}

	metrics.GateVerdicts.WithLabelValues(string(verdict.Code)).Inc()

	g.logger.Info("Pre-deposit verdict",
		zap.String("code", string(verdict.Code)),
		zap.String("token", req.TokenSymbol),
		zap.Int64("from_chain", req.SourceChainID),
		zap.Int64("to_chain", req.DestChainID))

	return verdict, nil
}

func codeToVerdict(code int) transfer.VerdictCode {
	switch code {
	case backend.CodeOK:
		return transfer.VerdictOK
	case backend.CodeAllowanceNotGiven:
		return transfer.VerdictAllowanceNotGiven
	case backend.CodeNoLiquidity:
		return transfer.VerdictNoLiquidity
	case backend.CodeUnsupportedNetwork:
		return transfer.VerdictUnsupportedNet
	case backend.CodeUnsupportedToken:
		return transfer.VerdictUnsupportedToken
	default:
		return transfer.VerdictOther
	}
}
