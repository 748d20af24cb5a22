package gate

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/pkg/backend"
	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/transfer"
)

const gateTestRegistry = `
chains:
  - name: ethereum
    chain_id: 1
    native_symbol: ETH
    native_decimals: 18
    transfer_gas_overhead: 86283
  - name: polygon
    chain_id: 137
    native_symbol: MATIC
    native_decimals: 18
    transfer_gas_overhead: 127838
tokens:
  - symbol: USDT
    deployments:
      1:
        address: "0xdAC17F958D2ee523a2206206994597C13D831ec7"
        decimals: 6
        min_cap: "10"
        max_cap: "1000"
      137:
        address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F"
        decimals: 18
        min_cap: "10"
        max_cap: "1000"
`

// MockStatusChecker is a mock implementation of StatusChecker
type MockStatusChecker struct {
	PreDepositStatusFunc func(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error)
	calls                int
}

func (m *MockStatusChecker) PreDepositStatus(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error) {
	m.calls++
	return m.PreDepositStatusFunc(ctx, req)
}

func testGate(t *testing.T, checker StatusChecker) *Gate {
	t.Helper()
	reg, err := registry.Parse([]byte(gateTestRegistry))
	require.NoError(t, err)
	return NewGate(reg, checker, zap.NewNop())
}

func testRequest() *transfer.Request {
	return &transfer.Request{
		Amount:        decimal.NewFromInt(100),
		TokenSymbol:   "USDT",
		SourceChainID: 1,
		DestChainID:   137,
	}
}

func TestCheck_Feasible(t *testing.T) {
	contract := "0x2A1530C4C41db0B0b2bB646CB5Eb1A67b7158667"
	checker := &MockStatusChecker{
		PreDepositStatusFunc: func(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error) {
			// 100 USDT at 6 source decimals
			assert.Equal(t, "100000000", req.Amount)
			assert.Equal(t, "0xdAC17F958D2ee523a2206206994597C13D831ec7", req.TokenAddress)
			assert.Equal(t, int64(1), req.FromChainID)
			assert.Equal(t, int64(137), req.ToChainID)
			return &backend.PreDepositResponse{Code: backend.CodeOK, DepositContract: contract}, nil
		},
	}

	v, err := testGate(t, checker).Check(context.Background(), testRequest(), common.HexToAddress("0x1"))
	require.NoError(t, err)
	assert.Equal(t, transfer.VerdictOK, v.Code)
	assert.Equal(t, common.HexToAddress(contract), v.DepositContract)
}

func TestCheck_CodeMapping(t *testing.T) {
	cases := []struct {
		code    int
		verdict transfer.VerdictCode
	}{
		{backend.CodeAllowanceNotGiven, transfer.VerdictAllowanceNotGiven},
		{backend.CodeNoLiquidity, transfer.VerdictNoLiquidity},
		{backend.CodeUnsupportedNetwork, transfer.VerdictUnsupportedNet},
		{backend.CodeUnsupportedToken, transfer.VerdictUnsupportedToken},
		{999, transfer.VerdictOther},
	}

	for _, tc := range cases {
		t.Run(string(tc.verdict), func(t *testing.T) {
			checker := &MockStatusChecker{
				PreDepositStatusFunc: func(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error) {
					return &backend.PreDepositResponse{Code: tc.code, Message: "nope"}, nil
				},
			}

			v, err := testGate(t, checker).Check(context.Background(), testRequest(), common.HexToAddress("0x1"))
			require.NoError(t, err)
			assert.Equal(t, tc.verdict, v.Code)
			assert.Equal(t, "nope", v.Message)
		})
	}
}

func TestCheck_FeasibleWithoutContractIsError(t *testing.T) {
	checker := &MockStatusChecker{
		PreDepositStatusFunc: func(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error) {
			return &backend.PreDepositResponse{Code: backend.CodeOK}, nil
		},
	}

	_, err := testGate(t, checker).Check(context.Background(), testRequest(), common.HexToAddress("0x1"))
	require.Error(t, err)
}

func TestCheck_TransportFailureIsError(t *testing.T) {
	checker := &MockStatusChecker{
		PreDepositStatusFunc: func(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error) {
			return nil, fmt.Errorf("backend down")
		},
	}

	_, err := testGate(t, checker).Check(context.Background(), testRequest(), common.HexToAddress("0x1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestCheck_EveryCheckHitsBackend(t *testing.T) {
	checker := &MockStatusChecker{
		PreDepositStatusFunc: func(ctx context.Context, req *backend.PreDepositRequest) (*backend.PreDepositResponse, error) {
			return &backend.PreDepositResponse{Code: backend.CodeNoLiquidity}, nil
		},
	}
	g := testGate(t, checker)

	for i := 0; i < 3; i++ {
		_, err := g.Check(context.Background(), testRequest(), common.HexToAddress("0x1"))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, checker.calls)
}
