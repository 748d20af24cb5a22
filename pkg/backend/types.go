package backend

// Response codes returned by the pre-deposit feasibility endpoint.
const (
	CodeOK                 = 200
	CodeUnsupportedNetwork = 501
	CodeUnsupportedToken   = 502
	CodeNoLiquidity        = 503
	CodeAllowanceNotGiven  = 504
)

// Deposit status codes returned by the deposit-status endpoint.
const (
	DepositStatusPending   = 1
	DepositStatusCompleted = 2
	DepositStatusFailed    = 3
)

// PreDepositRequest asks whether a deposit would currently succeed.
// Amount is the raw integer amount in source-chain units, as a decimal
// string.
type PreDepositRequest struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
	FromChainID  int64  `json:"fromChainId"`
	ToChainID    int64  `json:"toChainId"`
	UserAddress  string `json:"userAddress"`
}

// PreDepositResponse carries the feasibility code and, when the deposit is
// feasible, the pool contract to deposit into.
type PreDepositResponse struct {
	Code            int    `json:"code"`
	Message         string `json:"message"`
	DepositContract string `json:"depositContract,omitempty"`
}

// DepositRequest submits a deposit through the backend's meta-transaction
// relay, used when the gasless route is enabled.
type DepositRequest struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
	FromChainID  int64  `json:"fromChainId"`
	ToChainID    int64  `json:"toChainId"`
	Receiver     string `json:"receiver"`
	UserAddress  string `json:"userAddress"`
}

// DepositResponse is the relayed deposit's source-chain transaction hash.
type DepositResponse struct {
	Hash string `json:"hash"`
}

// DepositStatusResponse reports progress of a deposit towards its
// destination-chain exit. ExitHash is empty until the exit transaction has
// been submitted.
type DepositStatusResponse struct {
	StatusCode int    `json:"statusCode"`
	ExitHash   string `json:"exitHash,omitempty"`
	ToChainID  int64  `json:"toChainId"`
}

// GasPriceResponse is the oracle price used for the transaction-fee leg of
// a quote: raw token units charged per unit of gas.
type GasPriceResponse struct {
	TokenGasPrice string `json:"tokenGasPrice"`
}
