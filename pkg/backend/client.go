// Package backend is the HTTP client for the liquidity bridge backend: the
// pre-deposit feasibility check, the relayed deposit endpoint, the
// deposit-status poll and the token gas price oracle.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client talks to the bridge backend over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. A zero timeout falls back to the
// transport default.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// PreDepositStatus asks the backend whether the deposit would currently
// succeed. A non-OK code is returned in the response, not as an error;
// errors are reserved for transport and decoding failures.
func (c *Client) PreDepositStatus(ctx context.Context, req *PreDepositRequest) (*PreDepositResponse, error) {
	var resp PreDepositResponse
	if err := c.postJSON(ctx, "/api/v1/transfer/pre-deposit-status", req, &resp); err != nil {
		return nil, fmt.Errorf("pre-deposit status: %w", err)
	}

	c.logger.Debug("Pre-deposit status",
		zap.Int("code", resp.Code),
		zap.String("message", resp.Message))

	return &resp, nil
}

// Deposit submits a deposit through the backend's meta-transaction relay
// and returns the source-chain transaction hash.
func (c *Client) Deposit(ctx context.Context, req *DepositRequest) (*DepositResponse, error) {
	var resp DepositResponse
	if err := c.postJSON(ctx, "/api/v1/transfer/deposit", req, &resp); err != nil {
		return nil, fmt.Errorf("relayed deposit: %w", err)
	}
	if resp.Hash == "" {
		return nil, fmt.Errorf("relayed deposit: backend returned no transaction hash")
	}
	return &resp, nil
}

// CheckDepositStatus polls the backend for the destination-chain exit
// correlated with a source-chain deposit.
func (c *Client) CheckDepositStatus(ctx context.Context, depositHash string, fromChainID int64) (*DepositStatusResponse, error) {
	q := url.Values{}
	q.Set("depositHash", depositHash)
	q.Set("fromChainId", strconv.FormatInt(fromChainID, 10))

	var resp DepositStatusResponse
	if err := c.getJSON(ctx, "/api/v1/transfer/deposit-status", q, &resp); err != nil {
		return nil, fmt.Errorf("deposit status: %w", err)
	}
	return &resp, nil
}

// TokenGasPrice fetches the oracle's current gas price for a token on a
// network, in raw token units per unit of gas.
func (c *Client) TokenGasPrice(ctx context.Context, tokenAddress string, networkID int64) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("tokenAddress", tokenAddress)
	q.Set("networkId", strconv.FormatInt(networkID, 10))

	var resp GasPriceResponse
	if err := c.getJSON(ctx, "/api/v1/token/gas-price", q, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("token gas price: %w", err)
	}

	price, err := decimal.NewFromString(resp.TokenGasPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("token gas price: parse %q: %w", resp.TokenGasPrice, err)
	}
	return price, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s: unexpected status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
