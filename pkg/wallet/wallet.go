// Package wallet holds the signing key used for source-chain deposits and
// the classification of wallet-level RPC errors, in particular the
// user-rejected-request code that browser wallets return when the user
// dismisses a signing prompt.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

// CodeUserRejected is the EIP-1193 provider error code for a signing request
// the user declined.
const CodeUserRejected = 4001

// RPCError is a provider error with a numeric code, mirroring the JSON-RPC
// error object wallets return.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ErrorCode implements the go-ethereum rpc.Error interface.
func (e *RPCError) ErrorCode() int { return e.Code }

// IsUserRejection reports whether err is the user declining a signing
// request. Both this package's RPCError and go-ethereum's rpc errors are
// recognized.
func IsUserRejection(err error) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == CodeUserRejected
	}
	var gethErr rpc.Error
	if errors.As(err, &gethErr) {
		return gethErr.ErrorCode() == CodeUserRejected
	}
	return false
}

// KeyWallet signs transactions with a locally held private key.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyWallet parses a hex-encoded private key, with or without the 0x
// prefix.
func NewKeyWallet(hexKey string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("derive public key")
	}
	return &KeyWallet{key: key, address: crypto.PubkeyToAddress(*pub)}, nil
}

// Address returns the wallet's account address.
func (w *KeyWallet) Address() common.Address { return w.address }

// SignTx signs tx for the given chain.
func (w *KeyWallet) SignTx(tx *types.Transaction, chainID int64) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(chainID)), w.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}
