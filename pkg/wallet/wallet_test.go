package wallet

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUserRejection(t *testing.T) {
	assert.True(t, IsUserRejection(&RPCError{Code: CodeUserRejected, Message: "User rejected the request"}))
	assert.False(t, IsUserRejection(&RPCError{Code: -32000, Message: "insufficient funds"}))
	assert.False(t, IsUserRejection(fmt.Errorf("plain error")))
	assert.False(t, IsUserRejection(nil))
}

func TestIsUserRejection_Wrapped(t *testing.T) {
	err := fmt.Errorf("broadcast deposit: %w", &RPCError{Code: CodeUserRejected, Message: "User rejected"})
	assert.True(t, IsUserRejection(err))
}

func TestNewKeyWallet(t *testing.T) {
	const hexKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	bare, err := NewKeyWallet(hexKey)
	require.NoError(t, err)
	prefixed, err := NewKeyWallet("0x" + hexKey)
	require.NoError(t, err)

	assert.NotEqual(t, common.Address{}, bare.Address())
	// the 0x prefix must not change the derived account
	assert.Equal(t, bare.Address(), prefixed.Address())
}

func TestNewKeyWallet_Invalid(t *testing.T) {
	_, err := NewKeyWallet("not-a-key")
	require.Error(t, err)
}
