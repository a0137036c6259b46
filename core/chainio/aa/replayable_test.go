package aa

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReplayableCalls(t *testing.T) {
	addOwner, err := PackAddOwnerAddress(testOwner)
	require.NoError(t, err)
	removeOwner, err := PackRemoveOwnerAtIndex(big.NewInt(1), OwnerFromAddress(testOwner))
	require.NoError(t, err)
	execute, err := PackExecute(testOwner, big.NewInt(1), nil)
	require.NoError(t, err)

	assert.NoError(t, CheckReplayableCalls([][]byte{addOwner, removeOwner}))

	err = CheckReplayableCalls([][]byte{addOwner, execute})
	assert.ErrorIs(t, err, ErrChainIdValidationRequired)
	assert.ErrorContains(t, err, "call 1 selector 0xb61d27f6")

	err = CheckReplayableCalls([][]byte{{0x0f, 0x0f}})
	assert.ErrorIs(t, err, ErrChainIdValidationRequired)
}

func TestCanSkipChainIdValidation_KnownSelectors(t *testing.T) {
	for _, sel := range []string{"0x0f0f3f24", "0x29565e3b"} {
		assert.True(t, CanSkipChainIdValidation([4]byte(hexutil.MustDecode(sel))), sel)
	}
	assert.False(t, CanSkipChainIdValidation([4]byte(hexutil.MustDecode("0x34fcd5be"))))
}

func TestWalletReader_CanSkipChainIdValidation(t *testing.T) {
	account := common.HexToAddress("0x7c3a76086588230c7B3f4839A4c1F5BBafcd57C6")
	caller := &fakeCaller{result: common.LeftPadBytes([]byte{1}, 32)}

	reader, err := NewWalletReader(caller)
	require.NoError(t, err)

	ok, err := reader.CanSkipChainIdValidation(context.Background(), account, [4]byte{0x0f, 0x0f, 0x3f, 0x24})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, caller.lastCall.To)
	assert.Equal(t, account, *caller.lastCall.To)
	// selector argument is left aligned in its word
	assert.Equal(t, "0x0f0f3f24", hexutil.Encode(caller.lastCall.Data[4:8]))

	caller.result = make([]byte, 32)
	ok, err = reader.CanSkipChainIdValidation(context.Background(), account, [4]byte{0xb6, 0x1d, 0x27, 0xf6})
	require.NoError(t, err)
	assert.False(t, ok)

	reader, err = NewWalletReader(&fakeCaller{err: errors.New("rpc down")})
	require.NoError(t, err)
	_, err = reader.CanSkipChainIdValidation(context.Background(), account, [4]byte{})
	assert.Error(t, err)
}
