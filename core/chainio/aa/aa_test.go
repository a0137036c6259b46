package aa

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/replayable-aa/pkg/byte4"
)

var (
	testFactory = common.HexToAddress("0x0BA5ED0c6AA8c49038F819E587E2633c4A9F428a")
	testOwner   = common.HexToAddress("0x804e49e8C4eDb560AE7c48B554f6d2e27Bb81557")
)

func TestPackExecuteWithoutChainIdValidation(t *testing.T) {
	addOwner, err := PackAddOwnerAddress(common.HexToAddress("0x578B110b0a7c06e66b7B1a33C39635304aaF733c"))
	require.NoError(t, err)
	calls := [][]byte{addOwner, common.FromHex("0x1234")}

	calldata, err := PackExecuteWithoutChainIdValidation(calls)
	require.NoError(t, err)
	assert.Equal(t, "0x2c2abd1e", hexutil.Encode(calldata[:4]))

	again, err := PackExecuteWithoutChainIdValidation(calls)
	require.NoError(t, err)
	assert.Equal(t, calldata, again, "encoding must be deterministic")

	reordered, err := PackExecuteWithoutChainIdValidation([][]byte{calls[1], calls[0]})
	require.NoError(t, err)
	assert.NotEqual(t, calldata, reordered)

	wallet, err := WalletABI()
	require.NoError(t, err)
	method, err := byte4.GetMethodFromCalldata(*wallet, calldata)
	require.NoError(t, err)
	assert.Equal(t, "executeWithoutChainIdValidation", method.Name)

	args, err := method.Inputs.Unpack(calldata[4:])
	require.NoError(t, err)
	assert.Equal(t, calls, args[0].([][]byte))
}

func TestPackExecuteWithoutChainIdValidation_NoCalls(t *testing.T) {
	_, err := PackExecuteWithoutChainIdValidation(nil)
	assert.ErrorIs(t, err, ErrNoCalls)
}

func TestPackExecute_Selector(t *testing.T) {
	calldata, err := PackExecute(common.HexToAddress("0x0a0c037267a690e9792f4660c29989babec9cffb"), nil, common.FromHex("0xa9059cbb"))
	require.NoError(t, err)
	assert.Equal(t, "0xb61d27f6", hexutil.Encode(calldata[:4]))

	batch, err := PackExecuteBatch([]Call{{Target: testOwner, Data: []byte{1}}})
	require.NoError(t, err)
	assert.Equal(t, "0x34fcd5be", hexutil.Encode(batch[:4]))
}

func TestPackAddOwnerPublicKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	calldata, err := PackAddOwnerPublicKey(&key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "0x29565e3b", hexutil.Encode(calldata[:4]))
	assert.Equal(t, OwnerFromPublicKey(&key.PublicKey), calldata[4:])
}

func TestGetInitCodeForFactory(t *testing.T) {
	owners := OwnersFromAddresses([]common.Address{testOwner})

	initCode, err := GetInitCodeForFactory(owners, testFactory, big.NewInt(0))
	require.NoError(t, err)

	assert.Equal(t, testFactory.Bytes(), initCode[:20])
	assert.Equal(t, "0x3ffba36f", hexutil.Encode(initCode[20:24]))

	factory := NewFactory(testFactory)
	viaFactory, err := factory.InitCode(owners, nil)
	require.NoError(t, err)
	assert.Equal(t, initCode, viaFactory, "nil index defaults to zero")

	other, err := GetInitCodeForFactory(owners, testFactory, big.NewInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, initCode, other, "different index should produce different initCode")

	_, err = GetInitCodeForFactory(nil, testFactory, big.NewInt(0))
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestOwnerFromAddress(t *testing.T) {
	b := OwnerFromAddress(testOwner)
	require.Len(t, b, 32)
	assert.Equal(t, make([]byte, 12), b[:12])
	assert.Equal(t, testOwner.Bytes(), b[12:])
}

func TestEntryPointReader_GetNonce(t *testing.T) {
	caller := &fakeCaller{result: common.LeftPadBytes(big.NewInt(42).Bytes(), 32)}
	reader, err := NewEntryPointReader(EntrypointAddress, caller)
	require.NoError(t, err)

	nonce, err := reader.GetNonce(context.Background(), testOwner, big.NewInt(8453))
	require.NoError(t, err)
	assert.Equal(t, int64(42), nonce.Int64())

	require.NotNil(t, caller.lastCall.To)
	assert.Equal(t, EntrypointAddress, *caller.lastCall.To)
	assert.Equal(t, "0x35567e1a", hexutil.Encode(caller.lastCall.Data[:4]))
	assert.Equal(t, common.LeftPadBytes(testOwner.Bytes(), 32), caller.lastCall.Data[4:36])
	assert.Equal(t, common.LeftPadBytes(big.NewInt(8453).Bytes(), 32), caller.lastCall.Data[36:68])
}

func TestEntryPointReader_Errors(t *testing.T) {
	reader, err := NewEntryPointReader(EntrypointAddress, &fakeCaller{err: errors.New("rpc down")})
	require.NoError(t, err)

	_, err = reader.GetNonce(context.Background(), testOwner, big.NewInt(1))
	assert.ErrorContains(t, err, "rpc down")

	_, err = reader.GetNonce(context.Background(), testOwner, nil)
	assert.Error(t, err)
}

func TestGetSenderAddress(t *testing.T) {
	want := common.HexToAddress("0x7c3a76086588230c7B3f4839A4c1F5BBafcd57C6")
	caller := &fakeCaller{result: common.LeftPadBytes(want.Bytes(), 32)}

	got, err := GetSenderAddress(context.Background(), caller, testFactory, OwnersFromAddresses([]common.Address{testOwner}), nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "0x250b1b41", hexutil.Encode(caller.lastCall.Data[:4]))
}

type fakeCaller struct {
	result   []byte
	err      error
	lastCall ethereum.CallMsg
}

func (f *fakeCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lastCall = call
	return f.result, f.err
}
