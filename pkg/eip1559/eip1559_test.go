package eip1559

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	tip     *big.Int
	baseFee *big.Int
	err     error
}

func (f fakeSource) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return f.tip, f.err
}

func (f fakeSource) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee}, nil
}

func TestSuggestFee_EIP1559(t *testing.T) {
	src := fakeSource{tip: big.NewInt(1_000_000), baseFee: big.NewInt(10_000_000)}

	maxFee, tip, err := SuggestFee(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), tip.Int64())
	assert.Equal(t, int64(13_000_000), maxFee.Int64())
}

func TestSuggestFee_Options(t *testing.T) {
	src := fakeSource{tip: big.NewInt(1), baseFee: big.NewInt(100)}

	maxFee, tip, err := NewEstimator(src,
		WithBaseFeeMultiplierPercent(200),
		WithMinPriorityFee(big.NewInt(50)),
	).SuggestFee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(50), tip.Int64())
	assert.Equal(t, int64(250), maxFee.Int64())
}

func TestSuggestFee_Legacy(t *testing.T) {
	maxFee, tip, err := SuggestFee(context.Background(), fakeSource{tip: big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, tip, maxFee)
}

func TestSuggestFee_Error(t *testing.T) {
	_, _, err := SuggestFee(context.Background(), fakeSource{err: errors.New("boom")})
	assert.EqualError(t, err, "boom")
}
