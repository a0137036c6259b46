// Package eip1559 suggests maxFeePerGas / maxPriorityFeePerGas for user operations.
package eip1559

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultBaseFeeMultiplierPercent leaves 20% headroom for base fee growth between blocks.
const DefaultBaseFeeMultiplierPercent = 120

// FeeSource is the part of ethclient.Client the estimator reads.
type FeeSource interface {
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Estimator suggests fees from the latest header and the node's tip suggestion.
type Estimator struct {
	source                   FeeSource
	baseFeeMultiplierPercent int64
	minPriorityFee           *big.Int
}

type Option func(*Estimator)

func WithBaseFeeMultiplierPercent(p int64) Option {
	return func(e *Estimator) {
		if p > 0 {
			e.baseFeeMultiplierPercent = p
		}
	}
}

// WithMinPriorityFee sets a floor for maxPriorityFeePerGas.
func WithMinPriorityFee(min *big.Int) Option {
	return func(e *Estimator) {
		e.minPriorityFee = min
	}
}

func NewEstimator(source FeeSource, opts ...Option) *Estimator {
	e := &Estimator{
		source:                   source,
		baseFeeMultiplierPercent: DefaultBaseFeeMultiplierPercent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SuggestFee returns (maxFeePerGas, maxPriorityFeePerGas).
func (e *Estimator) SuggestFee(ctx context.Context) (*big.Int, *big.Int, error) {
	tipCap, err := e.source.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, err
	}

	header, err := e.source.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	maxPriorityFeePerGas := new(big.Int).Set(tipCap)
	if e.minPriorityFee != nil && maxPriorityFeePerGas.Cmp(e.minPriorityFee) < 0 {
		maxPriorityFeePerGas.Set(e.minPriorityFee)
	}

	var maxFeePerGas *big.Int
	if header.BaseFee != nil {
		// maxFeePerGas = baseFee * multiplier + maxPriorityFeePerGas
		maxFeePerGas = new(big.Int).Mul(header.BaseFee, big.NewInt(e.baseFeeMultiplierPercent))
		maxFeePerGas.Div(maxFeePerGas, big.NewInt(100))
		maxFeePerGas.Add(maxFeePerGas, maxPriorityFeePerGas)
	} else {
		// Legacy (pre-EIP-1559) chain - use maxPriorityFeePerGas as maxFeePerGas
		maxFeePerGas = new(big.Int).Set(maxPriorityFeePerGas)
	}

	return maxFeePerGas, maxPriorityFeePerGas, nil
}

// SuggestFee is a one-shot helper with default options.
func SuggestFee(ctx context.Context, source FeeSource) (*big.Int, *big.Int, error) {
	return NewEstimator(source).SuggestFee(ctx)
}
