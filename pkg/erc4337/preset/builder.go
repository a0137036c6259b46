// Package preset assembles replayable (chain agnostic) user operations for a multi-owner smart wallet.
package preset

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/AvaProtocol/replayable-aa/core/chainio/aa"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/signature"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/replayable-aa/pkg/logger"
	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

var (
	// Placeholder gas limits sent with the first estimation request. They are upper bounds, the
	// bundler replaces them.
	DEFAULT_CALL_GAS_LIMIT         = big.NewInt(1_000_000)
	DEFAULT_VERIFICATION_GAS_LIMIT = big.NewInt(1_000_000)
	DEFAULT_PREVERIFICATION_GAS    = big.NewInt(1_000_000)

	ErrMissingNonceKey = errors.New("nonce key is required")
	ErrMissingAccount  = errors.New("account address is required")
	ErrNoCalls         = aa.ErrNoCalls
	ErrNotReplayable   = aa.ErrChainIdValidationRequired

	ErrIncompleteGasEstimate = errors.New("gas estimator returned an incomplete result")
)

// BytecodeOracle reports deployed code; *ethclient.Client satisfies it.
type BytecodeOracle interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// NonceOracle reads the EntryPoint nonce of sender under a nonce key.
type NonceOracle interface {
	GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error)
}

// FeeEstimator returns (maxFeePerGas, maxPriorityFeePerGas).
type FeeEstimator interface {
	SuggestFee(ctx context.Context) (*big.Int, *big.Int, error)
}

// GasEstimator runs eth_estimateUserOperationGas.
type GasEstimator interface {
	EstimateUserOperationGas(ctx context.Context, userOp userop.UserOperation, entrypoint common.Address, override map[string]any) (*bundler.GasEstimation, error)
}

// WalletFactoryEncoder produces initCode deploying a wallet for owners at index.
type WalletFactoryEncoder interface {
	InitCode(owners [][]byte, index *big.Int) ([]byte, error)
}

// SelectorPolicy asks a deployed wallet whether selector may run without chain id validation;
// *aa.WalletReader satisfies it.
type SelectorPolicy interface {
	CanSkipChainIdValidation(ctx context.Context, account common.Address, selector [4]byte) (bool, error)
}

// GasLimits are the placeholder limits attached before estimation.
type GasLimits struct {
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
}

func DefaultGasLimits() GasLimits {
	return GasLimits{
		CallGasLimit:         new(big.Int).Set(DEFAULT_CALL_GAS_LIMIT),
		VerificationGasLimit: new(big.Int).Set(DEFAULT_VERIFICATION_GAS_LIMIT),
		PreVerificationGas:   new(big.Int).Set(DEFAULT_PREVERIFICATION_GAS),
	}
}

// Options configure a Builder. Zero values fall back to package defaults.
type Options struct {
	EntryPoint  common.Address
	Origin      string
	Placeholder GasLimits
	Logger      logger.Logger
	// Selectors checks calls against a deployed wallet. Without it, and for undeployed wallets, the
	// allow list in aa.CanSkipChainIdValidation is used.
	Selectors   SelectorPolicy
}

// Builder assembles replayable user operations. It holds no per-build state and is safe for
// concurrent use.
type Builder struct {
	code    BytecodeOracle
	nonce   NonceOracle
	fees    FeeEstimator
	gas     GasEstimator
	factory WalletFactoryEncoder
	policy  SelectorPolicy

	entryPoint  common.Address
	origin      string
	placeholder GasLimits
	logger      logger.Logger
}

func NewBuilder(code BytecodeOracle, nonce NonceOracle, fees FeeEstimator, gas GasEstimator, factory WalletFactoryEncoder, opts Options) *Builder {
	b := &Builder{
		code:        code,
		nonce:       nonce,
		fees:        fees,
		gas:         gas,
		factory:     factory,
		policy:      opts.Selectors,
		entryPoint:  opts.EntryPoint,
		origin:      opts.Origin,
		placeholder: DefaultGasLimits(),
		logger:      logger.EnsureLogger(opts.Logger),
	}

	if b.entryPoint == (common.Address{}) {
		b.entryPoint = aa.EntrypointAddress
	}
	if b.origin == "" {
		b.origin = webauthn.DefaultOrigin
	}
	if opts.Placeholder.CallGasLimit != nil {
		b.placeholder.CallGasLimit = opts.Placeholder.CallGasLimit
	}
	if opts.Placeholder.VerificationGasLimit != nil {
		b.placeholder.VerificationGasLimit = opts.Placeholder.VerificationGasLimit
	}
	if opts.Placeholder.PreVerificationGas != nil {
		b.placeholder.PreVerificationGas = opts.Placeholder.PreVerificationGas
	}
	return b
}

func (b *Builder) EntryPoint() common.Address {
	return b.entryPoint
}

// ReplayableRequest describes the operation to build.
type ReplayableRequest struct {
	// Account is the wallet address, deployed or counterfactual.
	Account common.Address
	// Owners and FactoryIndex are used for initCode when Account has no code yet.
	Owners       [][]byte
	FactoryIndex *big.Int
	// Calls are wallet calldata payloads passed to executeWithoutChainIdValidation.
	Calls [][]byte
	// NonceKey is the EntryPoint nonce namespace. It is not derived from the target chain: every
	// network the operation is replayed on must use the same key, so the caller picks it.
	NonceKey *big.Int
	// PasskeySigner selects a WebAuthn dummy signature instead of an EOA one.
	PasskeySigner bool
	OwnerIndex    uint8
}

// BuildReplayableUserOp returns an operation with final initCode, callData, nonce, fees and estimated
// gas limits. Its signature is a correctly sized dummy; callers must sign it with SignWithEOA or
// SignWithPasskey before sending.
func (b *Builder) BuildReplayableUserOp(ctx context.Context, req ReplayableRequest) (*userop.UserOperation, error) {
	if req.Account == (common.Address{}) {
		return nil, ErrMissingAccount
	}
	if req.NonceKey == nil {
		return nil, ErrMissingNonceKey
	}

	callData, err := aa.PackExecuteWithoutChainIdValidation(req.Calls)
	if err != nil {
		return nil, fmt.Errorf("failed to pack executeWithoutChainIdValidation: %w", err)
	}

	var (
		initCode             []byte
		nonce                *big.Int
		maxFeePerGas         *big.Int
		maxPriorityFeePerGas *big.Int
	)

	// code, nonce and fee lookups are independent of each other
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		code, err := b.code.CodeAt(gctx, req.Account, nil)
		if err != nil {
			return fmt.Errorf("failed to check account code: %w", err)
		}
		if len(code) > 0 {
			return b.checkSelectors(gctx, req.Account, req.Calls)
		}
		if err := aa.CheckReplayableCalls(req.Calls); err != nil {
			return err
		}

		b.logger.Debug("account not deployed, adding initCode", "account", req.Account.Hex(), "owners", len(req.Owners))
		initCode, err = b.factory.InitCode(req.Owners, req.FactoryIndex)
		if err != nil {
			return fmt.Errorf("failed to build initCode: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := b.nonce.GetNonce(gctx, req.Account, req.NonceKey)
		if err != nil {
			return fmt.Errorf("failed to get nonce: %w", err)
		}
		nonce = n
		return nil
	})
	g.Go(func() error {
		maxFee, maxPriorityFee, err := b.fees.SuggestFee(gctx)
		if err != nil {
			return fmt.Errorf("failed to suggest gas fees: %w", err)
		}
		maxFeePerGas, maxPriorityFeePerGas = maxFee, maxPriorityFee
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dummySig, err := b.dummySignature(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build dummy signature: %w", err)
	}

	op := &userop.UserOperation{
		Sender:               req.Account,
		Nonce:                nonce,
		InitCode:             initCode,
		CallData:             callData,
		CallGasLimit:         new(big.Int).Set(b.placeholder.CallGasLimit),
		VerificationGasLimit: new(big.Int).Set(b.placeholder.VerificationGasLimit),
		PreVerificationGas:   new(big.Int).Set(b.placeholder.PreVerificationGas),
		MaxFeePerGas:         maxFeePerGas,
		MaxPriorityFeePerGas: maxPriorityFeePerGas,
		PaymasterAndData:     []byte{},
		Signature:            dummySig,
	}

	gas, err := b.gas.EstimateUserOperationGas(ctx, *op, b.entryPoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}
	if gas == nil || gas.PreVerificationGas == nil || gas.VerificationGasLimit == nil || gas.CallGasLimit == nil {
		return nil, ErrIncompleteGasEstimate
	}

	op.PreVerificationGas = gas.PreVerificationGas
	op.VerificationGasLimit = gas.VerificationGasLimit
	op.CallGasLimit = gas.CallGasLimit

	b.logger.Info("built replayable user operation",
		"sender", op.Sender.Hex(),
		"nonce", op.Nonce.String(),
		"deploy", len(op.InitCode) > 0,
		"callGasLimit", op.CallGasLimit.String(),
		"verificationGasLimit", op.VerificationGasLimit.String(),
		"preVerificationGas", op.PreVerificationGas.String())

	return op, nil
}

func (b *Builder) checkSelectors(ctx context.Context, account common.Address, calls [][]byte) error {
	if b.policy == nil {
		return aa.CheckReplayableCalls(calls)
	}

	for i, call := range calls {
		selector, err := aa.SelectorOf(call)
		if err != nil {
			return fmt.Errorf("%w: call %d: %v", aa.ErrChainIdValidationRequired, i, err)
		}
		ok, err := b.policy.CanSkipChainIdValidation(ctx, account, selector)
		if err != nil {
			return fmt.Errorf("failed to check call %d selector: %w", i, err)
		}
		if !ok {
			return fmt.Errorf("%w: call %d selector 0x%x", aa.ErrChainIdValidationRequired, i, selector)
		}
	}
	return nil
}

func (b *Builder) dummySignature(req ReplayableRequest) ([]byte, error) {
	if req.PasskeySigner {
		// a 32 byte challenge has the same encoded size as a real user operation hash
		return signature.DummyWebAuthnSignature(req.OwnerIndex, make([]byte, common.HashLength), b.origin)
	}
	return signature.DummyEOASignature(req.OwnerIndex)
}
