package aa

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

var (
	abiOnce    sync.Once
	abiErr     error
	walletABI  *abi.ABI
	factoryABI *abi.ABI
	entryABI   *abi.ABI

	ErrNoCalls = errors.New("at least one call is required")
	ErrNoOwner = errors.New("at least one owner is required")
)

func loadABIs() error {
	abiOnce.Do(func() {
		if walletABI, abiErr = CoinbaseSmartWalletMetaData.GetAbi(); abiErr != nil {
			abiErr = fmt.Errorf("invalid wallet ABI: %w", abiErr)
			return
		}
		if factoryABI, abiErr = CoinbaseSmartWalletFactoryMetaData.GetAbi(); abiErr != nil {
			abiErr = fmt.Errorf("invalid factory ABI: %w", abiErr)
			return
		}
		if entryABI, abiErr = EntryPointMetaData.GetAbi(); abiErr != nil {
			abiErr = fmt.Errorf("invalid entrypoint ABI: %w", abiErr)
		}
	})
	return abiErr
}

// WalletABI returns the parsed wallet ABI.
func WalletABI() (*abi.ABI, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}
	return walletABI, nil
}

// Call is a single target call inside executeBatch.
type Call struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// PackExecuteWithoutChainIdValidation encodes executeWithoutChainIdValidation(bytes[] calls).
// Each element is itself calldata for the wallet (e.g. addOwnerAddress); the wallet skips its
// chain id check for this entry point, which is what makes the operation replayable.
func PackExecuteWithoutChainIdValidation(calls [][]byte) ([]byte, error) {
	if len(calls) == 0 {
		return nil, ErrNoCalls
	}
	if err := loadABIs(); err != nil {
		return nil, err
	}

	return walletABI.Pack("executeWithoutChainIdValidation", calls)
}

// Generate calldata for UserOps
func PackExecute(targetAddress common.Address, ethValue *big.Int, calldata []byte) ([]byte, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}
	if ethValue == nil {
		ethValue = new(big.Int)
	}

	return walletABI.Pack("execute", targetAddress, ethValue, calldata)
}

func PackExecuteBatch(calls []Call) ([]byte, error) {
	if len(calls) == 0 {
		return nil, ErrNoCalls
	}
	if err := loadABIs(); err != nil {
		return nil, err
	}

	batch := lo.Map(calls, func(c Call, _ int) Call {
		if c.Value == nil {
			c.Value = new(big.Int)
		}
		return c
	})
	return walletABI.Pack("executeBatch", batch)
}

func PackAddOwnerAddress(owner common.Address) ([]byte, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}
	return walletABI.Pack("addOwnerAddress", owner)
}

// PackAddOwnerPublicKey registers a passkey owner by its P-256 public key coordinates.
func PackAddOwnerPublicKey(pub *ecdsa.PublicKey) ([]byte, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}

	var x, y [32]byte
	pub.X.FillBytes(x[:])
	pub.Y.FillBytes(y[:])
	return walletABI.Pack("addOwnerPublicKey", x, y)
}

func PackRemoveOwnerAtIndex(index *big.Int, owner []byte) ([]byte, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}
	return walletABI.Pack("removeOwnerAtIndex", index, owner)
}

// OwnerFromAddress encodes an EOA owner the way the wallet stores it: abi.encode(address).
func OwnerFromAddress(owner common.Address) []byte {
	return common.LeftPadBytes(owner.Bytes(), 32)
}

// OwnerFromPublicKey encodes a passkey owner: abi.encode(x, y).
func OwnerFromPublicKey(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, 64)
	pub.X.FillBytes(out[:32])
	pub.Y.FillBytes(out[32:])
	return out
}

// OwnersFromAddresses is OwnerFromAddress over a list.
func OwnersFromAddresses(owners []common.Address) [][]byte {
	return lo.Map(owners, func(o common.Address, _ int) []byte { return OwnerFromAddress(o) })
}

// Factory computes initCode for a given factory deployment.
type Factory struct {
	Address common.Address
}

func NewFactory(address common.Address) *Factory {
	return &Factory{Address: address}
}

// InitCode returns factory address || createAccount(owners, index).
func (f *Factory) InitCode(owners [][]byte, index *big.Int) ([]byte, error) {
	return GetInitCodeForFactory(owners, f.Address, index)
}

func GetInitCodeForFactory(owners [][]byte, factory common.Address, index *big.Int) ([]byte, error) {
	if len(owners) == 0 {
		return nil, ErrNoOwner
	}
	if err := loadABIs(); err != nil {
		return nil, err
	}
	if index == nil {
		index = new(big.Int)
	}

	calldata, err := factoryABI.Pack("createAccount", owners, index)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, common.AddressLength+len(calldata))
	data = append(data, factory.Bytes()...)
	data = append(data, calldata...)
	return data, nil
}

// GetSenderAddress asks the factory for the counterfactual wallet address of owners at index.
func GetSenderAddress(ctx context.Context, caller bind.ContractCaller, factory common.Address, owners [][]byte, index *big.Int) (common.Address, error) {
	if err := loadABIs(); err != nil {
		return common.Address{}, err
	}
	if index == nil {
		index = new(big.Int)
	}

	contract := bind.NewBoundContract(factory, *factoryABI, caller, nil, nil)
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAddress", owners, index); err != nil {
		return common.Address{}, fmt.Errorf("factory getAddress: %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// EntryPointReader reads account nonces from an EntryPoint deployment.
type EntryPointReader struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewEntryPointReader(address common.Address, caller bind.ContractCaller) (*EntryPointReader, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}
	return &EntryPointReader{
		address:  address,
		contract: bind.NewBoundContract(address, *entryABI, caller, nil, nil),
	}, nil
}

// GetNonce returns EntryPoint.getNonce(sender, key). key is a uint192 nonce namespace.
func (e *EntryPointReader) GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error) {
	if key == nil {
		return nil, errors.New("nonce key is required")
	}

	var out []interface{}
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getNonce", sender, key); err != nil {
		return nil, fmt.Errorf("entrypoint getNonce: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
