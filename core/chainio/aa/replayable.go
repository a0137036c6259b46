package aa

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/AvaProtocol/replayable-aa/pkg/byte4"
)

var ErrChainIdValidationRequired = errors.New("call is not allowed without chain id validation")

// Functions the wallet lets executeWithoutChainIdValidation call, as listed by
// CoinbaseSmartWallet.canSkipChainIdValidation.
var replayableSelectors = lo.Map([]string{
	"addOwnerPublicKey(bytes32,bytes32)",
	"addOwnerAddress(address)",
	"removeOwnerAtIndex(uint256,bytes)",
	"removeLastOwner(uint256,bytes)",
	"upgradeToAndCall(address,bytes)",
}, func(sig string, _ int) [4]byte {
	return [4]byte(byte4.Selector(sig))
})

// SelectorOf returns the 4-byte function selector of call.
func SelectorOf(call []byte) ([4]byte, error) {
	if len(call) < 4 {
		return [4]byte{}, fmt.Errorf("call too short for a selector: %d bytes", len(call))
	}
	return [4]byte(call[:4]), nil
}

// CanSkipChainIdValidation is the wallet's allow list evaluated locally, for wallets that are not
// deployed yet.
func CanSkipChainIdValidation(selector [4]byte) bool {
	return lo.Contains(replayableSelectors, selector)
}

// CheckReplayableCalls fails on the first call the wallet would revert inside
// executeWithoutChainIdValidation.
func CheckReplayableCalls(calls [][]byte) error {
	for i, call := range calls {
		selector, err := SelectorOf(call)
		if err != nil {
			return fmt.Errorf("%w: call %d: %v", ErrChainIdValidationRequired, i, err)
		}
		if !CanSkipChainIdValidation(selector) {
			return fmt.Errorf("%w: call %d selector 0x%x", ErrChainIdValidationRequired, i, selector)
		}
	}
	return nil
}

// WalletReader queries deployed wallets.
type WalletReader struct {
	caller bind.ContractCaller
}

func NewWalletReader(caller bind.ContractCaller) (*WalletReader, error) {
	if err := loadABIs(); err != nil {
		return nil, err
	}
	return &WalletReader{caller: caller}, nil
}

// CanSkipChainIdValidation calls canSkipChainIdValidation(selector) on the wallet at account.
func (w *WalletReader) CanSkipChainIdValidation(ctx context.Context, account common.Address, selector [4]byte) (bool, error) {
	contract := bind.NewBoundContract(account, *walletABI, w.caller, nil, nil)

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "canSkipChainIdValidation", selector); err != nil {
		return false, fmt.Errorf("wallet canSkipChainIdValidation: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
