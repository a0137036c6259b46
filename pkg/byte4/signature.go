// Package byte4 resolves 4-byte function selectors against a parsed ABI.
package byte4

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Selector returns the first four bytes of keccak256(signature), e.g. "executeWithoutChainIdValidation(bytes[])".
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// GetMethodFromCalldata returns the ABI method for a 4-byte selector or full calldata.
func GetMethodFromCalldata(parsedABI abi.ABI, selector []byte) (*abi.Method, error) {
	if len(selector) < 4 {
		return nil, fmt.Errorf("invalid selector length: %d", len(selector))
	}

	methodID := selector[:4]
	for _, method := range parsedABI.Methods {
		if bytes.Equal(method.ID, methodID) {
			m := method
			return &m, nil
		}
	}

	return nil, fmt.Errorf("no matching method found for selector: 0x%x", methodID)
}
