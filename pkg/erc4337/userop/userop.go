// Package userop models an ERC-4337 (EntryPoint v0.6) UserOperation and the hashes signers commit to.
package userop

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation represents an EIP-4337 style transaction for a smart contract account.
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

var (
	addressT, _ = abi.NewType("address", "", nil)
	uint256T, _ = abi.NewType("uint256", "", nil)
	bytes32T, _ = abi.NewType("bytes32", "", nil)

	packedUserOpArgs = abi.Arguments{
		{Name: "sender", Type: addressT},
		{Name: "nonce", Type: uint256T},
		{Name: "initCode", Type: bytes32T},
		{Name: "callData", Type: bytes32T},
		{Name: "callGasLimit", Type: uint256T},
		{Name: "verificationGasLimit", Type: uint256T},
		{Name: "preVerificationGas", Type: uint256T},
		{Name: "maxFeePerGas", Type: uint256T},
		{Name: "maxPriorityFeePerGas", Type: uint256T},
		{Name: "paymasterAndData", Type: bytes32T},
	}

	withEntryPointArgs = abi.Arguments{
		{Name: "userOpHash", Type: bytes32T},
		{Name: "entryPoint", Type: addressT},
	}

	withEntryPointAndChainArgs = abi.Arguments{
		{Name: "userOpHash", Type: bytes32T},
		{Name: "entryPoint", Type: addressT},
		{Name: "chainId", Type: uint256T},
	}
)

// Pack ABI-encodes every field except the signature, with the dynamic fields replaced by their
// keccak256 digests, in the order the EntryPoint hashes them.
func (op *UserOperation) Pack() []byte {
	packed, err := packedUserOpArgs.Pack(
		op.Sender,
		orZero(op.Nonce),
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		orZero(op.CallGasLimit),
		orZero(op.VerificationGasLimit),
		orZero(op.PreVerificationGas),
		orZero(op.MaxFeePerGas),
		orZero(op.MaxPriorityFeePerGas),
		crypto.Keccak256Hash(op.PaymasterAndData),
	)
	if err != nil {
		// every argument has a fixed static type; failure means the argument list itself is wrong
		panic(err)
	}
	return packed
}

// GetUserOpHashWithoutChainId returns keccak256(abi.encode(keccak256(Pack()), entryPoint)).
// The result does not commit to a chain id, so one signature over it is valid on every network
// where the same wallet and entry point are deployed.
func (op *UserOperation) GetUserOpHashWithoutChainId(entryPoint common.Address) common.Hash {
	inner := crypto.Keccak256Hash(op.Pack())
	encoded, err := withEntryPointArgs.Pack(inner, entryPoint)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(encoded)
}

// GetUserOpHash returns the chain bound hash EntryPoint.getUserOpHash computes.
func (op *UserOperation) GetUserOpHash(entryPoint common.Address, chainID *big.Int) common.Hash {
	inner := crypto.Keccak256Hash(op.Pack())
	encoded, err := withEntryPointAndChainArgs.Pack(inner, entryPoint, orZero(chainID))
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(encoded)
}

// Clone returns a deep copy.
func (op *UserOperation) Clone() *UserOperation {
	return &UserOperation{
		Sender:               op.Sender,
		Nonce:                cloneInt(op.Nonce),
		InitCode:             common.CopyBytes(op.InitCode),
		CallData:             common.CopyBytes(op.CallData),
		CallGasLimit:         cloneInt(op.CallGasLimit),
		VerificationGasLimit: cloneInt(op.VerificationGasLimit),
		PreVerificationGas:   cloneInt(op.PreVerificationGas),
		MaxFeePerGas:         cloneInt(op.MaxFeePerGas),
		MaxPriorityFeePerGas: cloneInt(op.MaxPriorityFeePerGas),
		PaymasterAndData:     common.CopyBytes(op.PaymasterAndData),
		Signature:            common.CopyBytes(op.Signature),
	}
}

// wireUserOperation is the bundler RPC representation: quantities and byte strings as 0x hex.
type wireUserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

func (op UserOperation) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireUserOperation{
		Sender:               op.Sender,
		Nonce:                (*hexutil.Big)(orZero(op.Nonce)),
		InitCode:             nonNil(op.InitCode),
		CallData:             nonNil(op.CallData),
		CallGasLimit:         (*hexutil.Big)(orZero(op.CallGasLimit)),
		VerificationGasLimit: (*hexutil.Big)(orZero(op.VerificationGasLimit)),
		PreVerificationGas:   (*hexutil.Big)(orZero(op.PreVerificationGas)),
		MaxFeePerGas:         (*hexutil.Big)(orZero(op.MaxFeePerGas)),
		MaxPriorityFeePerGas: (*hexutil.Big)(orZero(op.MaxPriorityFeePerGas)),
		PaymasterAndData:     nonNil(op.PaymasterAndData),
		Signature:            nonNil(op.Signature),
	})
}

func (op *UserOperation) UnmarshalJSON(data []byte) error {
	var w wireUserOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*op = UserOperation{
		Sender:               w.Sender,
		Nonce:                w.Nonce.ToInt(),
		InitCode:             w.InitCode,
		CallData:             w.CallData,
		CallGasLimit:         w.CallGasLimit.ToInt(),
		VerificationGasLimit: w.VerificationGasLimit.ToInt(),
		PreVerificationGas:   w.PreVerificationGas.ToInt(),
		MaxFeePerGas:         w.MaxFeePerGas.ToInt(),
		MaxPriorityFeePerGas: w.MaxPriorityFeePerGas.ToInt(),
		PaymasterAndData:     w.PaymasterAndData,
		Signature:            w.Signature,
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func nonNil(b []byte) hexutil.Bytes {
	if b == nil {
		return hexutil.Bytes{}
	}
	return b
}
