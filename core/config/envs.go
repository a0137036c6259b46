package config

import "math/big"

const (
	DefaultBundlerURL = "http://localhost:4337"
	DefaultEthRpcURL  = "http://localhost:8545"
)

var (
	// DefaultNonceKey is the nonce namespace shared by every chain an operation is replayed on.
	DefaultNonceKey = big.NewInt(8453)
)
