package aa

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// CoinbaseSmartWalletMetaData holds the subset of the wallet ABI this package packs calls for.
var CoinbaseSmartWalletMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct CoinbaseSmartWallet.Call[]","name":"calls","type":"tuple[]"}],"name":"executeBatch","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"bytes[]","name":"calls","type":"bytes[]"}],"name":"executeWithoutChainIdValidation","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"}],"name":"addOwnerAddress","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"x","type":"bytes32"},{"internalType":"bytes32","name":"y","type":"bytes32"}],"name":"addOwnerPublicKey","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"index","type":"uint256"},{"internalType":"bytes","name":"owner","type":"bytes"}],"name":"removeOwnerAtIndex","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"bytes4","name":"functionSelector","type":"bytes4"}],"name":"canSkipChainIdValidation","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"pure","type":"function"}
]`,
}

// CoinbaseSmartWalletFactoryMetaData holds the factory functions used to deploy and locate wallets.
var CoinbaseSmartWalletFactoryMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"internalType":"bytes[]","name":"owners","type":"bytes[]"},{"internalType":"uint256","name":"nonce","type":"uint256"}],"name":"createAccount","outputs":[{"internalType":"contract CoinbaseSmartWallet","name":"account","type":"address"}],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"bytes[]","name":"owners","type":"bytes[]"},{"internalType":"uint256","name":"nonce","type":"uint256"}],"name":"getAddress","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`,
}

// EntryPointMetaData holds the EntryPoint v0.6 view functions used when building operations.
var EntryPointMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"internalType":"address","name":"sender","type":"address"},{"internalType":"uint192","name":"key","type":"uint192"}],"name":"getNonce","outputs":[{"internalType":"uint256","name":"nonce","type":"uint256"}],"stateMutability":"view","type":"function"}
]`,
}
