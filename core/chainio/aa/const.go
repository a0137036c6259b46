package aa

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	// EntryPoint v0.6, deployed at the same address on every supported network.
	EntrypointAddress = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	factoryAddress    = common.HexToAddress("0x0BA5ED0c6AA8c49038F819E587E2633c4A9F428a")
)

// FactoryAddress is the default Coinbase Smart Wallet factory; config may override it.
func FactoryAddress() common.Address {
	return factoryAddress
}
