package cmd

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/replayable-aa/core/chainio/aa"
	"github.com/AvaProtocol/replayable-aa/pkg/byte4"
)

// parseOwners accepts 20 byte addresses and 64 byte x || y passkey public keys.
func parseOwners(raw []string) ([][]byte, error) {
	owners := make([][]byte, 0, len(raw))
	for _, s := range cleanList(raw) {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("owner %s: %w", s, err)
		}
		switch len(b) {
		case common.AddressLength:
			owners = append(owners, common.LeftPadBytes(b, 32))
		case 64:
			owners = append(owners, b)
		default:
			return nil, fmt.Errorf("owner %s: expected an address or a 64 byte public key, got %d bytes", s, len(b))
		}
	}
	return owners, nil
}

func parseHexList(raw []string) ([][]byte, error) {
	out := make([][]byte, 0, len(raw))
	for _, s := range cleanList(raw) {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %s: %w", s, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// exactlyOneHexArg is cobra.ExactArgs(1) that also rejects a blank argument.
func exactlyOneHexArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if len(cleanList(args)) == 0 {
		return fmt.Errorf("%s: argument must be a non-empty hex string", cmd.Name())
	}
	return nil
}

// cleanList trims entries, drops empty ones and adds a missing 0x prefix.
func cleanList(raw []string) []string {
	return lo.FilterMap(raw, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", false
		}
		if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
			s = "0x" + s
		}
		return s, true
	})
}

func toGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -9).String()
}

// describeCalls names each call by its wallet method, or by its raw selector when the wallet ABI
// has no match.
func describeCalls(calls [][]byte) []string {
	walletABI, abiErr := aa.WalletABI()
	return lo.Map(calls, func(c []byte, _ int) string {
		if abiErr == nil {
			if m, err := byte4.GetMethodFromCalldata(*walletABI, c); err == nil {
				return m.Name
			}
		}
		return hexutil.Encode(c[:min(len(c), 4)])
	})
}

// ownerCalls turns --add-owner and --remove-owner values into wallet calls. Added owners are
// addresses or 64 byte passkey keys; removals are "<index>:<owner>".
func ownerCalls(add, remove []string) ([][]byte, error) {
	added, err := parseOwners(add)
	if err != nil {
		return nil, err
	}

	calls := make([][]byte, 0, len(added)+len(remove))
	for _, owner := range added {
		var call []byte
		if len(owner) == 64 {
			pub := &ecdsa.PublicKey{
				Curve: elliptic.P256(),
				X:     new(big.Int).SetBytes(owner[:32]),
				Y:     new(big.Int).SetBytes(owner[32:]),
			}
			call, err = aa.PackAddOwnerPublicKey(pub)
		} else {
			call, err = aa.PackAddOwnerAddress(common.BytesToAddress(owner))
		}
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	for _, r := range lo.Compact(lo.Map(remove, func(s string, _ int) string { return strings.TrimSpace(s) })) {
		index, owner, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("remove owner %q: expected <index>:<owner>", r)
		}
		i, ok := new(big.Int).SetString(index, 10)
		if !ok || i.Sign() < 0 {
			return nil, fmt.Errorf("remove owner %q: invalid index", r)
		}
		encoded, err := parseOwners([]string{owner})
		if err != nil {
			return nil, fmt.Errorf("remove owner %q: %w", r, err)
		}
		call, err := aa.PackRemoveOwnerAtIndex(i, encoded[0])
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}
