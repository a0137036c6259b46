package byte4

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const walletABI = `[
	{"inputs":[{"name":"calls","type":"bytes[]"}],"name":"executeWithoutChainIdValidation","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"owner","type":"address"}],"name":"addOwnerAddress","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

func TestGetMethodFromCalldata(t *testing.T) {
	parsedABI, err := abi.JSON(strings.NewReader(walletABI))
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}

	decodeHex := func(s string) []byte {
		b, err := hex.DecodeString(s)
		if err != nil {
			t.Fatalf("failed to decode hex: %v", err)
		}
		return b
	}

	tests := []struct {
		name        string
		selector    []byte
		wantMethod  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "executeWithoutChainIdValidation selector only",
			selector:   decodeHex("2c2abd1e"),
			wantMethod: "executeWithoutChainIdValidation",
		},
		{
			name:       "addOwnerAddress full calldata",
			selector:   decodeHex("0f0f3f24000000000000000000000000578b110b0a7c06e66b7b1a33c39635304aaf733c"),
			wantMethod: "addOwnerAddress",
		},
		{
			name:       "execute selector",
			selector:   decodeHex("b61d27f6"),
			wantMethod: "execute",
		},
		{
			name:        "invalid selector length",
			selector:    []byte{0x2c, 0x2a},
			wantErr:     true,
			errContains: "invalid selector length",
		},
		{
			name:        "unknown selector",
			selector:    decodeHex("12345678"),
			wantErr:     true,
			errContains: "no matching method found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, err := GetMethodFromCalldata(parsedABI, tt.selector)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
				}
				if method != nil {
					t.Error("expected nil method but got non-nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if method.Name != tt.wantMethod {
				t.Errorf("got method %q, want %q", method.Name, tt.wantMethod)
			}
		})
	}
}

func TestSelector(t *testing.T) {
	tests := map[string]string{
		"executeWithoutChainIdValidation(bytes[])": "2c2abd1e",
		"createAccount(bytes[],uint256)":           "3ffba36f",
		"getNonce(address,uint192)":                "35567e1a",
	}

	for sig, want := range tests {
		if got := hex.EncodeToString(Selector(sig)); got != want {
			t.Errorf("Selector(%q) = %s, want %s", sig, got, want)
		}
	}
}
