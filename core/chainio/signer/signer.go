package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// FromPrivateKeyHex parses a secp256k1 private key, with or without the 0x prefix.
func FromPrivateKeyHex(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
}

// P256FromPrivateKeyHex parses a 32 byte P-256 scalar, the form software passkeys are exported in.
func P256FromPrivateKeyHex(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	if !strings.HasPrefix(privateKeyHex, "0x") {
		privateKeyHex = "0x" + privateKeyHex
	}
	b, err := hexutil.Decode(privateKeyHex)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("p256 private key must be 32 bytes, got %d", len(b))
	}

	curve := elliptic.P256()
	d := new(big.Int).SetBytes(b)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, errors.New("p256 private key out of range")
	}

	key := &ecdsa.PrivateKey{D: d}
	key.PublicKey.Curve = curve
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(b)
	return key, nil
}

// SignHash signs a 32 byte digest as is, without the EIP-191 prefix, and returns r || s || v with
// v in {27, 28}.
func SignHash(key *ecdsa.PrivateKey, hash common.Hash) ([]byte, error) {
	if key == nil {
		return nil, errors.New("private key is required")
	}

	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return nil, err
	}
	// https://stackoverflow.com/questions/69762108/implementing-ethereum-personal-sign-eip-191-from-go-ethereum-gives-different-s
	sig[64] += 27

	return sig, nil
}

func SignHashAsHex(key *ecdsa.PrivateKey, hash common.Hash) (string, error) {
	signature, e := SignHash(key, hash)
	if e == nil {
		return hexutil.Encode(signature), nil
	}

	return "", e
}
