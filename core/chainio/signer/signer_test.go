package signer

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPrivateKeyHex(t *testing.T) {
	const hexKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	a, err := FromPrivateKeyHex(hexKey)
	require.NoError(t, err)
	b, err := FromPrivateKeyHex("0x" + hexKey)
	require.NoError(t, err)

	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", crypto.PubkeyToAddress(a.PublicKey).Hex())
	assert.Equal(t, a.D, b.D)

	_, err = FromPrivateKeyHex("0xzz")
	assert.Error(t, err)
}

func TestSignHash_Recoverable(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hash := crypto.Keccak256Hash([]byte("user operation"))

	sig, err := SignHash(key, hash)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	sig[64] -= 27
	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(*pub))

	hexSig, err := SignHashAsHex(key, hash)
	require.NoError(t, err)
	assert.Len(t, hexSig, 2+130)

	_, err = SignHash(nil, hash)
	assert.Error(t, err)
}

func TestP256FromPrivateKeyHex(t *testing.T) {
	key, err := P256FromPrivateKeyHex("0x0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, key.Curve.Params().Gx, key.X)
	assert.Equal(t, key.Curve.Params().Gy, key.Y)

	digest := sha256.Sum256([]byte("assertion"))
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	require.NoError(t, err)
	assert.True(t, ecdsa.Verify(&key.PublicKey, digest[:], r, s))

	for _, bad := range []string{
		"0x00",
		"0x0000000000000000000000000000000000000000000000000000000000000000",
		"0xffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551",
		"nothex",
	} {
		_, err := P256FromPrivateKeyHex(bad)
		assert.Error(t, err, bad)
	}
}
