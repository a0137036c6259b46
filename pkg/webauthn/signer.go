package webauthn

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
)

// P256Signer produces a raw ECDSA P-256 signature over message (the signer hashes it with SHA-256,
// as authenticators do). The returned s may be in either half of the curve order.
type P256Signer interface {
	Sign(message []byte) (r, s *big.Int, err error)
}

// Assertion is a normalized WebAuthn assertion ready to be wrapped into a WebAuthnAuth struct.
type Assertion struct {
	AuthenticatorData []byte
	ClientDataJSON    string
	R                 *big.Int
	S                 *big.Int
}

// Sign builds the client data for challenge, asks signer to sign authenticatorData ||
// sha256(clientDataJSON) and normalizes s to the lower half of the P-256 order.
func Sign(signer P256Signer, challenge, authenticatorData []byte, origin string) (*Assertion, error) {
	if signer == nil {
		return nil, errors.New("p256 signer is required")
	}
	if err := ValidateOrigin(origin); err != nil {
		return nil, err
	}

	clientDataJSON := BuildClientDataJSON(challenge, origin)
	r, s, err := signer.Sign(SigningMessage(authenticatorData, clientDataJSON))
	if err != nil {
		return nil, fmt.Errorf("p256 sign: %w", err)
	}
	if r == nil || s == nil {
		return nil, errors.New("p256 signer returned an empty signature")
	}

	r, s = NormalizeLowS(r, s, P256N)
	return &Assertion{
		AuthenticatorData: authenticatorData,
		ClientDataJSON:    clientDataJSON,
		R:                 r,
		S:                 s,
	}, nil
}

// KeySigner signs with an in-process P-256 private key. Useful for tests and for software passkeys.
type KeySigner struct {
	key *ecdsa.PrivateKey
}

func NewKeySigner(key *ecdsa.PrivateKey) (*KeySigner, error) {
	if key == nil || key.Curve != elliptic.P256() {
		return nil, errors.New("key must be a P-256 private key")
	}
	return &KeySigner{key: key}, nil
}

func GenerateKeySigner() (*KeySigner, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeySigner{key: key}, nil
}

func (k *KeySigner) Sign(message []byte) (*big.Int, *big.Int, error) {
	digest := sha256.Sum256(message)
	return ecdsa.Sign(rand.Reader, k.key, digest[:])
}

func (k *KeySigner) PublicKey() *ecdsa.PublicKey {
	return &k.key.PublicKey
}

// PublicKeyBytes returns x || y, each left-padded to 32 bytes, the owner encoding the wallet expects
// for passkey owners.
func (k *KeySigner) PublicKeyBytes() []byte {
	out := make([]byte, 64)
	k.key.PublicKey.X.FillBytes(out[:32])
	k.key.PublicKey.Y.FillBytes(out[32:])
	return out
}
