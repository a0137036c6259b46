// Package signature encodes the SignatureWrapper a multi-owner smart wallet dispatches on:
// abi.encode((uint8 ownerIndex, bytes signatureData)) where signatureData is either a packed
// secp256k1 signature or an abi-encoded WebAuthnAuth struct.
package signature

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

const (
	// EOASignatureLength is len(r || s || v).
	EOASignatureLength = 65
)

var (
	ErrMalformedClientData    = webauthn.ErrMalformedClientData
	ErrInvalidSignatureLength = errors.New("invalid signature length")
	ErrEncoding               = errors.New("abi encoding failed")

	// DummyAuthenticatorData is a real 37 byte authenticator data sample (rpIdHash, UP|UV flags,
	// zero counter) so dummy WebAuthn signatures have the size of a genuine assertion.
	DummyAuthenticatorData = []byte{
		0x49, 0x96, 0x0d, 0xe5, 0x88, 0x0e, 0x8c, 0x68, 0x74, 0x34, 0x17, 0x0f, 0x64, 0x76, 0x60, 0x5b,
		0x8f, 0xe4, 0xae, 0xb9, 0xa2, 0x86, 0x32, 0xc7, 0x99, 0x5c, 0xf3, 0xba, 0x83, 0x1d, 0x97, 0x63,
		0x05, 0x00, 0x00, 0x00, 0x00,
	}
)

// SignatureWrapper identifies which registered owner produced SignatureData.
type SignatureWrapper struct {
	OwnerIndex    uint8
	SignatureData []byte
}

// WebAuthnAuth mirrors the wallet's WebAuthn.WebAuthnAuth struct.
type WebAuthnAuth struct {
	AuthenticatorData []byte
	ClientDataJSON    []byte
	ChallengeIndex    *big.Int
	TypeIndex         *big.Int
	R                 *big.Int
	S                 *big.Int
}

var (
	signatureWrapperType, _ = abi.NewType("tuple", "SignatureWrapper", []abi.ArgumentMarshaling{
		{Name: "ownerIndex", Type: "uint8"},
		{Name: "signatureData", Type: "bytes"},
	})
	webAuthnAuthType, _ = abi.NewType("tuple", "WebAuthnAuth", []abi.ArgumentMarshaling{
		{Name: "authenticatorData", Type: "bytes"},
		{Name: "clientDataJSON", Type: "bytes"},
		{Name: "challengeIndex", Type: "uint256"},
		{Name: "typeIndex", Type: "uint256"},
		{Name: "r", Type: "uint256"},
		{Name: "s", Type: "uint256"},
	})

	signatureWrapperArgs = abi.Arguments{{Type: signatureWrapperType}}
	webAuthnAuthArgs     = abi.Arguments{{Type: webAuthnAuthType}}
)

// Encode returns abi.encode(wrapper).
func (w SignatureWrapper) Encode() ([]byte, error) {
	out, err := signatureWrapperArgs.Pack(w)
	if err != nil {
		return nil, fmt.Errorf("%w: SignatureWrapper: %v", ErrEncoding, err)
	}
	return out, nil
}

// Encode returns abi.encode(auth).
func (a WebAuthnAuth) Encode() ([]byte, error) {
	a.ChallengeIndex = orZero(a.ChallengeIndex)
	a.TypeIndex = orZero(a.TypeIndex)
	a.R = orZero(a.R)
	a.S = orZero(a.S)

	for _, v := range []struct {
		name  string
		value *big.Int
	}{{"r", a.R}, {"s", a.S}, {"challengeIndex", a.ChallengeIndex}, {"typeIndex", a.TypeIndex}} {
		if v.value.Sign() < 0 || v.value.BitLen() > 256 {
			return nil, fmt.Errorf("%w: %s does not fit in uint256", ErrInvalidSignatureLength, v.name)
		}
	}

	out, err := webAuthnAuthArgs.Pack(a)
	if err != nil {
		return nil, fmt.Errorf("%w: WebAuthnAuth: %v", ErrEncoding, err)
	}
	return out, nil
}

// EncodeEOASignature wraps r || s || v for the owner at ownerIndex.
func EncodeEOASignature(ownerIndex uint8, r, s [32]byte, v uint8) ([]byte, error) {
	data := make([]byte, 0, EOASignatureLength)
	data = append(data, r[:]...)
	data = append(data, s[:]...)
	data = append(data, v)

	return SignatureWrapper{OwnerIndex: ownerIndex, SignatureData: data}.Encode()
}

// EncodeEOASignatureBytes wraps a 65 byte r || s || v signature, e.g. the output of crypto.Sign
// with v already moved to 27/28.
func EncodeEOASignatureBytes(ownerIndex uint8, sig []byte) ([]byte, error) {
	if len(sig) != EOASignatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignatureLength, EOASignatureLength, len(sig))
	}

	var r, s [32]byte
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	return EncodeEOASignature(ownerIndex, r, s, sig[64])
}

// EncodeWebAuthnSignature locates the "challenge" and "type" keys in clientDataJSON and wraps the
// resulting WebAuthnAuth for the owner at ownerIndex. s is expected to be low-S already.
func EncodeWebAuthnSignature(ownerIndex uint8, authenticatorData, clientDataJSON []byte, r, s *big.Int) ([]byte, error) {
	challengeIndex, err := webauthn.ChallengeIndex(string(clientDataJSON))
	if err != nil {
		return nil, err
	}
	typeIndex, err := webauthn.TypeIndex(string(clientDataJSON))
	if err != nil {
		return nil, err
	}

	auth, err := WebAuthnAuth{
		AuthenticatorData: authenticatorData,
		ClientDataJSON:    clientDataJSON,
		ChallengeIndex:    big.NewInt(int64(challengeIndex)),
		TypeIndex:         big.NewInt(int64(typeIndex)),
		R:                 r,
		S:                 s,
	}.Encode()
	if err != nil {
		return nil, err
	}

	return SignatureWrapper{OwnerIndex: ownerIndex, SignatureData: auth}.Encode()
}

// EncodeAssertion wraps a normalized webauthn.Assertion.
func EncodeAssertion(ownerIndex uint8, a *webauthn.Assertion) ([]byte, error) {
	return EncodeWebAuthnSignature(ownerIndex, a.AuthenticatorData, []byte(a.ClientDataJSON), a.R, a.S)
}

// DummyEOASignature has the shape of a real EOA signature with r = s = v = 0. Gas estimation only.
func DummyEOASignature(ownerIndex uint8) ([]byte, error) {
	return EncodeEOASignature(ownerIndex, [32]byte{}, [32]byte{}, 0)
}

// DummyWebAuthnSignature has the shape of a real passkey signature over challenge with r = s = 0.
// Gas estimation only.
func DummyWebAuthnSignature(ownerIndex uint8, challenge []byte, origin string) ([]byte, error) {
	if err := webauthn.ValidateOrigin(origin); err != nil {
		return nil, err
	}
	clientDataJSON := webauthn.BuildClientDataJSON(challenge, origin)
	return EncodeWebAuthnSignature(ownerIndex, DummyAuthenticatorData, []byte(clientDataJSON), new(big.Int), new(big.Int))
}

// DecodeSignatureWrapper is the inverse of SignatureWrapper.Encode, matching the wallet's
// abi.decode(signature, (SignatureWrapper)).
func DecodeSignatureWrapper(b []byte) (*SignatureWrapper, error) {
	values, err := signatureWrapperArgs.Unpack(b)
	if err != nil {
		return nil, fmt.Errorf("decode SignatureWrapper: %w", err)
	}

	out := abi.ConvertType(values[0], new(SignatureWrapper)).(*SignatureWrapper)
	return out, nil
}

// DecodeWebAuthnAuth is the inverse of WebAuthnAuth.Encode.
func DecodeWebAuthnAuth(b []byte) (*WebAuthnAuth, error) {
	values, err := webAuthnAuthArgs.Unpack(b)
	if err != nil {
		return nil, fmt.Errorf("decode WebAuthnAuth: %w", err)
	}

	out := abi.ConvertType(values[0], new(WebAuthnAuth)).(*WebAuthnAuth)
	return out, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
