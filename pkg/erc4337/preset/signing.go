package preset

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/replayable-aa/core/chainio/signer"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/signature"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

// SignWithEOA signs the chain agnostic hash of op with key and sets op.Signature to the wrapped
// r || s || v. The wallet verifies the raw hash, so no EIP-191 prefix is applied.
func SignWithEOA(op *userop.UserOperation, entryPoint common.Address, key *ecdsa.PrivateKey, ownerIndex uint8) error {
	hash := op.GetUserOpHashWithoutChainId(entryPoint)
	sig, err := signer.SignHash(key, hash)
	if err != nil {
		return fmt.Errorf("failed to sign user operation: %w", err)
	}

	wrapped, err := signature.EncodeEOASignatureBytes(ownerIndex, sig)
	if err != nil {
		return err
	}
	op.Signature = wrapped
	return nil
}

// SignWithPasskey uses the chain agnostic hash of op as the WebAuthn challenge, has p256 produce
// the assertion, normalizes s and sets op.Signature to the wrapped WebAuthnAuth.
func SignWithPasskey(op *userop.UserOperation, entryPoint common.Address, p256 webauthn.P256Signer, authenticatorData []byte, ownerIndex uint8, origin string) error {
	hash := op.GetUserOpHashWithoutChainId(entryPoint)

	assertion, err := webauthn.Sign(p256, hash.Bytes(), authenticatorData, origin)
	if err != nil {
		return fmt.Errorf("failed to sign user operation: %w", err)
	}

	wrapped, err := signature.EncodeAssertion(ownerIndex, assertion)
	if err != nil {
		return err
	}
	op.Signature = wrapped
	return nil
}
