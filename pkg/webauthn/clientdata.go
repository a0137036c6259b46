// Package webauthn builds the WebAuthn assertion pieces a smart wallet verifies on-chain:
// the client data JSON, the offsets of its "type" and "challenge" keys, and low-S P-256 scalars.
package webauthn

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultOrigin is the relying party origin embedded in client data when none is configured.
	DefaultOrigin = "https://keys.coinbase.com"

	ClientDataTypeGet = "webauthn.get"

	challengeKey = `"challenge":`
	typeKey      = `"type":`
)

var (
	ErrMalformedClientData = errors.New("malformed client data")
	ErrInvalidOrigin       = errors.New("invalid relying party origin")
)

// ClientData is the decoded form of clientDataJSON. Encoding goes through BuildClientDataJSON,
// never json.Marshal, because the verifier works on byte offsets.
type ClientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// BuildClientDataJSON returns
//
//	{"type":"webauthn.get","challenge":"<base64url challenge>","origin":"<origin>"}
//
// with no whitespace and an unpadded challenge. An empty origin falls back to DefaultOrigin. origin
// is written as is; callers check it with ValidateOrigin first.
func BuildClientDataJSON(challenge []byte, origin string) string {
	if origin == "" {
		origin = DefaultOrigin
	}

	var sb strings.Builder
	sb.WriteString(`{"type":"`)
	sb.WriteString(ClientDataTypeGet)
	sb.WriteString(`","challenge":"`)
	sb.WriteString(base64.RawURLEncoding.EncodeToString(challenge))
	sb.WriteString(`","origin":"`)
	sb.WriteString(origin)
	sb.WriteString(`"}`)
	return sb.String()
}

// ValidateOrigin rejects origins that would need escaping inside the client data JSON string.
func ValidateOrigin(origin string) error {
	for _, c := range origin {
		if c == '"' || c == '\\' || c < 0x20 {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidOrigin, origin, c)
		}
	}
	return nil
}

// LocateSubstring returns the byte offset of the first occurrence of literal in clientDataJSON.
func LocateSubstring(clientDataJSON, literal string) (int, error) {
	idx := strings.Index(clientDataJSON, literal)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s not found", ErrMalformedClientData, literal)
	}
	return idx, nil
}

func ChallengeIndex(clientDataJSON string) (int, error) {
	return LocateSubstring(clientDataJSON, challengeKey)
}

func TypeIndex(clientDataJSON string) (int, error) {
	return LocateSubstring(clientDataJSON, typeKey)
}

// ParseClientData decodes clientDataJSON and its base64url challenge.
func ParseClientData(clientDataJSON []byte) (*ClientData, []byte, error) {
	var cd ClientData
	if err := json.Unmarshal(clientDataJSON, &cd); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedClientData, err)
	}

	challenge, err := base64.RawURLEncoding.DecodeString(cd.Challenge)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: challenge is not base64url: %v", ErrMalformedClientData, err)
	}
	return &cd, challenge, nil
}

// SigningMessage is the byte string an authenticator signs: authenticatorData || sha256(clientDataJSON).
func SigningMessage(authenticatorData []byte, clientDataJSON string) []byte {
	clientDataHash := sha256.Sum256([]byte(clientDataJSON))

	msg := make([]byte, 0, len(authenticatorData)+len(clientDataHash))
	msg = append(msg, authenticatorData...)
	msg = append(msg, clientDataHash[:]...)
	return msg
}
