package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/signature"
	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

type eoaView struct {
	OwnerIndex uint8
	R          string
	S          string
	V          uint8
}

type webAuthnView struct {
	OwnerIndex        uint8
	AuthenticatorData string
	ClientDataJSON    string
	Challenge         string
	Origin            string
	ChallengeIndex    *big.Int
	TypeIndex         *big.Int
	R                 string
	S                 string
	LowS              bool
}

var (
	inspectNoColor bool

	inspectSignatureCmd = &cobra.Command{
		Use:   "inspect-signature <signature>",
		Short: "Decode a SignatureWrapper",
		Long:  `Decode a hex encoded SignatureWrapper and print the owner index and the EOA or WebAuthn payload.`,
		Args:  exactlyOneHexArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hexutil.Decode(cleanList(args)[0])
			if err != nil {
				return fmt.Errorf("invalid signature hex: %w", err)
			}

			view, err := describeSignature(raw)
			if err != nil {
				return err
			}

			printer := pp.New()
			printer.SetOutput(cmd.OutOrStdout())
			printer.SetColoringEnabled(!inspectNoColor)
			printer.Println(view)
			return nil
		},
	}
)

func describeSignature(raw []byte) (interface{}, error) {
	wrapper, err := signature.DecodeSignatureWrapper(raw)
	if err != nil {
		return nil, err
	}

	if len(wrapper.SignatureData) == signature.EOASignatureLength {
		return eoaView{
			OwnerIndex: wrapper.OwnerIndex,
			R:          hexutil.Encode(wrapper.SignatureData[:32]),
			S:          hexutil.Encode(wrapper.SignatureData[32:64]),
			V:          wrapper.SignatureData[64],
		}, nil
	}

	auth, err := signature.DecodeWebAuthnAuth(wrapper.SignatureData)
	if err != nil {
		return nil, fmt.Errorf("signature data is neither a 65 byte EOA signature nor a WebAuthnAuth: %w", err)
	}

	view := webAuthnView{
		OwnerIndex:        wrapper.OwnerIndex,
		AuthenticatorData: hexutil.Encode(auth.AuthenticatorData),
		ClientDataJSON:    string(auth.ClientDataJSON),
		ChallengeIndex:    auth.ChallengeIndex,
		TypeIndex:         auth.TypeIndex,
		R:                 hexutil.EncodeBig(auth.R),
		S:                 hexutil.EncodeBig(auth.S),
		LowS:              webauthn.IsLowS(auth.S, webauthn.P256N),
	}
	if cd, challenge, err := webauthn.ParseClientData(auth.ClientDataJSON); err == nil {
		view.Challenge = hexutil.Encode(challenge)
		view.Origin = cd.Origin
	}
	return view, nil
}

func init() {
	rootCmd.AddCommand(inspectSignatureCmd)

	inspectSignatureCmd.Flags().BoolVar(&inspectNoColor, "no-color", false, "disable colored output")
}
