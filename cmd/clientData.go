package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

var (
	clientDataOrigin string

	clientDataCmd = &cobra.Command{
		Use:   "client-data <challenge>",
		Short: "Print the WebAuthn client data json for a challenge",
		Long: `Print the client data json a passkey signs for the hex encoded challenge, usually a user
operation hash, along with the typeIndex and challengeIndex the wallet verifies.`,
		Args: exactlyOneHexArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			challenge, err := hexutil.Decode(cleanList(args)[0])
			if err != nil {
				return fmt.Errorf("invalid challenge: %w", err)
			}

			if err := webauthn.ValidateOrigin(clientDataOrigin); err != nil {
				return err
			}
			clientDataJSON := webauthn.BuildClientDataJSON(challenge, clientDataOrigin)
			challengeIndex, err := webauthn.ChallengeIndex(clientDataJSON)
			if err != nil {
				return err
			}
			typeIndex, err := webauthn.TypeIndex(clientDataJSON)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, clientDataJSON)
			fmt.Fprintf(w, "typeIndex: %d\n", typeIndex)
			fmt.Fprintf(w, "challengeIndex: %d\n", challengeIndex)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(clientDataCmd)

	clientDataCmd.Flags().StringVar(&clientDataOrigin, "origin", webauthn.DefaultOrigin, "relying party origin")
}
