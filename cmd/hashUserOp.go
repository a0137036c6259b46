package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/userop"
)

var (
	hashChainIds   []int64
	hashEntryPoint string

	hashUserOpCmd = &cobra.Command{
		Use:   "hash-userop [file]",
		Short: "Print the chain agnostic hash of a user operation",
		Long: `Read a user operation as json from file, or stdin when file is "-" or missing, and print the
hash a replayable signature covers. Each --chain-id also prints the regular chain bound hash for
comparison.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			var op userop.UserOperation
			if err := json.Unmarshal(data, &op); err != nil {
				return fmt.Errorf("invalid user operation json: %w", err)
			}

			entryPoint := common.HexToAddress(hashEntryPoint)
			if hashEntryPoint == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				entryPoint = cfg.EntrypointAddress
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "entrypoint: %s\n", entryPoint.Hex())
			fmt.Fprintf(w, "replayable: %s\n", op.GetUserOpHashWithoutChainId(entryPoint).Hex())
			for _, id := range hashChainIds {
				fmt.Fprintf(w, "chain %d: %s\n", id, op.GetUserOpHash(entryPoint, big.NewInt(id)).Hex())
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(hashUserOpCmd)

	hashUserOpCmd.Flags().Int64SliceVar(&hashChainIds, "chain-id", nil, "also print the chain bound hash for this chain id (repeatable)")
	hashUserOpCmd.Flags().StringVar(&hashEntryPoint, "entrypoint", "", "entrypoint address, the configured one when empty")
}
