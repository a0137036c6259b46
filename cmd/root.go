package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/replayable-aa/core/config"
)

// rootCmd represents the base command when called without any subcommands
var (
	configPath = ""
	rootCmd    = &cobra.Command{
		Use:   "replayable-aa",
		Short: "Build and sign replayable ERC-4337 user operations",
		Long: `Build user operations for a multi-owner smart wallet whose signature does not commit to a
chain id, so the same signed operation can be submitted on every network the wallet lives on.

Such as "replayable-aa build-userop --owner 0x..." or "replayable-aa hash-userop op.json"
`,
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.NewConfig(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file, defaults apply when empty")
}
