package cmd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/replayable-aa/core/chainio/aa"
	"github.com/AvaProtocol/replayable-aa/core/chainio/signer"
	"github.com/AvaProtocol/replayable-aa/pkg/eip1559"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/preset"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/signature"
	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

var (
	buildOwners       []string
	buildCalls        []string
	buildAddOwners    []string
	buildRemoveOwners []string
	buildAccount      string
	buildPasskey      bool
	buildOwnerIndex   uint8
	buildFactoryIndex int64
	buildOut          string
	buildPrivateKey   string
	buildPasskeyKey   string

	buildUserOpCmd = &cobra.Command{
		Use:   "build-userop",
		Short: "Build a replayable user operation",
		Long: `Build a user operation that calls executeWithoutChainIdValidation with the given calls.

The account is derived from --owner through the factory when --account is not given. Gas is
estimated by the configured bundler. Pass --private-key or --passkey-key to sign the result,
otherwise it carries a dummy signature of the right size.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			owners, err := parseOwners(buildOwners)
			if err != nil {
				return err
			}
			calls, err := parseHexList(buildCalls)
			if err != nil {
				return err
			}
			managed, err := ownerCalls(buildAddOwners, buildRemoveOwners)
			if err != nil {
				return err
			}
			calls = append(calls, managed...)
			cfg.Logger.Debug("wallet calls", "methods", describeCalls(calls))
			if len(owners) == 0 && buildAccount == "" {
				return fmt.Errorf("either --account or at least one --owner is required")
			}

			client, err := ethclient.DialContext(ctx, cfg.EthRpcUrl)
			if err != nil {
				return fmt.Errorf("cannot dial %s: %w", cfg.EthRpcUrl, err)
			}
			defer client.Close()

			bundlerClient, err := bundler.NewBundlerClient(cfg.BundlerUrl, bundler.WithLogger(cfg.Logger))
			if err != nil {
				return err
			}
			defer bundlerClient.Close()

			entryPoint, err := aa.NewEntryPointReader(cfg.EntrypointAddress, client)
			if err != nil {
				return err
			}

			factoryIndex := big.NewInt(buildFactoryIndex)
			account := common.HexToAddress(buildAccount)
			if buildAccount == "" {
				account, err = aa.GetSenderAddress(ctx, client, cfg.FactoryAddress, owners, factoryIndex)
				if err != nil {
					return err
				}
				cfg.Logger.Info("derived account from owners", "account", account.Hex())
			}

			walletReader, err := aa.NewWalletReader(client)
			if err != nil {
				return err
			}
			opts := cfg.BuilderOptions()
			opts.Selectors = walletReader

			passkey := buildPasskey || buildPasskeyKey != ""
			builder := preset.NewBuilder(client, entryPoint, eip1559.NewEstimator(client), bundlerClient, aa.NewFactory(cfg.FactoryAddress), opts)
			op, err := builder.BuildReplayableUserOp(ctx, preset.ReplayableRequest{
				Account:       account,
				Owners:        owners,
				FactoryIndex:  factoryIndex,
				Calls:         calls,
				NonceKey:      cfg.NonceKey,
				PasskeySigner: passkey,
				OwnerIndex:    buildOwnerIndex,
			})
			if err != nil {
				return err
			}

			switch {
			case buildPrivateKey != "":
				key, err := signer.FromPrivateKeyHex(buildPrivateKey)
				if err != nil {
					return fmt.Errorf("invalid --private-key: %w", err)
				}
				if err := preset.SignWithEOA(op, builder.EntryPoint(), key, buildOwnerIndex); err != nil {
					return err
				}
			case buildPasskeyKey != "":
				key, err := signer.P256FromPrivateKeyHex(buildPasskeyKey)
				if err != nil {
					return fmt.Errorf("invalid --passkey-key: %w", err)
				}
				ks, err := webauthn.NewKeySigner(key)
				if err != nil {
					return err
				}
				if err := preset.SignWithPasskey(op, builder.EntryPoint(), ks, signature.DummyAuthenticatorData, buildOwnerIndex, cfg.RelyingPartyOrigin); err != nil {
					return err
				}
			}

			cfg.Logger.Info("user operation ready",
				"hash", op.GetUserOpHashWithoutChainId(builder.EntryPoint()).Hex(),
				"maxFeePerGasGwei", toGwei(op.MaxFeePerGas),
				"maxPriorityFeePerGasGwei", toGwei(op.MaxPriorityFeePerGas))

			out, err := json.MarshalIndent(op, "", "  ")
			if err != nil {
				return err
			}
			if buildOut != "" {
				return os.WriteFile(buildOut, append(out, '\n'), 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(buildUserOpCmd)

	buildUserOpCmd.Flags().StringSliceVar(&buildOwners, "owner", nil, "wallet owner, an address or a 64 byte passkey public key (repeatable)")
	buildUserOpCmd.Flags().StringSliceVar(&buildCalls, "call", nil, "wallet calldata to replay on every chain (repeatable)")
	buildUserOpCmd.Flags().StringSliceVar(&buildAddOwners, "add-owner", nil, "add an owner, an address or a 64 byte passkey public key (repeatable)")
	buildUserOpCmd.Flags().StringArrayVar(&buildRemoveOwners, "remove-owner", nil, "remove the owner at <index>:<owner> (repeatable)")
	buildUserOpCmd.Flags().StringVar(&buildAccount, "account", "", "wallet address, derived from --owner when empty")
	buildUserOpCmd.Flags().BoolVar(&buildPasskey, "passkey", false, "size the dummy signature for a passkey owner")
	buildUserOpCmd.Flags().Uint8Var(&buildOwnerIndex, "owner-index", 0, "index of the signing owner in the wallet")
	buildUserOpCmd.Flags().Int64Var(&buildFactoryIndex, "factory-index", 0, "salt nonce passed to the factory")
	buildUserOpCmd.Flags().StringVar(&buildPrivateKey, "private-key", "", "secp256k1 owner key to sign with")
	buildUserOpCmd.Flags().StringVar(&buildPasskeyKey, "passkey-key", "", "P-256 owner key to sign with as a software passkey")
	buildUserOpCmd.Flags().StringVarP(&buildOut, "out", "o", "", "write the operation json to this file")
}
