package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/replayable-aa/pkg/logger"
)

const receiptPollInterval = 2 * time.Second

var (
	sendBundlers []string
	sendWait     time.Duration

	sendUserOpCmd = &cobra.Command{
		Use:   "send-userop <file>",
		Short: "Submit a signed replayable user operation to one or more bundlers",
		Long: `Submit the same signed user operation to every --bundler, typically one per chain. The
configured bundler is used when none is given. With --wait, poll each bundler for the receipt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var op userop.UserOperation
			if err := json.Unmarshal(data, &op); err != nil {
				return fmt.Errorf("invalid user operation json: %w", err)
			}

			urls := lo.Uniq(cleanURLs(sendBundlers))
			if len(urls) == 0 {
				urls = []string{cfg.BundlerUrl}
			}

			results, err := broadcast(cmd.Context(), urls, op, cfg.EntrypointAddress, sendWait, cfg.Logger)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.url, r.status())
			}
			return err
		},
	}
)

type sendResult struct {
	url     string
	hash    string
	receipt *bundler.UserOperationReceipt
	err     error
}

func (r sendResult) status() string {
	switch {
	case r.err != nil:
		return "error: " + r.err.Error()
	case r.receipt != nil:
		return fmt.Sprintf("%s included in %s success=%t", r.hash, r.receipt.Receipt.TransactionHash.Hex(), r.receipt.Success)
	default:
		return r.hash
	}
}

// broadcast submits op to every bundler concurrently. A failure on one bundler does not stop the
// others; the first error is returned after all of them finish.
func broadcast(ctx context.Context, urls []string, op userop.UserOperation, entryPoint common.Address, wait time.Duration, l logger.Logger) ([]sendResult, error) {
	l = logger.EnsureLogger(l)
	results := make([]sendResult, len(urls))

	var g errgroup.Group
	for i, url := range urls {
		g.Go(func() error {
			results[i] = sendOne(ctx, url, op, entryPoint, wait, l)
			return results[i].err
		})
	}
	return results, g.Wait()
}

func sendOne(ctx context.Context, url string, op userop.UserOperation, entryPoint common.Address, wait time.Duration, l logger.Logger) sendResult {
	res := sendResult{url: url}

	client, err := bundler.NewBundlerClient(url, bundler.WithLogger(l))
	if err != nil {
		res.err = err
		return res
	}
	defer client.Close()

	supported, err := client.SupportedEntryPoints(ctx)
	if err != nil {
		res.err = fmt.Errorf("eth_supportedEntryPoints: %w", err)
		return res
	}
	if !lo.Contains(supported, entryPoint) {
		res.err = fmt.Errorf("bundler does not support entrypoint %s", entryPoint.Hex())
		return res
	}

	res.hash, res.err = client.SendUserOperation(ctx, op, entryPoint)
	if res.err != nil || wait <= 0 {
		return res
	}

	res.receipt, res.err = waitForReceipt(ctx, client, res.hash, wait, l)
	return res
}

// waitForReceipt polls until the operation is mined. An operation the bundler no longer knows
// about is reported as dropped instead of waiting out the timeout.
func waitForReceipt(ctx context.Context, client *bundler.BundlerClient, hash string, wait time.Duration, l logger.Logger) (*bundler.UserOperationReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.GetUserOperationReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		pending, err := client.GetUserOperationByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		if pending == nil {
			return nil, fmt.Errorf("user operation %s was dropped by the bundler", hash)
		}
		l.Debug("user operation pending", "hash", hash)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("no receipt for %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func cleanURLs(raw []string) []string {
	return lo.Compact(lo.Map(raw, func(s string, _ int) string { return strings.TrimSpace(s) }))
}

func init() {
	rootCmd.AddCommand(sendUserOpCmd)

	sendUserOpCmd.Flags().StringSliceVar(&sendBundlers, "bundler", nil, "bundler rpc url, one per target chain (repeatable)")
	sendUserOpCmd.Flags().DurationVar(&sendWait, "wait", 0, "wait up to this long for each receipt")
}
