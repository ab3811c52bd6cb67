// Command replay is a thin demonstration entrypoint around the replay
// core library. The core's externally visible contract is data-shape,
// not a CLI (spec.md §6): this binary only wires a LocalCache-backed
// orchestrator, since Archive/Live sources need a concrete gRPC client
// an embedding application supplies.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"suireplay/hydration"
	"suireplay/pkg/utils"
	"suireplay/replay"
	"suireplay/resolver"
	"suireplay/types"
)

var logger = logrus.New()

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{Use: "replay"}
	root.AddCommand(runCmd())
	root.AddCommand(batchCmd())
	if err := root.Execute(); err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func runCmd() *cobra.Command {
	var cacheDir string
	var invokerStub bool
	cmd := &cobra.Command{
		Use:   "run [digest]",
		Short: "replay a single transaction against the local cache",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			digest := args[0]
			cache, err := hydration.NewLocalCache(cacheDir)
			if err != nil {
				logger.WithError(err).Fatal("open local cache")
			}
			sources := hydration.SourceSet{Local: cache}
			orch := replay.NewOrchestrator(sources, resolver.New(256), noopInvoker{})
			orch.Cache = cache

			req := replay.DefaultRequest(digest)
			req.SourcePolicy = hydration.PolicyLocalOnly
			req.Prefetch.Enabled = false

			report, err := orch.Replay(context.Background(), req)
			if err != nil {
				logger.WithError(err).Fatal("replay failed")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				logger.WithError(err).Fatal("encode report")
			}
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache-dir", utils.EnvOrDefault("REPLAY_CACHE_DIR", "./.replay-cache"), "local cache directory")
	cmd.Flags().BoolVar(&invokerStub, "stub-invoker", true, "use the no-op Move invoker (no bytecode interpretation available)")
	return cmd
}

func batchCmd() *cobra.Command {
	var cacheDir string
	cmd := &cobra.Command{
		Use:   "batch [config.yaml]",
		Short: "replay every digest listed in a batch config",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := replay.LoadBatchConfig(args[0])
			if err != nil {
				logger.WithError(err).Fatal("load batch config")
			}
			cache, err := hydration.NewLocalCache(cacheDir)
			if err != nil {
				logger.WithError(err).Fatal("open local cache")
			}
			sources := hydration.SourceSet{Local: cache}
			orch := replay.NewOrchestrator(sources, resolver.New(256), noopInvoker{})
			orch.Cache = cache
			cfg.RequestTemplate.SourcePolicy = hydration.PolicyLocalOnly

			results, err := orch.RunBatch(context.Background(), cfg)
			if err != nil {
				logger.WithError(err).Fatal("batch replay failed")
			}
			for _, r := range results {
				if r.Err != nil {
					logger.WithField("digest", r.Digest).WithError(r.Err).Warn("replay failed")
					continue
				}
				fmt.Printf("%s success=%v\n", r.Digest, r.Report.LocalSuccess)
			}
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache-dir", utils.EnvOrDefault("REPLAY_CACHE_DIR", "./.replay-cache"), "local cache directory")
	return cmd
}

// noopInvoker reports every MoveCall as having returned no values; real
// bytecode interpretation is outside this core's scope (spec.md §1
// Non-goals) and is supplied by an embedding VM integration.
type noopInvoker struct{}

func (noopInvoker) InvokeMoveCall(_ context.Context, _ types.AccountAddress, _, _ string, _ []string, _ [][]byte) ([][]byte, error) {
	return nil, nil
}
