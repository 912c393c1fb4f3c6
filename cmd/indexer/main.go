package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"candleScope/internal/candle"
	"candleScope/internal/chain"
	"candleScope/internal/config"
	"candleScope/internal/indexer"
	"candleScope/internal/snapshot"
	"candleScope/internal/storage"
	"candleScope/internal/storage/memory"
	"candleScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "candlescope",
		Short:        "V3 pool indexer with price snapshots and candles",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "chain RPC URL")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN (empty uses the in-memory store)")
	root.PersistentFlags().String("factory", "", "factory contract address")
	root.PersistentFlags().Uint64("genesis-block", 0, "first block to scan when no cursor exists")
	root.PersistentFlags().Uint64("batch-size", 2000, "blocks per scan batch")
	root.PersistentFlags().Int("max-retries", 5, "maximum retry attempts")
	root.PersistentFlags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan factory logs for new pools",
		RunE:  runDiscover,
	}
	discoverCmd.Flags().Uint64("from", 0, "start block, 0 resumes from the cursor")
	root.AddCommand(discoverCmd)

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-read live state for every known pool",
		RunE:  runRefresh,
	}
	root.AddCommand(refreshCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one price snapshot per priceable pool",
		RunE:  runSnapshot,
	}
	root.AddCommand(snapshotCmd)

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete snapshots older than the retention window",
		RunE:  runClean,
	}
	cleanCmd.Flags().Duration("retention", 30*24*time.Hour, "snapshot retention window")
	root.AddCommand(cleanCmd)

	candlesCmd := &cobra.Command{
		Use:   "candles <pool>",
		Short: "Build candles for a pool",
		Args:  cobra.ExactArgs(1),
		RunE:  runCandles,
	}
	candlesCmd.Flags().String("interval", "1h", "candle interval (1m, 5m, 15m, 30m, 1h, 4h, 12h, 1d, 1w)")
	candlesCmd.Flags().Int64("from", 0, "window start (unix seconds)")
	candlesCmd.Flags().Int64("to", 0, "window end (unix seconds), 0 means now")
	candlesCmd.Flags().Bool("rebuild", false, "drop the cached window and recompute")
	root.AddCommand(candlesCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run discovery, refresh, snapshot and cleanup on schedules",
		RunE:  runWatch,
	}
	watchCmd.Flags().Duration("snapshot-interval", time.Minute, "refresh and snapshot cadence")
	watchCmd.Flags().Duration("discover-interval", 10*time.Minute, "discovery cadence")
	watchCmd.Flags().Duration("retention", 30*24*time.Hour, "snapshot retention window")
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the store, chain client and the three engines behind every
// subcommand.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     storage.Store
	client    *chain.Client
	runner    *indexer.Runner
	capturer  *snapshot.Capturer
	candles   *candle.Aggregator
	teardowns []func()
}

func (a *app) close() {
	for i := len(a.teardowns) - 1; i >= 0; i-- {
		a.teardowns[i]()
	}
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.teardowns = append(a.teardowns, func() { _ = logger.Sync() })

	if cfg.PostgresDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.store = store
	} else {
		logger.Warn("no pg-dsn configured, using the in-memory store")
		a.store = memory.NewStore()
	}
	a.teardowns = append(a.teardowns, a.store.Close)

	client, err := chain.NewClient(ctx, cfg.RPCURL, cfg.FactoryAddress)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	a.client = client
	a.teardowns = append(a.teardowns, client.Close)

	a.runner = indexer.NewRunner(indexer.Config{
		GenesisBlock: cfg.GenesisBlock,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, client, a.store, logger)
	a.capturer = snapshot.NewCapturer(a.store, logger)
	a.candles = candle.NewAggregator(a.store, logger)

	return a, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	fromBlock, _ := cmd.Flags().GetUint64("from")
	result, err := a.runner.Discover(ctx, fromBlock)
	if err != nil {
		return err
	}

	a.logger.Info("discover done",
		zap.Uint64("from", result.FromBlock),
		zap.Uint64("to", result.ToBlock),
		zap.Int("pools_found", result.PoolsFound),
		zap.Int("pools_added", result.PoolsAdded),
		zap.Int("failed_ranges", len(result.FailedRanges)))
	return nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	refreshed, err := a.runner.RefreshAll(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("refresh done", zap.Int("refreshed", refreshed))
	return nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	written, err := a.capturer.CaptureAll(ctx, time.Now().Unix())
	if err != nil {
		return err
	}
	a.logger.Info("snapshot done", zap.Int("written", written))
	return nil
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	retention, _ := cmd.Flags().GetDuration("retention")
	cutoff := time.Now().Add(-retention).Unix()
	removed, err := a.capturer.CleanOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	a.logger.Info("clean done", zap.Int64("removed", removed), zap.Int64("cutoff", cutoff))
	return nil
}

func runCandles(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	pool := args[0]
	interval, _ := cmd.Flags().GetString("interval")
	from, _ := cmd.Flags().GetInt64("from")
	to, _ := cmd.Flags().GetInt64("to")
	rebuild, _ := cmd.Flags().GetBool("rebuild")
	if to == 0 {
		to = time.Now().Unix()
	}

	build := a.candles.GetCandles
	if rebuild {
		build = a.candles.RebuildCandles
	}
	out, err := build(ctx, pool, interval, from, to)
	if err != nil {
		return err
	}
	for _, c := range out {
		fmt.Printf("%d\topen=%s high=%s low=%s close=%s\n",
			c.Timestamp, c.Open.String(), c.High.String(), c.Low.String(), c.Close.String())
	}

	a.logger.Info("candles done", zap.String("pool", pool), zap.String("interval", interval), zap.Int("candles", len(out)))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
