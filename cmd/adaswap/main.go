package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/config"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/sim"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/stats"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/storage"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "adaswap",
		Short:        "AdaSwap AMM and farm accounting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a scenario through the engine",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("scenario", "", "scenario JSONL path")
	simulateCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL path")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	simulateCmd.Flags().Int("batch-size", 1000, "ops per event flush")
	simulateCmd.Flags().String("emission-rate", "0", "farm reward emission per second")
	simulateCmd.Flags().String("fee-to", "", "protocol fee recipient (optional)")
	simulateCmd.Flags().String("fee-setter", "", "factory fee setter address")
	simulateCmd.Flags().String("farm-owner", "", "farm governance address")
	simulateCmd.Flags().Uint64("start-time", 1, "starting unix timestamp")
	simulateCmd.Flags().String("checkpoint", "", "checkpoint file for resumable runs (optional)")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute swap amounts over reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "RPC URL to fetch live reserves (optional)")
	quoteCmd.Flags().String("pair", "", "deployed pair address, used with --rpc")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve, used without --rpc")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve, used without --rpc")
	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().String("amount-out", "", "output amount (computes required input)")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario path is required")
	}
	if cfg.FeeSetter == "" {
		return fmt.Errorf("fee-setter address is required")
	}
	if cfg.FarmOwner == "" {
		return fmt.Errorf("farm-owner address is required")
	}

	emissionRate, ok := new(big.Int).SetString(cfg.EmissionRate, 10)
	if !ok {
		return fmt.Errorf("invalid emission rate: %s", cfg.EmissionRate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	engine := sim.NewEngine(sim.EngineConfig{
		FeeSetter:    common.HexToAddress(cfg.FeeSetter),
		FarmOwner:    common.HexToAddress(cfg.FarmOwner),
		EmissionRate: emissionRate,
		StartTime:    cfg.StartTime,
	}, logger, collector)

	if cfg.FeeTo != "" {
		if err := engine.Factory.SetFeeTo(common.HexToAddress(cfg.FeeSetter), common.HexToAddress(cfg.FeeTo)); err != nil {
			return fmt.Errorf("set fee recipient: %w", err)
		}
	}

	var sinks multiStorage
	sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))

	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		sinks = append(sinks, &pgStorage{ctx: ctx, store: pgStore})
	}

	runner := sim.NewRunner(sim.RunConfig{
		ScenarioPath:   cfg.Scenario,
		BatchSize:      cfg.BatchSize,
		CheckpointPath: cfg.Checkpoint,
	}, engine, sinks, logger)

	logger.Info("simulation start",
		zap.String("scenario", cfg.Scenario),
		zap.String("out", cfg.Out),
		zap.String("emission_rate", emissionRate.String()),
		zap.Uint64("start_time", cfg.StartTime),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	if pgStore != nil {
		if err := upsertPairs(ctx, pgStore, engine); err != nil {
			return fmt.Errorf("persist pairs: %w", err)
		}
	}

	logSummary(logger, collector)
	return nil
}

func upsertPairs(ctx context.Context, store *postgres.Store, engine *sim.Engine) error {
	created := engine.Factory.AllPairs()
	pairs := make([]model.Pair, 0, len(created))
	for i, p := range created {
		pairs = append(pairs, model.Pair{
			PairID:    p.ID.Hex(),
			Token0:    p.Token0.Hex(),
			Token1:    p.Token1.Hex(),
			PairIndex: uint64(i),
			CreatedAt: p.CreatedAt,
		})
	}
	return store.UpsertPairs(ctx, pairs)
}

func logSummary(logger *zap.Logger, collector *stats.Collector) {
	for _, pair := range collector.Pairs() {
		logger.Info("pair summary",
			zap.String("pair", pair.Pair),
			zap.Uint64("swaps", pair.SwapCount),
			zap.Uint64("mints", pair.MintCount),
			zap.Uint64("burns", pair.BurnCount),
			zap.String("volume0", pair.Volume0.String()),
			zap.String("volume1", pair.Volume1.String()),
			zap.String("fee0", pair.Fee0.String()),
			zap.String("fee1", pair.Fee1.String()),
			zap.String("reserve0", pair.Reserve0.String()),
			zap.String("reserve1", pair.Reserve1.String()),
		)
	}
	for _, farm := range collector.Farms() {
		logger.Info("farm summary",
			zap.Uint64("pool_id", farm.PoolID),
			zap.Uint8("lock_tier", farm.LockTier),
			zap.String("deposited", farm.Deposited.String()),
			zap.String("withdrawn", farm.Withdrawn.String()),
			zap.String("harvested", farm.Harvested.String()),
			zap.Uint64("emergency_exits", farm.EmergencyExits),
		)
	}
	for _, err := range collector.Errs() {
		logger.Warn("stats decode error", zap.Error(err))
	}
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
