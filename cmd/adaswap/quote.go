package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/chain"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/config"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/router"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/storage"
)

// multiStorage fans a batch out to every sink.
type multiStorage []storage.Storage

func (m multiStorage) PutEventBatch(records []model.EventRecord) error {
	for _, sink := range m {
		if err := sink.PutEventBatch(records); err != nil {
			return err
		}
	}
	return nil
}

// pgStorage adapts the Postgres store to the storage interface.
type pgStorage struct {
	ctx   context.Context
	store interface {
		InsertEvents(ctx context.Context, records []model.EventRecord) error
	}
}

func (p *pgStorage) PutEventBatch(records []model.EventRecord) error {
	return p.store.InsertEvents(p.ctx, records)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var reserveIn, reserveOut *big.Int
	if cfg.RPCURL != "" {
		if cfg.Pair == "" {
			return fmt.Errorf("pair address is required with --rpc")
		}
		ctx := cmd.Context()
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()

		pairAddr := common.HexToAddress(cfg.Pair)
		var reserve0, reserve1 *big.Int
		var ts uint32
		err = chain.WithRetry(ctx, 3, 200*time.Millisecond, func(ctx context.Context) error {
			reserve0, reserve1, ts, err = client.PairReserves(ctx, pairAddr)
			return err
		})
		if err != nil {
			return err
		}
		logger.Info("live reserves",
			zap.String("pair", cfg.Pair),
			zap.String("reserve0", reserve0.String()),
			zap.String("reserve1", reserve1.String()),
			zap.Uint32("block_timestamp_last", ts),
		)

		// Token symbols are display-only; a pair with odd tokens still quotes.
		if token0, token1, err := client.PairTokens(ctx, pairAddr); err == nil {
			meta0, err0 := client.FetchTokenMeta(ctx, token0, logger)
			meta1, err1 := client.FetchTokenMeta(ctx, token1, logger)
			if err0 == nil && err1 == nil {
				logger.Info("pair tokens",
					zap.String("token0", meta0.Address),
					zap.String("symbol0", meta0.Symbol),
					zap.Uint8("decimals0", meta0.Decimals),
					zap.String("token1", meta1.Address),
					zap.String("symbol1", meta1.Symbol),
					zap.Uint8("decimals1", meta1.Decimals),
				)
			}
		} else {
			logger.Debug("pair token lookup failed", zap.Error(err))
		}

		reserveIn, reserveOut = reserve0, reserve1
	} else {
		reserveIn, err = parseFlagAmount(cmd, "reserve-in")
		if err != nil {
			return err
		}
		reserveOut, err = parseFlagAmount(cmd, "reserve-out")
		if err != nil {
			return err
		}
	}

	amountInRaw, _ := cmd.Flags().GetString("amount-in")
	amountOutRaw, _ := cmd.Flags().GetString("amount-out")

	switch {
	case amountInRaw != "":
		amountIn, ok := new(big.Int).SetString(amountInRaw, 10)
		if !ok {
			return fmt.Errorf("invalid amount-in: %s", amountInRaw)
		}
		amountOut, err := router.GetAmountOut(amountIn, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amountOut.String())
	case amountOutRaw != "":
		amountOut, ok := new(big.Int).SetString(amountOutRaw, 10)
		if !ok {
			return fmt.Errorf("invalid amount-out: %s", amountOutRaw)
		}
		amountIn, err := router.GetAmountIn(amountOut, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amountIn.String())
	default:
		return fmt.Errorf("one of amount-in or amount-out is required")
	}

	return nil
}

func parseFlagAmount(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return value, nil
}
