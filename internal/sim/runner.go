package sim

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/storage"
)

// RunConfig holds runtime settings for the simulation runner.
type RunConfig struct {
	ScenarioPath string
	BatchSize    int

	// CheckpointPath enables resumable runs when non-empty. The scenario is
	// always replayed from the top to rebuild engine state; batches up to the
	// checkpoint cursor are dropped instead of flushed. The cursor only ever
	// lands on batch boundaries, so resuming with the same batch size never
	// re-persists a record.
	CheckpointPath string
}

// Runner replays a scenario through an engine and flushes the resulting event
// stream to storage in batches.
type Runner struct {
	cfg     RunConfig
	engine  *Engine
	storage storage.Storage
	logger  *zap.Logger
}

func NewRunner(cfg RunConfig, engine *Engine, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, engine: engine, storage: storageSink, logger: logger}
}

// Run executes the scenario. Each operation is atomic: a failing op is logged
// and skipped, leaving engine state untouched, the way a reverted call would.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return fmt.Errorf("engine is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	ops, err := ReadScenario(r.cfg.ScenarioPath)
	if err != nil {
		return err
	}
	r.logger.Info("scenario loaded", zap.Int("ops", len(ops)))

	checkpoints := NewCheckpointStore(r.cfg.CheckpointPath, r.cfg.CheckpointPath != "")
	cp, resumed, err := checkpoints.Load()
	if err != nil {
		return err
	}
	if resumed {
		r.logger.Info("resuming from checkpoint", zap.Uint64("last_applied_op", cp.LastAppliedOp))
	}

	applied, failed := 0, 0
	for i, op := range ops {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.apply(op); err != nil {
			failed++
			r.logger.Warn("op rejected",
				zap.Int("line", i+1),
				zap.String("op", op.Op),
				zap.Error(err),
			)
		} else {
			applied++
		}

		if (i+1)%r.cfg.BatchSize == 0 {
			if err := r.flush(checkpoints, uint64(i+1), cp.LastAppliedOp); err != nil {
				return err
			}
		}
	}
	if err := r.flush(checkpoints, uint64(len(ops)), cp.LastAppliedOp); err != nil {
		return err
	}

	r.logger.Info("scenario complete", zap.Int("applied", applied), zap.Int("rejected", failed))
	return nil
}

func (r *Runner) flush(checkpoints *CheckpointStore, cursor, resumeCursor uint64) error {
	records := r.engine.Events.Drain()
	if cursor <= resumeCursor {
		// Already persisted by the run that wrote the checkpoint.
		return nil
	}
	if err := r.storage.PutEventBatch(records); err != nil {
		return fmt.Errorf("store events: %w", err)
	}
	if err := checkpoints.Save(cursor); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}

func (r *Runner) apply(op Op) error {
	e := r.engine
	switch op.Op {
	case "advance_time":
		e.Clock.Advance(op.Seconds)
		return nil

	case "mint_tokens":
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		e.Ledger.Mint(common.HexToAddress(op.Token), common.HexToAddress(op.To), amount)
		return nil

	case "transfer":
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		return e.Ledger.Transfer(common.HexToAddress(op.Token), common.HexToAddress(op.From), common.HexToAddress(op.To), amount)

	case "create_pair":
		_, err := e.Factory.CreatePair(common.HexToAddress(op.TokenA), common.HexToAddress(op.TokenB))
		return err

	case "set_fee_to":
		return e.Factory.SetFeeTo(common.HexToAddress(op.Caller), common.HexToAddress(op.Address))

	case "set_fee_setter":
		return e.Factory.SetFeeToSetter(common.HexToAddress(op.Caller), common.HexToAddress(op.Address))

	case "pair_mint":
		pair := e.Factory.Pair(common.HexToAddress(op.TokenA), common.HexToAddress(op.TokenB))
		if pair == nil {
			return fmt.Errorf("pair not found")
		}
		_, err := pair.Mint(common.HexToAddress(op.Caller), common.HexToAddress(op.To))
		return err

	case "pair_burn":
		pair := e.Factory.Pair(common.HexToAddress(op.TokenA), common.HexToAddress(op.TokenB))
		if pair == nil {
			return fmt.Errorf("pair not found")
		}
		_, _, err := pair.Burn(common.HexToAddress(op.Caller), common.HexToAddress(op.To))
		return err

	case "swap":
		pair := e.Factory.Pair(common.HexToAddress(op.TokenA), common.HexToAddress(op.TokenB))
		if pair == nil {
			return fmt.Errorf("pair not found")
		}
		amount0Out, err := parseAmount(op.Amount0Out)
		if err != nil {
			return err
		}
		amount1Out, err := parseAmount(op.Amount1Out)
		if err != nil {
			return err
		}
		return pair.Swap(common.HexToAddress(op.Caller), amount0Out, amount1Out, common.HexToAddress(op.To), nil, nil)

	case "sync":
		pair := e.Factory.Pair(common.HexToAddress(op.TokenA), common.HexToAddress(op.TokenB))
		if pair == nil {
			return fmt.Errorf("pair not found")
		}
		return pair.Sync()

	case "skim":
		pair := e.Factory.Pair(common.HexToAddress(op.TokenA), common.HexToAddress(op.TokenB))
		if pair == nil {
			return fmt.Errorf("pair not found")
		}
		return pair.Skim(common.HexToAddress(op.To))

	case "add_pool":
		_, err := e.Chef.AddPool(common.HexToAddress(op.Caller), op.AllocPoints, common.HexToAddress(op.StakeToken), nil)
		return err

	case "set_pool":
		return e.Chef.SetPool(common.HexToAddress(op.Caller), op.PoolID, op.LockTier, op.AllocPoint, nil, false)

	case "set_emission_rate":
		rate, err := parseAmount(op.Rate)
		if err != nil {
			return err
		}
		return e.Chef.SetEmissionRate(common.HexToAddress(op.Caller), rate)

	case "update_pool":
		_, err := e.Chef.UpdatePool(op.PoolID, op.LockTier)
		return err

	case "deposit":
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		return e.Chef.Deposit(common.HexToAddress(op.Caller), op.PoolID, op.LockTier, amount, common.HexToAddress(op.To))

	case "withdraw":
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		return e.Chef.Withdraw(common.HexToAddress(op.Caller), op.PoolID, op.LockTier, amount, common.HexToAddress(op.To))

	case "harvest":
		_, err := e.Chef.Harvest(common.HexToAddress(op.Caller), op.PoolID, op.LockTier, common.HexToAddress(op.To))
		return err

	case "withdraw_and_harvest":
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return err
		}
		_, err = e.Chef.WithdrawAndHarvest(common.HexToAddress(op.Caller), op.PoolID, op.LockTier, amount, common.HexToAddress(op.To))
		return err

	case "emergency_withdraw":
		_, err := e.Chef.EmergencyWithdraw(common.HexToAddress(op.Caller), op.PoolID, op.LockTier, common.HexToAddress(op.To))
		return err

	default:
		return fmt.Errorf("unknown op: %s", op.Op)
	}
}
