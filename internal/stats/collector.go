package stats

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
)

// swapFeePPM is the pair fee in parts per million (0.3%).
const swapFeePPM = 3000

// PairStats aggregates the trading activity of one pair over the event stream.
type PairStats struct {
	Pair      string
	SwapCount uint64
	MintCount uint64
	BurnCount uint64
	Volume0   *big.Int
	Volume1   *big.Int
	Fee0      *big.Int
	Fee1      *big.Int
	Reserve0  *big.Int
	Reserve1  *big.Int
	FirstSeq  uint64
	LastSeq   uint64
	LastTS    uint64
}

// FarmStats aggregates staking activity of one (pool, lock tier) sub-pool.
type FarmStats struct {
	PoolID            uint64
	LockTier          uint8
	Deposited         *big.Int
	Withdrawn         *big.Int
	Harvested         *big.Int
	EmergencyExits    uint64
	DepositCount      uint64
	WithdrawCount     uint64
	HarvestCount      uint64
	AccRewardPerShare string
}

type farmKey struct {
	poolID   uint64
	lockTier uint8
}

// Collector consumes the engine event stream and keeps rolling per-pair and
// per-sub-pool aggregates. It implements events.Sink so it can ride alongside
// the durable sinks on the same recorder.
type Collector struct {
	mu    sync.Mutex
	pairs map[string]*PairStats
	farm  map[farmKey]*FarmStats
	errs  []error
}

func NewCollector() *Collector {
	return &Collector{
		pairs: make(map[string]*PairStats),
		farm:  make(map[farmKey]*FarmStats),
	}
}

func (c *Collector) Append(record model.EventRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.apply(record); err != nil {
		c.errs = append(c.errs, fmt.Errorf("seq %d %s: %w", record.Seq, record.EventName, err))
	}
}

// Errs returns decode errors accumulated so far. A non-empty result means the
// stream and the aggregates disagree and the aggregates must not be trusted.
func (c *Collector) Errs() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

func (c *Collector) pair(record model.EventRecord) *PairStats {
	stats, ok := c.pairs[record.Contract]
	if !ok {
		stats = &PairStats{
			Pair:     record.Contract,
			Volume0:  big.NewInt(0),
			Volume1:  big.NewInt(0),
			Fee0:     big.NewInt(0),
			Fee1:     big.NewInt(0),
			Reserve0: big.NewInt(0),
			Reserve1: big.NewInt(0),
			FirstSeq: record.Seq,
		}
		c.pairs[record.Contract] = stats
	}
	stats.LastSeq = record.Seq
	if record.Timestamp > stats.LastTS {
		stats.LastTS = record.Timestamp
	}
	return stats
}

func (c *Collector) farmStats(key farmKey) *FarmStats {
	stats, ok := c.farm[key]
	if !ok {
		stats = &FarmStats{
			PoolID:    key.poolID,
			LockTier:  key.lockTier,
			Deposited: big.NewInt(0),
			Withdrawn: big.NewInt(0),
			Harvested: big.NewInt(0),
		}
		c.farm[key] = stats
	}
	return stats
}

func (c *Collector) apply(record model.EventRecord) error {
	switch record.EventName {
	case "Swap":
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Data, &swap); err != nil {
			return err
		}
		return c.applySwap(c.pair(record), swap)

	case "Sync":
		var sync model.SyncEventData
		if err := json.Unmarshal(record.Data, &sync); err != nil {
			return err
		}
		stats := c.pair(record)
		reserve0, err := parseBigInt(sync.Reserve0)
		if err != nil {
			return err
		}
		reserve1, err := parseBigInt(sync.Reserve1)
		if err != nil {
			return err
		}
		stats.Reserve0 = reserve0
		stats.Reserve1 = reserve1
		return nil

	case "Mint":
		c.pair(record).MintCount++
		return nil

	case "Burn":
		c.pair(record).BurnCount++
		return nil

	case "Deposit":
		var deposit model.DepositEventData
		if err := json.Unmarshal(record.Data, &deposit); err != nil {
			return err
		}
		stats := c.farmStats(farmKey{deposit.PoolID, deposit.LockTier})
		amount, err := parseBigInt(deposit.Amount)
		if err != nil {
			return err
		}
		stats.Deposited.Add(stats.Deposited, amount)
		stats.DepositCount++
		return nil

	case "Withdraw":
		var withdraw model.WithdrawEventData
		if err := json.Unmarshal(record.Data, &withdraw); err != nil {
			return err
		}
		stats := c.farmStats(farmKey{withdraw.PoolID, withdraw.LockTier})
		amount, err := parseBigInt(withdraw.Amount)
		if err != nil {
			return err
		}
		stats.Withdrawn.Add(stats.Withdrawn, amount)
		stats.WithdrawCount++
		return nil

	case "Harvest":
		var harvest model.HarvestEventData
		if err := json.Unmarshal(record.Data, &harvest); err != nil {
			return err
		}
		stats := c.farmStats(farmKey{harvest.PoolID, harvest.LockTier})
		amount, err := parseBigInt(harvest.Amount)
		if err != nil {
			return err
		}
		stats.Harvested.Add(stats.Harvested, amount)
		stats.HarvestCount++
		return nil

	case "EmergencyWithdraw":
		var exit model.EmergencyWithdrawEventData
		if err := json.Unmarshal(record.Data, &exit); err != nil {
			return err
		}
		stats := c.farmStats(farmKey{exit.PoolID, exit.LockTier})
		amount, err := parseBigInt(exit.Amount)
		if err != nil {
			return err
		}
		stats.Withdrawn.Add(stats.Withdrawn, amount)
		stats.EmergencyExits++
		return nil

	case "LogUpdatePool":
		var update model.UpdatePoolEventData
		if err := json.Unmarshal(record.Data, &update); err != nil {
			return err
		}
		c.farmStats(farmKey{update.PoolID, update.LockTier}).AccRewardPerShare = update.AccRewardPerShare
		return nil

	default:
		return nil
	}
}

func (c *Collector) applySwap(stats *PairStats, swap model.SwapEventData) error {
	amount0In, err := parseBigInt(swap.Amount0In)
	if err != nil {
		return err
	}
	amount1In, err := parseBigInt(swap.Amount1In)
	if err != nil {
		return err
	}
	amount0Out, err := parseBigInt(swap.Amount0Out)
	if err != nil {
		return err
	}
	amount1Out, err := parseBigInt(swap.Amount1Out)
	if err != nil {
		return err
	}

	stats.Volume0.Add(stats.Volume0, amount0In)
	stats.Volume0.Add(stats.Volume0, amount0Out)
	stats.Volume1.Add(stats.Volume1, amount1In)
	stats.Volume1.Add(stats.Volume1, amount1Out)
	stats.Fee0.Add(stats.Fee0, feeFromAmount(amount0In))
	stats.Fee1.Add(stats.Fee1, feeFromAmount(amount1In))
	stats.SwapCount++
	return nil
}

// Pairs returns the per-pair aggregates ordered by pair ID.
func (c *Collector) Pairs() []PairStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PairStats, 0, len(c.pairs))
	for _, stats := range c.pairs {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair < out[j].Pair })
	return out
}

// Farms returns the per-sub-pool aggregates ordered by (pool, tier).
func (c *Collector) Farms() []FarmStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FarmStats, 0, len(c.farm))
	for _, stats := range c.farm {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PoolID != out[j].PoolID {
			return out[i].PoolID < out[j].PoolID
		}
		return out[i].LockTier < out[j].LockTier
	})
	return out
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func feeFromAmount(amountIn *big.Int) *big.Int {
	if amountIn == nil || amountIn.Sign() == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amountIn, big.NewInt(swapFeePPM))
	return fee.Div(fee, big.NewInt(1_000_000))
}
