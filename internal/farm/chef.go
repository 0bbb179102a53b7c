package farm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/clock"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/events"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/token"
)

// NumLockTiers is the number of fixed lock-duration tiers per stakeable token.
const NumLockTiers = 7

// LockDurations is the tier table, in seconds. A pool is added with one alloc
// point per tier; tier i locks deposits for LockDurations[i].
var LockDurations = [NumLockTiers]uint64{
	0,
	7 * 24 * 3600,
	14 * 24 * 3600,
	30 * 24 * 3600,
	60 * 24 * 3600,
	90 * 24 * 3600,
	365 * 24 * 3600,
}

// AccPrecision scales accRewardPerShare.
var AccPrecision = big.NewInt(1_000_000_000_000)

// UserInfo is one user's position in one (pool, tier). RewardDebt is signed: a
// withdraw without harvest legitimately drives it negative, preserving the
// still-unclaimed reward.
type UserInfo struct {
	Amount      *big.Int
	RewardDebt  *big.Int
	LastDeposit uint64
}

// Tier is one lock-duration sub-pool: its own weight, accumulator and stake.
type Tier struct {
	AllocPoint        uint64
	LockDuration      uint64
	AccRewardPerShare *big.Int
	LastRewardTime    uint64
	TotalStaked       *big.Int

	exists bool
	users  map[common.Address]*UserInfo
}

// Pool groups the tiers of one stakeable token.
type Pool struct {
	StakeToken    common.Address
	Rewarder      Rewarder
	HarvestLocked bool
	Tiers         [NumLockTiers]Tier
}

// Chef owns the reward emission schedule and every pool's accounting. Pools are
// keyed by (poolID, lockTier); settlement is lazy and O(1) per interaction.
type Chef struct {
	ID          common.Address
	RewardToken common.Address

	owner           common.Address
	emissionRate    *big.Int
	totalAllocPoint *big.Int
	pools           []*Pool

	ledger   *token.Ledger
	clock    clock.Clock
	recorder *events.Recorder
	logger   *zap.Logger
}

func NewChef(id, owner, rewardToken common.Address, ledger *token.Ledger, clk clock.Clock, recorder *events.Recorder, logger *zap.Logger) *Chef {
	return &Chef{
		ID:              id,
		RewardToken:     rewardToken,
		owner:           owner,
		emissionRate:    big.NewInt(0),
		totalAllocPoint: big.NewInt(0),
		ledger:          ledger,
		clock:           clk,
		recorder:        recorder,
		logger:          logger,
	}
}

func (c *Chef) Owner() common.Address { return c.owner }

// EmissionRate returns the global reward emission per second.
func (c *Chef) EmissionRate() *big.Int { return new(big.Int).Set(c.emissionRate) }

func (c *Chef) TotalAllocPoint() *big.Int { return new(big.Int).Set(c.totalAllocPoint) }

func (c *Chef) PoolLength() int { return len(c.pools) }

// SetEmissionRate changes the per-second emission; governance only.
func (c *Chef) SetEmissionRate(caller common.Address, rate *big.Int) error {
	if caller != c.owner {
		return ErrNotOwner
	}
	c.emissionRate = new(big.Int).Set(rate)
	c.logger.Info("emission rate set", zap.String("rate", rate.String()))
	return nil
}

// AddPool registers a stakeable token with one alloc point per lock tier; tiers
// with a zero alloc point are not created. Governance only.
func (c *Chef) AddPool(caller common.Address, allocPoints []uint64, stakeToken common.Address, rewarder Rewarder) (uint64, error) {
	if caller != c.owner {
		return 0, ErrNotOwner
	}
	if len(allocPoints) != NumLockTiers {
		return 0, ErrBadAllocPoints
	}
	if rewarder == nil {
		rewarder = NopRewarder{}
	}

	now := c.clock.Now()
	pool := &Pool{
		StakeToken:    stakeToken,
		Rewarder:      rewarder,
		HarvestLocked: true,
	}
	poolID := uint64(len(c.pools))
	for i, points := range allocPoints {
		tier := &pool.Tiers[i]
		tier.LockDuration = LockDurations[i]
		tier.AccRewardPerShare = big.NewInt(0)
		tier.TotalStaked = big.NewInt(0)
		tier.users = make(map[common.Address]*UserInfo)
		if points == 0 {
			continue
		}
		tier.AllocPoint = points
		tier.LastRewardTime = now
		tier.exists = true
		c.totalAllocPoint.Add(c.totalAllocPoint, new(big.Int).SetUint64(points))

		c.recorder.Emit(now, model.SourceFarm, c.ID.Hex(), "LogPoolAddition", model.PoolAdditionEventData{
			PoolID:     poolID,
			LockTier:   uint8(i),
			AllocPoint: points,
			StakeToken: stakeToken.Hex(),
			Rewarder:   rewarderName(rewarder),
		})
	}
	c.pools = append(c.pools, pool)
	c.logger.Info("pool added",
		zap.Uint64("pool_id", poolID),
		zap.String("stake_token", stakeToken.Hex()),
		zap.Uint64s("alloc_points", allocPoints),
	)
	return poolID, nil
}

// SetPool reweights one tier, settling it first so past accrual keeps the old
// weight. A zero alloc point disables emission but never deletes the tier.
// Governance only.
func (c *Chef) SetPool(caller common.Address, poolID uint64, lockTier uint8, allocPoint uint64, rewarder Rewarder, overwrite bool) error {
	if caller != c.owner {
		return ErrNotOwner
	}
	if poolID >= uint64(len(c.pools)) || int(lockTier) >= NumLockTiers {
		return ErrPoolDoesNotExist
	}
	pool := c.pools[poolID]
	tier := &pool.Tiers[lockTier]

	now := c.clock.Now()
	if tier.exists {
		if _, err := c.UpdatePool(poolID, lockTier); err != nil {
			return err
		}
	} else if allocPoint > 0 {
		tier.LastRewardTime = now
		tier.exists = true
	}

	c.totalAllocPoint.Sub(c.totalAllocPoint, new(big.Int).SetUint64(tier.AllocPoint))
	c.totalAllocPoint.Add(c.totalAllocPoint, new(big.Int).SetUint64(allocPoint))
	tier.AllocPoint = allocPoint
	if overwrite {
		if rewarder == nil {
			rewarder = NopRewarder{}
		}
		pool.Rewarder = rewarder
	}

	c.recorder.Emit(now, model.SourceFarm, c.ID.Hex(), "LogSetPool", model.SetPoolEventData{
		PoolID:     poolID,
		LockTier:   lockTier,
		AllocPoint: allocPoint,
		Rewarder:   rewarderName(pool.Rewarder),
		Overwrite:  overwrite,
	})
	return nil
}

// SetHarvestPolicy toggles whether harvest is gated by the lock duration.
// Governance only.
func (c *Chef) SetHarvestPolicy(caller common.Address, poolID uint64, locked bool) error {
	if caller != c.owner {
		return ErrNotOwner
	}
	if poolID >= uint64(len(c.pools)) {
		return ErrPoolDoesNotExist
	}
	c.pools[poolID].HarvestLocked = locked
	return nil
}

// IsExistPool reports whether the (poolID, lockTier) sub-pool was ever created.
func (c *Chef) IsExistPool(poolID uint64, lockTier uint8) bool {
	if poolID >= uint64(len(c.pools)) || int(lockTier) >= NumLockTiers {
		return false
	}
	return c.pools[poolID].Tiers[lockTier].exists
}

func (c *Chef) poolTier(poolID uint64, lockTier uint8) (*Pool, *Tier, error) {
	if !c.IsExistPool(poolID, lockTier) {
		return nil, nil, ErrPoolDoesNotExist
	}
	pool := c.pools[poolID]
	return pool, &pool.Tiers[lockTier], nil
}

// UserInfoFor returns a copy of the user's position in (poolID, lockTier).
func (c *Chef) UserInfoFor(poolID uint64, lockTier uint8, user common.Address) (UserInfo, error) {
	_, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return UserInfo{}, err
	}
	info := tier.user(user)
	return UserInfo{
		Amount:      new(big.Int).Set(info.Amount),
		RewardDebt:  new(big.Int).Set(info.RewardDebt),
		LastDeposit: info.LastDeposit,
	}, nil
}

// TierInfo returns a copy of the tier accounting state.
func (c *Chef) TierInfo(poolID uint64, lockTier uint8) (Tier, error) {
	_, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return Tier{}, err
	}
	return Tier{
		AllocPoint:        tier.AllocPoint,
		LockDuration:      tier.LockDuration,
		AccRewardPerShare: new(big.Int).Set(tier.AccRewardPerShare),
		LastRewardTime:    tier.LastRewardTime,
		TotalStaked:       new(big.Int).Set(tier.TotalStaked),
	}, nil
}

func (t *Tier) user(addr common.Address) *UserInfo {
	info, ok := t.users[addr]
	if !ok {
		info = &UserInfo{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}
		t.users[addr] = info
	}
	return info
}

// accrued computes the reward emitted to this tier between its last settlement
// and now, before per-share scaling.
func (c *Chef) accrued(tier *Tier, now uint64) *big.Int {
	if now <= tier.LastRewardTime || c.totalAllocPoint.Sign() == 0 {
		return big.NewInt(0)
	}
	elapsed := new(big.Int).SetUint64(now - tier.LastRewardTime)
	reward := new(big.Int).Mul(elapsed, c.emissionRate)
	reward.Mul(reward, new(big.Int).SetUint64(tier.AllocPoint))
	return reward.Div(reward, c.totalAllocPoint)
}

// UpdatePool settles one tier: rolls accRewardPerShare forward for the elapsed
// time and advances lastRewardTime. Idempotent within a single timestamp. An
// empty tier accrues nothing; its unclaimed emission is simply never minted.
func (c *Chef) UpdatePool(poolID uint64, lockTier uint8) (Tier, error) {
	_, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return Tier{}, err
	}
	now := c.clock.Now()
	if now <= tier.LastRewardTime {
		return c.TierInfo(poolID, lockTier)
	}

	if tier.TotalStaked.Sign() > 0 {
		reward := c.accrued(tier, now)
		tier.AccRewardPerShare.Add(tier.AccRewardPerShare,
			new(big.Int).Div(new(big.Int).Mul(reward, AccPrecision), tier.TotalStaked))
	}
	tier.LastRewardTime = now

	c.recorder.Emit(now, model.SourceFarm, c.ID.Hex(), "LogUpdatePool", model.UpdatePoolEventData{
		PoolID:            poolID,
		LockTier:          lockTier,
		LastRewardTime:    tier.LastRewardTime,
		TotalStaked:       tier.TotalStaked.String(),
		AccRewardPerShare: tier.AccRewardPerShare.String(),
	})
	return c.TierInfo(poolID, lockTier)
}

// MassUpdatePools settles every existing tier of the given pools.
func (c *Chef) MassUpdatePools(poolIDs []uint64) error {
	for _, poolID := range poolIDs {
		if poolID >= uint64(len(c.pools)) {
			return ErrPoolDoesNotExist
		}
		for tierIdx := 0; tierIdx < NumLockTiers; tierIdx++ {
			if !c.pools[poolID].Tiers[tierIdx].exists {
				continue
			}
			if _, err := c.UpdatePool(poolID, uint8(tierIdx)); err != nil {
				return err
			}
		}
	}
	return nil
}

// PendingReward projects what the user could harvest right now, without
// mutating state. Equals UpdatePool followed by the debt computation.
func (c *Chef) PendingReward(poolID uint64, lockTier uint8, user common.Address) (*big.Int, error) {
	_, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return nil, err
	}
	info := tier.user(user)

	acc := new(big.Int).Set(tier.AccRewardPerShare)
	now := c.clock.Now()
	if now > tier.LastRewardTime && tier.TotalStaked.Sign() > 0 {
		reward := c.accrued(tier, now)
		acc.Add(acc, new(big.Int).Div(new(big.Int).Mul(reward, AccPrecision), tier.TotalStaked))
	}
	pending := new(big.Int).Div(new(big.Int).Mul(info.Amount, acc), AccPrecision)
	return pending.Sub(pending, info.RewardDebt), nil
}

// debtShare scales a stake amount by the accumulator into debt units.
func debtShare(amount, accRewardPerShare *big.Int) *big.Int {
	return new(big.Int).Div(new(big.Int).Mul(amount, accRewardPerShare), AccPrecision)
}

// Deposit stakes amount of the pool's token for to, pulling funds from caller.
// The tier is settled first so prior accrual is attributed to the old stake.
// Reward debt moves incrementally; pending reward is untouched by a deposit.
func (c *Chef) Deposit(caller common.Address, poolID uint64, lockTier uint8, amount *big.Int, to common.Address) error {
	pool, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return err
	}
	if _, err := c.UpdatePool(poolID, lockTier); err != nil {
		return err
	}

	info := tier.user(to)
	newAmount := new(big.Int).Add(info.Amount, amount)

	snap := c.ledger.Snapshot()
	if err := c.ledger.Transfer(pool.StakeToken, caller, c.ID, amount); err != nil {
		return err
	}
	if err := pool.Rewarder.OnReward(poolID, lockTier, to, to, big.NewInt(0), newAmount); err != nil {
		c.ledger.RevertToSnapshot(snap)
		return err
	}

	info.Amount = newAmount
	info.RewardDebt.Add(info.RewardDebt, debtShare(amount, tier.AccRewardPerShare))
	info.LastDeposit = c.clock.Now()
	tier.TotalStaked.Add(tier.TotalStaked, amount)

	c.recorder.Emit(c.clock.Now(), model.SourceFarm, c.ID.Hex(), "Deposit", model.DepositEventData{
		User:     caller.Hex(),
		PoolID:   poolID,
		LockTier: lockTier,
		Amount:   amount.String(),
		To:       to.Hex(),
	})
	return nil
}

func (c *Chef) lockOver(tier *Tier, info *UserInfo) bool {
	return c.clock.Now() >= info.LastDeposit+tier.LockDuration
}

// Withdraw unstakes amount to to. A zero-amount withdraw is a settlement touch
// and is never lock-gated. Rewards are not harvested; the debt goes negative by
// exactly the still-pending share so nothing is forfeited.
func (c *Chef) Withdraw(caller common.Address, poolID uint64, lockTier uint8, amount *big.Int, to common.Address) error {
	pool, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return err
	}
	info := tier.user(caller)
	if amount.Sign() > 0 && !c.lockOver(tier, info) {
		return ErrLockTimeNotOver
	}
	if amount.Cmp(info.Amount) > 0 {
		return ErrInsufficientStake
	}
	if _, err := c.UpdatePool(poolID, lockTier); err != nil {
		return err
	}

	newAmount := new(big.Int).Sub(info.Amount, amount)

	snap := c.ledger.Snapshot()
	if err := c.ledger.Transfer(pool.StakeToken, c.ID, to, amount); err != nil {
		return err
	}
	if err := pool.Rewarder.OnReward(poolID, lockTier, caller, to, big.NewInt(0), newAmount); err != nil {
		c.ledger.RevertToSnapshot(snap)
		return err
	}

	info.RewardDebt.Sub(info.RewardDebt, debtShare(amount, tier.AccRewardPerShare))
	info.Amount = newAmount
	tier.TotalStaked.Sub(tier.TotalStaked, amount)

	c.recorder.Emit(c.clock.Now(), model.SourceFarm, c.ID.Hex(), "Withdraw", model.WithdrawEventData{
		User:     caller.Hex(),
		PoolID:   poolID,
		LockTier: lockTier,
		Amount:   amount.String(),
		To:       to.Hex(),
	})
	return nil
}

// Harvest pays the caller's pending reward to to and rebases the debt to the
// current accumulator. Gated by the lock duration while the pool's
// HarvestLocked policy is on.
func (c *Chef) Harvest(caller common.Address, poolID uint64, lockTier uint8, to common.Address) (*big.Int, error) {
	pool, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return nil, err
	}
	info := tier.user(caller)
	if pool.HarvestLocked && !c.lockOver(tier, info) {
		return nil, ErrLockTimeNotOver
	}
	if _, err := c.UpdatePool(poolID, lockTier); err != nil {
		return nil, err
	}

	accumulated := debtShare(info.Amount, tier.AccRewardPerShare)
	pending := new(big.Int).Sub(accumulated, info.RewardDebt)

	snap := c.ledger.Snapshot()
	if pending.Sign() > 0 {
		c.ledger.Mint(c.RewardToken, to, pending)
	}
	if err := pool.Rewarder.OnReward(poolID, lockTier, caller, to, pending, info.Amount); err != nil {
		c.ledger.RevertToSnapshot(snap)
		return nil, err
	}

	info.RewardDebt = accumulated

	c.recorder.Emit(c.clock.Now(), model.SourceFarm, c.ID.Hex(), "Harvest", model.HarvestEventData{
		User:     caller.Hex(),
		PoolID:   poolID,
		LockTier: lockTier,
		Amount:   pending.String(),
	})
	return pending, nil
}

// WithdrawAndHarvest atomically unstakes amount and pays the pending reward
// computed on the pre-withdrawal stake, then rebases the debt to the remaining
// stake. Lock-gated like Withdraw.
func (c *Chef) WithdrawAndHarvest(caller common.Address, poolID uint64, lockTier uint8, amount *big.Int, to common.Address) (*big.Int, error) {
	pool, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return nil, err
	}
	info := tier.user(caller)
	if !c.lockOver(tier, info) {
		return nil, ErrLockTimeNotOver
	}
	if amount.Cmp(info.Amount) > 0 {
		return nil, ErrInsufficientStake
	}
	if _, err := c.UpdatePool(poolID, lockTier); err != nil {
		return nil, err
	}

	accumulated := debtShare(info.Amount, tier.AccRewardPerShare)
	pending := new(big.Int).Sub(accumulated, info.RewardDebt)
	newAmount := new(big.Int).Sub(info.Amount, amount)

	snap := c.ledger.Snapshot()
	if pending.Sign() > 0 {
		c.ledger.Mint(c.RewardToken, to, pending)
	}
	if err := c.ledger.Transfer(pool.StakeToken, c.ID, to, amount); err != nil {
		c.ledger.RevertToSnapshot(snap)
		return nil, err
	}
	if err := pool.Rewarder.OnReward(poolID, lockTier, caller, to, pending, newAmount); err != nil {
		c.ledger.RevertToSnapshot(snap)
		return nil, err
	}

	info.RewardDebt = new(big.Int).Sub(accumulated, debtShare(amount, tier.AccRewardPerShare))
	info.Amount = newAmount
	tier.TotalStaked.Sub(tier.TotalStaked, amount)

	now := c.clock.Now()
	c.recorder.Emit(now, model.SourceFarm, c.ID.Hex(), "Withdraw", model.WithdrawEventData{
		User:     caller.Hex(),
		PoolID:   poolID,
		LockTier: lockTier,
		Amount:   amount.String(),
		To:       to.Hex(),
	})
	c.recorder.Emit(now, model.SourceFarm, c.ID.Hex(), "Harvest", model.HarvestEventData{
		User:     caller.Hex(),
		PoolID:   poolID,
		LockTier: lockTier,
		Amount:   pending.String(),
	})
	return pending, nil
}

// EmergencyWithdraw returns the caller's principal, forfeiting any unharvested
// reward. It bypasses settlement and the lock, and never fails on reward
// accounting: a failing rewarder hook is logged and ignored.
func (c *Chef) EmergencyWithdraw(caller common.Address, poolID uint64, lockTier uint8, to common.Address) (*big.Int, error) {
	pool, tier, err := c.poolTier(poolID, lockTier)
	if err != nil {
		return nil, err
	}
	info := tier.user(caller)
	amount := new(big.Int).Set(info.Amount)

	info.Amount = big.NewInt(0)
	info.RewardDebt = big.NewInt(0)
	tier.TotalStaked.Sub(tier.TotalStaked, amount)

	if amount.Sign() > 0 {
		if err := c.ledger.Transfer(pool.StakeToken, c.ID, to, amount); err != nil {
			return nil, err
		}
	}
	if err := pool.Rewarder.OnReward(poolID, lockTier, caller, to, big.NewInt(0), big.NewInt(0)); err != nil {
		c.logger.Warn("rewarder hook failed during emergency withdraw",
			zap.Uint64("pool_id", poolID),
			zap.Uint8("lock_tier", lockTier),
			zap.Error(err),
		)
	}

	c.recorder.Emit(c.clock.Now(), model.SourceFarm, c.ID.Hex(), "EmergencyWithdraw", model.EmergencyWithdrawEventData{
		User:     caller.Hex(),
		PoolID:   poolID,
		LockTier: lockTier,
		Amount:   amount.String(),
		To:       to.Hex(),
	})
	return amount, nil
}

func rewarderName(r Rewarder) string {
	if _, ok := r.(NopRewarder); ok {
		return "nop"
	}
	return fmt.Sprintf("%T", r)
}
