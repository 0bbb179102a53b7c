package model

// Event payloads carry big integer values as decimal strings so they survive
// JSON round-trips without precision loss.

// PairCreatedEventData is emitted by the factory for every new pair.
type PairCreatedEventData struct {
	Token0    string `json:"token0"`
	Token1    string `json:"token1"`
	Pair      string `json:"pair"`
	PairIndex uint64 `json:"pair_index"`
}

// MintEventData is the liquidity-provision event payload.
type MintEventData struct {
	Sender    string `json:"sender"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	Liquidity string `json:"liquidity"`
}

// BurnEventData is the liquidity-redemption event payload.
type BurnEventData struct {
	Sender    string `json:"sender"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	Liquidity string `json:"liquidity"`
	To        string `json:"to"`
}

// SwapEventData is the trade event payload.
type SwapEventData struct {
	Sender     string `json:"sender"`
	Amount0In  string `json:"amount0_in"`
	Amount1In  string `json:"amount1_in"`
	Amount0Out string `json:"amount0_out"`
	Amount1Out string `json:"amount1_out"`
	To         string `json:"to"`
}

// SyncEventData reports the reserves after every reserve update.
type SyncEventData struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

// DepositEventData is the farm stake event payload.
type DepositEventData struct {
	User     string `json:"user"`
	PoolID   uint64 `json:"pool_id"`
	LockTier uint8  `json:"lock_tier"`
	Amount   string `json:"amount"`
	To       string `json:"to"`
}

// WithdrawEventData is the farm unstake event payload.
type WithdrawEventData struct {
	User     string `json:"user"`
	PoolID   uint64 `json:"pool_id"`
	LockTier uint8  `json:"lock_tier"`
	Amount   string `json:"amount"`
	To       string `json:"to"`
}

// HarvestEventData is the farm reward-claim event payload.
type HarvestEventData struct {
	User     string `json:"user"`
	PoolID   uint64 `json:"pool_id"`
	LockTier uint8  `json:"lock_tier"`
	Amount   string `json:"amount"`
}

// EmergencyWithdrawEventData is the principal-only exit event payload.
type EmergencyWithdrawEventData struct {
	User     string `json:"user"`
	PoolID   uint64 `json:"pool_id"`
	LockTier uint8  `json:"lock_tier"`
	Amount   string `json:"amount"`
	To       string `json:"to"`
}

// PoolAdditionEventData is emitted for every tier registered by AddPool.
type PoolAdditionEventData struct {
	PoolID     uint64 `json:"pool_id"`
	LockTier   uint8  `json:"lock_tier"`
	AllocPoint uint64 `json:"alloc_point"`
	StakeToken string `json:"stake_token"`
	Rewarder   string `json:"rewarder"`
}

// SetPoolEventData is emitted when governance reweights a tier.
type SetPoolEventData struct {
	PoolID     uint64 `json:"pool_id"`
	LockTier   uint8  `json:"lock_tier"`
	AllocPoint uint64 `json:"alloc_point"`
	Rewarder   string `json:"rewarder"`
	Overwrite  bool   `json:"overwrite"`
}

// UpdatePoolEventData reports a tier settlement.
type UpdatePoolEventData struct {
	PoolID            uint64 `json:"pool_id"`
	LockTier          uint8  `json:"lock_tier"`
	LastRewardTime    uint64 `json:"last_reward_time"`
	TotalStaked       string `json:"total_staked"`
	AccRewardPerShare string `json:"acc_reward_per_share"`
}
