package farm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Rewarder is the optional per-pool hook invoked after every reward-bearing
// interaction, e.g. to pay a second reward token on top of the base emission.
type Rewarder interface {
	OnReward(poolID uint64, lockTier uint8, user, to common.Address, rewardAmount, newStakeAmount *big.Int) error
}

// NopRewarder is the default hook; it does nothing.
type NopRewarder struct{}

func (NopRewarder) OnReward(uint64, uint8, common.Address, common.Address, *big.Int, *big.Int) error {
	return nil
}
