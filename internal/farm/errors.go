package farm

import "errors"

var (
	ErrNotOwner          = errors.New("NOT_OWNER")
	ErrPoolDoesNotExist  = errors.New("POOL_DOES_NOT_EXIST")
	ErrLockTimeNotOver   = errors.New("FIXED_LOCK_TIME_IS_NOT_OVER")
	ErrBadAllocPoints    = errors.New("WRONG_ALLOC_POINTS_LENGTH")
	ErrInsufficientStake = errors.New("INSUFFICIENT_STAKED_AMOUNT")
)
