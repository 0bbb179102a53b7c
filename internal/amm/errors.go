package amm

import "errors"

var (
	ErrIdenticalTokens             = errors.New("IDENTICAL_ADDRESSES")
	ErrZeroAddress                 = errors.New("ZERO_ADDRESS")
	ErrPairExists                  = errors.New("PAIR_EXISTS")
	ErrForbidden                   = errors.New("FORBIDDEN")
	ErrLocked                      = errors.New("LOCKED")
	ErrOverflow                    = errors.New("OVERFLOW")
	ErrInsufficientLiquidityMinted = errors.New("INSUFFICIENT_LIQUIDITY_MINTED")
	ErrInsufficientLiquidityBurned = errors.New("INSUFFICIENT_LIQUIDITY_BURNED")
	ErrInsufficientOutputAmount    = errors.New("INSUFFICIENT_OUTPUT_AMOUNT")
	ErrInsufficientInputAmount     = errors.New("INSUFFICIENT_INPUT_AMOUNT")
	ErrInsufficientLiquidity       = errors.New("INSUFFICIENT_LIQUIDITY")
	ErrInvalidTo                   = errors.New("INVALID_TO")
	ErrK                           = errors.New("K")
)
