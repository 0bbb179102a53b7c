// Package router implements the pure quote and path math layered over pair
// reserves: single-hop amounts with the 0.3% fee baked in, and multi-hop
// chaining across a factory's pairs.
package router

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/amm"
)

var (
	ErrInsufficientAmount       = errors.New("INSUFFICIENT_AMOUNT")
	ErrInsufficientInputAmount  = errors.New("INSUFFICIENT_INPUT_AMOUNT")
	ErrInsufficientOutputAmount = errors.New("INSUFFICIENT_OUTPUT_AMOUNT")
	ErrInsufficientLiquidity    = errors.New("INSUFFICIENT_LIQUIDITY")
	ErrInvalidPath              = errors.New("INVALID_PATH")
	ErrPairNotFound             = errors.New("PAIR_NOT_FOUND")
)

var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
)

// Quote converts amountA to the equivalent amountB at the current reserve ratio,
// with no fee applied.
func Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if amountA.Sign() <= 0 {
		return nil, ErrInsufficientAmount
	}
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return new(big.Int).Div(new(big.Int).Mul(amountA, reserveB), reserveA), nil
}

// GetAmountOut returns the maximum output for a given input, fee included.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	amountInWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Add(new(big.Int).Mul(reserveIn, feeDen), amountInWithFee)
	return new(big.Int).Div(numerator, denominator), nil
}

// GetAmountIn returns the minimum input for a given output, fee included.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutputAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	numerator := new(big.Int).Mul(new(big.Int).Mul(reserveIn, amountOut), feeDen)
	denominator := new(big.Int).Mul(new(big.Int).Sub(reserveOut, amountOut), feeMul)
	return new(big.Int).Add(new(big.Int).Div(numerator, denominator), big.NewInt(1)), nil
}

// reservesFor returns the pair reserves oriented for a tokenA -> tokenB hop.
func reservesFor(factory *amm.Factory, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	token0, _, err := amm.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	pair := factory.Pair(tokenA, tokenB)
	if pair == nil {
		return nil, nil, ErrPairNotFound
	}
	reserve0, reserve1, _ := pair.Reserves()
	if tokenA == token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// GetAmountsOut chains GetAmountOut along the path; amounts[0] is amountIn.
func GetAmountsOut(factory *amm.Factory, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := reservesFor(factory, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		amounts[i+1], err = GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

// GetAmountsIn chains GetAmountIn backwards; amounts[len-1] is amountOut.
func GetAmountsIn(factory *amm.Factory, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*big.Int, len(path))
	amounts[len(path)-1] = new(big.Int).Set(amountOut)
	for i := len(path) - 1; i > 0; i-- {
		reserveIn, reserveOut, err := reservesFor(factory, path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		amounts[i-1], err = GetAmountIn(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
	}
	return amounts, nil
}
