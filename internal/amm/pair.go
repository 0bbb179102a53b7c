package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/clock"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/events"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/fixedpoint"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/token"
)

// MinimumLiquidity is permanently locked to the zero address on the first mint so
// total supply can never return to zero.
var MinimumLiquidity = big.NewInt(1000)

var (
	thousand = big.NewInt(1000)
	three    = big.NewInt(3)
	five     = big.NewInt(5)
	million  = big.NewInt(1000000)
)

// Callee is the optional on-funds-received capability invoked by Swap after the
// optimistic output transfer and before the invariant check. A callee that fails,
// or leaves the pair underpaid, aborts the whole swap.
type Callee interface {
	OnFundsReceived(sender common.Address, amount0Out, amount1Out *big.Int, data []byte) error
}

// Pair is a constant-product market for one ordered token tuple. Its ID doubles
// as the custody account and the LP token address in the token ledger.
type Pair struct {
	ID        common.Address
	Token0    common.Address
	Token1    common.Address
	CreatedAt uint64

	reserve0           *big.Int
	reserve1           *big.Int
	blockTimestampLast uint32

	Price0CumulativeLast *big.Int
	Price1CumulativeLast *big.Int
	KLast                *big.Int

	factory  *Factory
	ledger   *token.Ledger
	clock    clock.Clock
	recorder *events.Recorder
	logger   *zap.Logger

	locked bool
}

// Reserves returns the tracked reserves and the timestamp of their last update.
func (p *Pair) Reserves() (reserve0, reserve1 *big.Int, blockTimestampLast uint32) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), p.blockTimestampLast
}

// TotalLiquidity returns the outstanding LP token supply.
func (p *Pair) TotalLiquidity() *big.Int {
	return p.ledger.TotalSupply(p.ID)
}

// LiquidityBalance returns holder's LP token balance.
func (p *Pair) LiquidityBalance(holder common.Address) *big.Int {
	return p.ledger.BalanceOf(p.ID, holder)
}

// run wraps a state-changing entry point with the reentrancy guard and a ledger
// snapshot, so every public call either completes or leaves no trace. Pair fields
// are only written after the last fallible step of each operation.
func (p *Pair) run(fn func() error) error {
	if p.locked {
		return ErrLocked
	}
	p.locked = true
	defer func() { p.locked = false }()

	snap := p.ledger.Snapshot()
	if err := fn(); err != nil {
		p.ledger.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// Mint converts tokens already transferred into the pair's custody into new LP
// tokens for to. Returns the liquidity minted.
func (p *Pair) Mint(sender, to common.Address) (*big.Int, error) {
	var liquidity *big.Int
	err := p.run(func() error {
		reserve0, reserve1, _ := p.Reserves()
		balance0 := p.ledger.BalanceOf(p.Token0, p.ID)
		balance1 := p.ledger.BalanceOf(p.Token1, p.ID)
		amount0 := new(big.Int).Sub(balance0, reserve0)
		amount1 := new(big.Int).Sub(balance1, reserve1)

		feeOn := p.mintFee(reserve0, reserve1)

		totalSupply := p.ledger.TotalSupply(p.ID)
		if totalSupply.Sign() == 0 {
			liquidity = new(big.Int).Sub(fixedpoint.Sqrt(new(big.Int).Mul(amount0, amount1)), MinimumLiquidity)
			p.ledger.Mint(p.ID, common.Address{}, MinimumLiquidity)
		} else {
			liquidity = fixedpoint.Min(
				new(big.Int).Div(new(big.Int).Mul(amount0, totalSupply), reserve0),
				new(big.Int).Div(new(big.Int).Mul(amount1, totalSupply), reserve1),
			)
		}
		if liquidity.Sign() <= 0 {
			return ErrInsufficientLiquidityMinted
		}
		p.ledger.Mint(p.ID, to, liquidity)

		if err := p.update(balance0, balance1); err != nil {
			return err
		}
		if feeOn {
			p.KLast = new(big.Int).Mul(p.reserve0, p.reserve1)
		}

		p.recorder.Emit(p.clock.Now(), model.SourcePair, p.ID.Hex(), "Mint", model.MintEventData{
			Sender:    sender.Hex(),
			Amount0:   amount0.String(),
			Amount1:   amount1.String(),
			Liquidity: liquidity.String(),
		})
		p.logger.Debug("pair mint",
			zap.String("pair", p.ID.Hex()),
			zap.String("amount0", amount0.String()),
			zap.String("amount1", amount1.String()),
			zap.String("liquidity", liquidity.String()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return liquidity, nil
}

// Burn redeems the LP tokens held in the pair's own custody for a pro-rata share
// of both balances, paid to to. Returns the amounts sent out.
func (p *Pair) Burn(sender, to common.Address) (*big.Int, *big.Int, error) {
	var amount0, amount1 *big.Int
	err := p.run(func() error {
		reserve0, reserve1, _ := p.Reserves()
		balance0 := p.ledger.BalanceOf(p.Token0, p.ID)
		balance1 := p.ledger.BalanceOf(p.Token1, p.ID)
		liquidity := new(big.Int).Set(p.ledger.BalanceOf(p.ID, p.ID))

		feeOn := p.mintFee(reserve0, reserve1)

		// Pro-rata over actual balances, not reserves, so surplus is included.
		totalSupply := p.ledger.TotalSupply(p.ID)
		amount0 = new(big.Int).Div(new(big.Int).Mul(liquidity, balance0), totalSupply)
		amount1 = new(big.Int).Div(new(big.Int).Mul(liquidity, balance1), totalSupply)
		if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
			return ErrInsufficientLiquidityBurned
		}

		if err := p.ledger.Burn(p.ID, p.ID, liquidity); err != nil {
			return err
		}
		if err := p.ledger.Transfer(p.Token0, p.ID, to, amount0); err != nil {
			return err
		}
		if err := p.ledger.Transfer(p.Token1, p.ID, to, amount1); err != nil {
			return err
		}

		balance0 = p.ledger.BalanceOf(p.Token0, p.ID)
		balance1 = p.ledger.BalanceOf(p.Token1, p.ID)
		if err := p.update(balance0, balance1); err != nil {
			return err
		}
		if feeOn {
			p.KLast = new(big.Int).Mul(p.reserve0, p.reserve1)
		}

		p.recorder.Emit(p.clock.Now(), model.SourcePair, p.ID.Hex(), "Burn", model.BurnEventData{
			Sender:    sender.Hex(),
			Amount0:   amount0.String(),
			Amount1:   amount1.String(),
			Liquidity: liquidity.String(),
			To:        to.Hex(),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// Swap sends the requested outputs to to before checking payment, optionally
// invoking callee in between, then verifies the fee-adjusted constant product.
// Any failure rolls back the optimistic transfers.
func (p *Pair) Swap(sender common.Address, amount0Out, amount1Out *big.Int, to common.Address, data []byte, callee Callee) error {
	return p.run(func() error {
		if amount0Out.Sign() <= 0 && amount1Out.Sign() <= 0 {
			return ErrInsufficientOutputAmount
		}
		reserve0, reserve1, _ := p.Reserves()
		if amount0Out.Cmp(reserve0) >= 0 || amount1Out.Cmp(reserve1) >= 0 {
			return ErrInsufficientLiquidity
		}
		if to == p.Token0 || to == p.Token1 {
			return ErrInvalidTo
		}

		if amount0Out.Sign() > 0 {
			if err := p.ledger.Transfer(p.Token0, p.ID, to, amount0Out); err != nil {
				return err
			}
		}
		if amount1Out.Sign() > 0 {
			if err := p.ledger.Transfer(p.Token1, p.ID, to, amount1Out); err != nil {
				return err
			}
		}
		if callee != nil {
			if err := callee.OnFundsReceived(sender, amount0Out, amount1Out, data); err != nil {
				return err
			}
		}

		balance0 := p.ledger.BalanceOf(p.Token0, p.ID)
		balance1 := p.ledger.BalanceOf(p.Token1, p.ID)

		amount0In := inferredInput(balance0, reserve0, amount0Out)
		amount1In := inferredInput(balance1, reserve1, amount1Out)
		if amount0In.Sign() <= 0 && amount1In.Sign() <= 0 {
			return ErrInsufficientInputAmount
		}

		// 0.3% fee: the adjusted product must not fall below the pre-swap one.
		adjusted0 := new(big.Int).Sub(new(big.Int).Mul(balance0, thousand), new(big.Int).Mul(amount0In, three))
		adjusted1 := new(big.Int).Sub(new(big.Int).Mul(balance1, thousand), new(big.Int).Mul(amount1In, three))
		kBefore := new(big.Int).Mul(new(big.Int).Mul(reserve0, reserve1), million)
		if new(big.Int).Mul(adjusted0, adjusted1).Cmp(kBefore) < 0 {
			return ErrK
		}

		if err := p.update(balance0, balance1); err != nil {
			return err
		}

		p.recorder.Emit(p.clock.Now(), model.SourcePair, p.ID.Hex(), "Swap", model.SwapEventData{
			Sender:     sender.Hex(),
			Amount0In:  amount0In.String(),
			Amount1In:  amount1In.String(),
			Amount0Out: amount0Out.String(),
			Amount1Out: amount1Out.String(),
			To:         to.Hex(),
		})
		p.logger.Debug("pair swap",
			zap.String("pair", p.ID.Hex()),
			zap.String("amount0_in", amount0In.String()),
			zap.String("amount1_in", amount1In.String()),
			zap.String("amount0_out", amount0Out.String()),
			zap.String("amount1_out", amount1Out.String()),
		)
		return nil
	})
}

// Skim transfers any balance above the tracked reserves out to to.
func (p *Pair) Skim(to common.Address) error {
	return p.run(func() error {
		excess0 := new(big.Int).Sub(p.ledger.BalanceOf(p.Token0, p.ID), p.reserve0)
		excess1 := new(big.Int).Sub(p.ledger.BalanceOf(p.Token1, p.ID), p.reserve1)
		if excess0.Sign() > 0 {
			if err := p.ledger.Transfer(p.Token0, p.ID, to, excess0); err != nil {
				return err
			}
		}
		if excess1.Sign() > 0 {
			if err := p.ledger.Transfer(p.Token1, p.ID, to, excess1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sync forces the reserves to match the actual balances.
func (p *Pair) Sync() error {
	return p.run(func() error {
		return p.update(p.ledger.BalanceOf(p.Token0, p.ID), p.ledger.BalanceOf(p.Token1, p.ID))
	})
}

// inferredInput reconstructs how much was paid in on one side:
// balance - (reserve - amountOut), clamped at zero.
func inferredInput(balance, reserve, amountOut *big.Int) *big.Int {
	expected := new(big.Int).Sub(reserve, amountOut)
	if balance.Cmp(expected) > 0 {
		return new(big.Int).Sub(balance, expected)
	}
	return big.NewInt(0)
}

// update advances the price accumulators for the elapsed time at the old
// reserves, then sets reserves to the given balances. Called at the end of every
// state-changing operation.
func (p *Pair) update(balance0, balance1 *big.Int) error {
	if balance0.Cmp(fixedpoint.MaxUint112) > 0 || balance1.Cmp(fixedpoint.MaxUint112) > 0 {
		return ErrOverflow
	}

	blockTimestamp := uint32(p.clock.Now())
	timeElapsed := fixedpoint.Elapsed32(blockTimestamp, p.blockTimestampLast)
	if timeElapsed > 0 && p.reserve0.Sign() != 0 && p.reserve1.Sign() != 0 {
		elapsed := new(big.Int).SetUint64(uint64(timeElapsed))
		p.Price0CumulativeLast.Add(p.Price0CumulativeLast,
			new(big.Int).Mul(fixedpoint.UQDiv(fixedpoint.Encode(p.reserve1), p.reserve0), elapsed))
		p.Price1CumulativeLast.Add(p.Price1CumulativeLast,
			new(big.Int).Mul(fixedpoint.UQDiv(fixedpoint.Encode(p.reserve0), p.reserve1), elapsed))
	}

	p.reserve0 = new(big.Int).Set(balance0)
	p.reserve1 = new(big.Int).Set(balance1)
	p.blockTimestampLast = blockTimestamp

	p.recorder.Emit(p.clock.Now(), model.SourcePair, p.ID.Hex(), "Sync", model.SyncEventData{
		Reserve0: p.reserve0.String(),
		Reserve1: p.reserve1.String(),
	})
	return nil
}

// mintFee mints the protocol share of invariant growth to the fee recipient:
// 1/6th of the sqrt-k growth since the last liquidity event.
func (p *Pair) mintFee(reserve0, reserve1 *big.Int) bool {
	feeTo := p.factory.FeeTo()
	feeOn := feeTo != (common.Address{})
	if !feeOn {
		if p.KLast.Sign() != 0 {
			p.KLast = big.NewInt(0)
		}
		return false
	}

	if p.KLast.Sign() == 0 {
		return true
	}
	rootK := fixedpoint.Sqrt(new(big.Int).Mul(reserve0, reserve1))
	rootKLast := fixedpoint.Sqrt(p.KLast)
	if rootK.Cmp(rootKLast) > 0 {
		numerator := new(big.Int).Mul(p.ledger.TotalSupply(p.ID), new(big.Int).Sub(rootK, rootKLast))
		denominator := new(big.Int).Add(new(big.Int).Mul(rootK, five), rootKLast)
		liquidity := new(big.Int).Div(numerator, denominator)
		if liquidity.Sign() > 0 {
			p.ledger.Mint(p.ID, feeTo, liquidity)
		}
	}
	return true
}
