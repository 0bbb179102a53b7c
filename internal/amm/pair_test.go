package amm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/clock"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/events"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/fixedpoint"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/token"
)

var (
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	feeKeeper = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	tokenA    = common.HexToAddress("0x0000000000000000000000000000000000000011")
	tokenB    = common.HexToAddress("0x0000000000000000000000000000000000000022")
)

type fixture struct {
	ledger  *token.Ledger
	factory *Factory
	pair    *Pair
	clock   *clock.Manual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := token.NewLedger()
	manual := clock.NewManual(1_700_000_000)
	factoryID := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	factory := NewFactory(factoryID, alice, ledger, manual, events.NewRecorder(), zap.NewNop())

	pair, err := factory.CreatePair(tokenA, tokenB)
	if err != nil {
		t.Fatalf("create pair failed: %v", err)
	}

	supply := expandTo18(10000)
	ledger.Mint(pair.Token0, alice, supply)
	ledger.Mint(pair.Token1, alice, supply)

	return &fixture{ledger: ledger, factory: factory, pair: pair, clock: manual}
}

func expandTo18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// addLiquidity transfers both tokens into the pair's custody and mints.
func (f *fixture) addLiquidity(t *testing.T, amount0, amount1 *big.Int) *big.Int {
	t.Helper()
	if err := f.ledger.Transfer(f.pair.Token0, alice, f.pair.ID, amount0); err != nil {
		t.Fatalf("transfer token0 failed: %v", err)
	}
	if err := f.ledger.Transfer(f.pair.Token1, alice, f.pair.ID, amount1); err != nil {
		t.Fatalf("transfer token1 failed: %v", err)
	}
	liquidity, err := f.pair.Mint(alice, alice)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	return liquidity
}

func TestMintFirstLiquidity(t *testing.T) {
	f := newFixture(t)

	liquidity := f.addLiquidity(t, expandTo18(1), expandTo18(4))

	expected := new(big.Int).Sub(expandTo18(2), MinimumLiquidity)
	if liquidity.Cmp(expected) != 0 {
		t.Fatalf("liquidity mismatch: %s != %s", liquidity, expected)
	}
	if f.pair.TotalLiquidity().Cmp(expandTo18(2)) != 0 {
		t.Fatalf("total supply mismatch: %s", f.pair.TotalLiquidity())
	}
	if f.ledger.BalanceOf(f.pair.ID, common.Address{}).Cmp(MinimumLiquidity) != 0 {
		t.Fatalf("minimum liquidity not locked")
	}

	reserve0, reserve1, _ := f.pair.Reserves()
	if reserve0.Cmp(expandTo18(1)) != 0 || reserve1.Cmp(expandTo18(4)) != 0 {
		t.Fatalf("reserves mismatch: %s / %s", reserve0, reserve1)
	}
}

func TestMintProRata(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(1), expandTo18(4))

	liquidity := f.addLiquidity(t, expandTo18(1), expandTo18(4))
	if liquidity.Cmp(expandTo18(2)) != 0 {
		t.Fatalf("pro-rata liquidity mismatch: %s", liquidity)
	}
}

func TestMintImbalancedTakesMin(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(1), expandTo18(4))

	// Excess token1 is penalized: only the token0 ratio counts.
	liquidity := f.addLiquidity(t, expandTo18(1), expandTo18(8))
	if liquidity.Cmp(expandTo18(2)) != 0 {
		t.Fatalf("imbalanced mint mismatch: %s", liquidity)
	}
}

func TestMintZeroFails(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(1), expandTo18(4))

	if _, err := f.pair.Mint(alice, alice); !errors.Is(err, ErrInsufficientLiquidityMinted) {
		t.Fatalf("expected ErrInsufficientLiquidityMinted, got %v", err)
	}
}

func TestSwapKnownOutputs(t *testing.T) {
	cases := []struct {
		swapAmount     int64
		reserve0       int64
		reserve1       int64
		expectedOutput string
	}{
		{1, 5, 10, "1662497915624478906"},
		{1, 10, 5, "453305446940074565"},
		{1, 1000, 1000, "996006981039903216"},
	}

	for _, tc := range cases {
		f := newFixture(t)
		f.addLiquidity(t, expandTo18(tc.reserve0), expandTo18(tc.reserve1))

		swapAmount := expandTo18(tc.swapAmount)
		expected, _ := new(big.Int).SetString(tc.expectedOutput, 10)

		if err := f.ledger.Transfer(f.pair.Token0, alice, f.pair.ID, swapAmount); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		// One unit above the fee-adjusted output must violate K.
		tooMuch := new(big.Int).Add(expected, big.NewInt(1))
		if err := f.pair.Swap(alice, big.NewInt(0), tooMuch, bob, nil, nil); !errors.Is(err, ErrK) {
			t.Fatalf("expected ErrK for output %s, got %v", tooMuch, err)
		}

		if err := f.pair.Swap(alice, big.NewInt(0), expected, bob, nil, nil); err != nil {
			t.Fatalf("swap failed: %v", err)
		}
		if got := f.ledger.BalanceOf(f.pair.Token1, bob); got.Cmp(expected) != 0 {
			t.Fatalf("output mismatch: %s != %s", got, expected)
		}
	}
}

func TestSwapInvariantNonDecreasing(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(5), expandTo18(10))

	r0, r1, _ := f.pair.Reserves()
	kBefore := new(big.Int).Mul(r0, r1)

	if err := f.ledger.Transfer(f.pair.Token0, alice, f.pair.ID, expandTo18(1)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	out, _ := new(big.Int).SetString("1662497915624478906", 10)
	if err := f.pair.Swap(alice, big.NewInt(0), out, bob, nil, nil); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	r0, r1, _ = f.pair.Reserves()
	kAfter := new(big.Int).Mul(r0, r1)
	if kAfter.Cmp(kBefore) < 0 {
		t.Fatalf("invariant decreased: %s < %s", kAfter, kBefore)
	}
}

func TestSwapRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(5), expandTo18(10))

	balanceBefore := new(big.Int).Set(f.ledger.BalanceOf(f.pair.Token1, bob))
	r0Before, r1Before, _ := f.pair.Reserves()

	// No payment made: optimistic transfer must be rolled back.
	err := f.pair.Swap(alice, big.NewInt(0), expandTo18(1), bob, nil, nil)
	if !errors.Is(err, ErrInsufficientInputAmount) {
		t.Fatalf("expected ErrInsufficientInputAmount, got %v", err)
	}

	if f.ledger.BalanceOf(f.pair.Token1, bob).Cmp(balanceBefore) != 0 {
		t.Fatalf("optimistic transfer not rolled back")
	}
	r0, r1, _ := f.pair.Reserves()
	if r0.Cmp(r0Before) != 0 || r1.Cmp(r1Before) != 0 {
		t.Fatalf("reserves changed on failed swap")
	}
	custody := f.ledger.BalanceOf(f.pair.Token1, f.pair.ID)
	if custody.Cmp(r1Before) != 0 {
		t.Fatalf("custody drifted from reserves: %s != %s", custody, r1Before)
	}
}

func TestSwapValidation(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(5), expandTo18(10))

	if err := f.pair.Swap(alice, big.NewInt(0), big.NewInt(0), bob, nil, nil); !errors.Is(err, ErrInsufficientOutputAmount) {
		t.Fatalf("expected ErrInsufficientOutputAmount, got %v", err)
	}
	if err := f.pair.Swap(alice, expandTo18(5), big.NewInt(0), bob, nil, nil); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if err := f.pair.Swap(alice, big.NewInt(1), big.NewInt(0), f.pair.Token0, nil, nil); !errors.Is(err, ErrInvalidTo) {
		t.Fatalf("expected ErrInvalidTo, got %v", err)
	}
}

// flashBorrower repays the pool inside the callback, plus enough to cover the fee.
type flashBorrower struct {
	ledger *token.Ledger
	pair   *Pair
	repay0 *big.Int
	fail   bool
}

func (b *flashBorrower) OnFundsReceived(sender common.Address, amount0Out, amount1Out *big.Int, data []byte) error {
	if b.fail {
		return errors.New("borrower reneged")
	}
	return b.ledger.Transfer(b.pair.Token0, bob, b.pair.ID, b.repay0)
}

func TestFlashSwapRepaidInCallback(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(5), expandTo18(10))
	f.ledger.Mint(f.pair.Token0, bob, expandTo18(10))

	borrower := &flashBorrower{ledger: f.ledger, pair: f.pair, repay0: expandTo18(2)}
	if err := f.pair.Swap(bob, big.NewInt(0), expandTo18(1), bob, []byte{0x01}, borrower); err != nil {
		t.Fatalf("flash swap failed: %v", err)
	}
}

func TestFlashSwapCallbackFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(5), expandTo18(10))

	borrower := &flashBorrower{ledger: f.ledger, pair: f.pair, fail: true}
	if err := f.pair.Swap(bob, big.NewInt(0), expandTo18(1), bob, nil, borrower); err == nil {
		t.Fatalf("expected callback failure to abort swap")
	}
	if f.ledger.BalanceOf(f.pair.Token1, bob).Sign() != 0 {
		t.Fatalf("borrowed funds survived rollback")
	}
}

func TestBurnRoundTrip(t *testing.T) {
	f := newFixture(t)

	amount0 := expandTo18(3)
	amount1 := expandTo18(3)
	liquidity := f.addLiquidity(t, amount0, amount1)

	balance0Before := new(big.Int).Set(f.ledger.BalanceOf(f.pair.Token0, alice))
	balance1Before := new(big.Int).Set(f.ledger.BalanceOf(f.pair.Token1, alice))

	if err := f.ledger.Transfer(f.pair.ID, alice, f.pair.ID, liquidity); err != nil {
		t.Fatalf("transfer LP failed: %v", err)
	}
	got0, got1, err := f.pair.Burn(alice, alice)
	if err != nil {
		t.Fatalf("burn failed: %v", err)
	}

	// Round-trip returns at most what went in, short the locked minimum.
	if got0.Cmp(amount0) > 0 || got1.Cmp(amount1) > 0 {
		t.Fatalf("burn returned more than deposited: %s / %s", got0, got1)
	}
	expected0 := new(big.Int).Sub(amount0, big.NewInt(1000))
	expected1 := new(big.Int).Sub(amount1, big.NewInt(1000))
	if got0.Cmp(expected0) != 0 || got1.Cmp(expected1) != 0 {
		t.Fatalf("burn amounts mismatch: %s / %s", got0, got1)
	}

	if f.ledger.BalanceOf(f.pair.Token0, alice).Cmp(new(big.Int).Add(balance0Before, got0)) != 0 {
		t.Fatalf("token0 not returned")
	}
	if f.ledger.BalanceOf(f.pair.Token1, alice).Cmp(new(big.Int).Add(balance1Before, got1)) != 0 {
		t.Fatalf("token1 not returned")
	}

	// Supply never returns to zero once minted.
	if f.pair.TotalLiquidity().Cmp(MinimumLiquidity) != 0 {
		t.Fatalf("total supply mismatch after full burn: %s", f.pair.TotalLiquidity())
	}
}

func TestBurnZeroFails(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(3), expandTo18(3))

	if _, _, err := f.pair.Burn(alice, alice); !errors.Is(err, ErrInsufficientLiquidityBurned) {
		t.Fatalf("expected ErrInsufficientLiquidityBurned, got %v", err)
	}
}

func TestProtocolFeeOff(t *testing.T) {
	f := newFixture(t)
	liquidity := f.addLiquidity(t, expandTo18(1000), expandTo18(1000))

	if err := f.ledger.Transfer(f.pair.Token1, alice, f.pair.ID, expandTo18(1)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	out, _ := new(big.Int).SetString("996006981039903216", 10)
	if err := f.pair.Swap(alice, out, big.NewInt(0), alice, nil, nil); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	if err := f.ledger.Transfer(f.pair.ID, alice, f.pair.ID, liquidity); err != nil {
		t.Fatalf("transfer LP failed: %v", err)
	}
	if _, _, err := f.pair.Burn(alice, alice); err != nil {
		t.Fatalf("burn failed: %v", err)
	}

	if f.pair.TotalLiquidity().Cmp(MinimumLiquidity) != 0 {
		t.Fatalf("fee minted with fee off: supply %s", f.pair.TotalLiquidity())
	}
}

func TestProtocolFeeOn(t *testing.T) {
	f := newFixture(t)
	if err := f.factory.SetFeeTo(alice, feeKeeper); err != nil {
		t.Fatalf("set fee recipient failed: %v", err)
	}

	liquidity := f.addLiquidity(t, expandTo18(1000), expandTo18(1000))

	if err := f.ledger.Transfer(f.pair.Token1, alice, f.pair.ID, expandTo18(1)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	out, _ := new(big.Int).SetString("996006981039903216", 10)
	if err := f.pair.Swap(alice, out, big.NewInt(0), alice, nil, nil); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	if err := f.ledger.Transfer(f.pair.ID, alice, f.pair.ID, liquidity); err != nil {
		t.Fatalf("transfer LP failed: %v", err)
	}
	if _, _, err := f.pair.Burn(alice, alice); err != nil {
		t.Fatalf("burn failed: %v", err)
	}

	feeLiquidity, _ := new(big.Int).SetString("249750499251388", 10)
	expectedSupply := new(big.Int).Add(MinimumLiquidity, feeLiquidity)
	if f.pair.TotalLiquidity().Cmp(expectedSupply) != 0 {
		t.Fatalf("supply mismatch with fee on: %s != %s", f.pair.TotalLiquidity(), expectedSupply)
	}
	if f.ledger.BalanceOf(f.pair.ID, feeKeeper).Cmp(feeLiquidity) != 0 {
		t.Fatalf("fee recipient LP mismatch: %s", f.ledger.BalanceOf(f.pair.ID, feeKeeper))
	}
}

func TestPriceCumulativeAccrual(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(3), expandTo18(3))

	f.clock.Advance(1)
	if err := f.pair.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	// One second at a 1:1 price adds exactly 2**112 to each accumulator.
	if f.pair.Price0CumulativeLast.Cmp(fixedpoint.Q112) != 0 {
		t.Fatalf("price0 accumulator mismatch: %s", f.pair.Price0CumulativeLast)
	}
	if f.pair.Price1CumulativeLast.Cmp(fixedpoint.Q112) != 0 {
		t.Fatalf("price1 accumulator mismatch: %s", f.pair.Price1CumulativeLast)
	}

	f.clock.Advance(9)
	if err := f.pair.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	expected := new(big.Int).Mul(fixedpoint.Q112, big.NewInt(10))
	if f.pair.Price0CumulativeLast.Cmp(expected) != 0 {
		t.Fatalf("price0 accumulator after 10s mismatch: %s", f.pair.Price0CumulativeLast)
	}
}

func TestSkim(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(3), expandTo18(3))

	surplus := expandTo18(1)
	if err := f.ledger.Transfer(f.pair.Token0, alice, f.pair.ID, surplus); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if err := f.pair.Skim(bob); err != nil {
		t.Fatalf("skim failed: %v", err)
	}
	if f.ledger.BalanceOf(f.pair.Token0, bob).Cmp(surplus) != 0 {
		t.Fatalf("skim output mismatch: %s", f.ledger.BalanceOf(f.pair.Token0, bob))
	}

	r0, _, _ := f.pair.Reserves()
	if f.ledger.BalanceOf(f.pair.Token0, f.pair.ID).Cmp(r0) != 0 {
		t.Fatalf("custody and reserves disagree after skim")
	}
}

func TestSyncAdoptsDrift(t *testing.T) {
	f := newFixture(t)
	f.addLiquidity(t, expandTo18(3), expandTo18(3))

	if err := f.ledger.Transfer(f.pair.Token0, alice, f.pair.ID, expandTo18(2)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if err := f.pair.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	r0, _, _ := f.pair.Reserves()
	if r0.Cmp(expandTo18(5)) != 0 {
		t.Fatalf("reserve0 after sync mismatch: %s", r0)
	}
}
