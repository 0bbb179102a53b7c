package router

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/amm"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/clock"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/events"
	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/token"
)

var (
	provider = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenA   = common.HexToAddress("0x0000000000000000000000000000000000000011")
	tokenB   = common.HexToAddress("0x0000000000000000000000000000000000000022")
	tokenC   = common.HexToAddress("0x0000000000000000000000000000000000000033")
)

func expandTo18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestQuote(t *testing.T) {
	got, err := Quote(big.NewInt(1), big.NewInt(100), big.NewInt(200))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("quote mismatch: %s", got)
	}

	got, err = Quote(big.NewInt(2), big.NewInt(200), big.NewInt(100))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("quote mismatch: %s", got)
	}

	if _, err := Quote(big.NewInt(0), big.NewInt(100), big.NewInt(200)); !errors.Is(err, ErrInsufficientAmount) {
		t.Fatalf("expected ErrInsufficientAmount, got %v", err)
	}
	if _, err := Quote(big.NewInt(1), big.NewInt(0), big.NewInt(200)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if _, err := Quote(big.NewInt(1), big.NewInt(100), big.NewInt(0)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestGetAmountOut(t *testing.T) {
	got, err := GetAmountOut(big.NewInt(2), big.NewInt(100), big.NewInt(100))
	if err != nil {
		t.Fatalf("getAmountOut failed: %v", err)
	}
	if got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("amount out mismatch: %s", got)
	}

	// 0.3% fee on the reference (5,10) pool.
	got, err = GetAmountOut(expandTo18(1), expandTo18(5), expandTo18(10))
	if err != nil {
		t.Fatalf("getAmountOut failed: %v", err)
	}
	expected, _ := new(big.Int).SetString("1662497915624478906", 10)
	if got.Cmp(expected) != 0 {
		t.Fatalf("amount out mismatch: %s != %s", got, expected)
	}

	if _, err := GetAmountOut(big.NewInt(0), big.NewInt(100), big.NewInt(100)); !errors.Is(err, ErrInsufficientInputAmount) {
		t.Fatalf("expected ErrInsufficientInputAmount, got %v", err)
	}
	if _, err := GetAmountOut(big.NewInt(2), big.NewInt(0), big.NewInt(100)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestGetAmountIn(t *testing.T) {
	got, err := GetAmountIn(big.NewInt(1), big.NewInt(100), big.NewInt(100))
	if err != nil {
		t.Fatalf("getAmountIn failed: %v", err)
	}
	if got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("amount in mismatch: %s", got)
	}

	if _, err := GetAmountIn(big.NewInt(0), big.NewInt(100), big.NewInt(100)); !errors.Is(err, ErrInsufficientOutputAmount) {
		t.Fatalf("expected ErrInsufficientOutputAmount, got %v", err)
	}
	if _, err := GetAmountIn(big.NewInt(1), big.NewInt(100), big.NewInt(0)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func newTestFactory(t *testing.T) (*amm.Factory, *token.Ledger) {
	t.Helper()
	ledger := token.NewLedger()
	factory := amm.NewFactory(
		common.HexToAddress("0x00000000000000000000000000000000000000ff"),
		provider,
		ledger,
		clock.NewManual(1),
		events.NewRecorder(),
		zap.NewNop(),
	)
	return factory, ledger
}

func seedPair(t *testing.T, factory *amm.Factory, ledger *token.Ledger, a, b common.Address, amountA, amountB *big.Int) {
	t.Helper()
	pair, err := factory.CreatePair(a, b)
	if err != nil {
		t.Fatalf("create pair failed: %v", err)
	}
	amount0, amount1 := amountA, amountB
	if pair.Token0 != a {
		amount0, amount1 = amountB, amountA
	}
	ledger.Mint(pair.Token0, pair.ID, amount0)
	ledger.Mint(pair.Token1, pair.ID, amount1)
	if _, err := pair.Mint(provider, provider); err != nil {
		t.Fatalf("seed mint failed: %v", err)
	}
}

func TestGetAmountsOutMultiHop(t *testing.T) {
	factory, ledger := newTestFactory(t)
	seedPair(t, factory, ledger, tokenA, tokenB, expandTo18(5), expandTo18(10))
	seedPair(t, factory, ledger, tokenB, tokenC, expandTo18(10), expandTo18(10))

	path := []common.Address{tokenA, tokenB, tokenC}
	amounts, err := GetAmountsOut(factory, expandTo18(1), path)
	if err != nil {
		t.Fatalf("getAmountsOut failed: %v", err)
	}
	if len(amounts) != 3 {
		t.Fatalf("amounts length mismatch: %d", len(amounts))
	}

	hop1, _ := new(big.Int).SetString("1662497915624478906", 10)
	if amounts[1].Cmp(hop1) != 0 {
		t.Fatalf("hop1 mismatch: %s != %s", amounts[1], hop1)
	}
	expected2, err := GetAmountOut(hop1, expandTo18(10), expandTo18(10))
	if err != nil {
		t.Fatalf("getAmountOut failed: %v", err)
	}
	if amounts[2].Cmp(expected2) != 0 {
		t.Fatalf("hop2 mismatch: %s != %s", amounts[2], expected2)
	}
}

func TestGetAmountsInMultiHop(t *testing.T) {
	factory, ledger := newTestFactory(t)
	seedPair(t, factory, ledger, tokenA, tokenB, expandTo18(5), expandTo18(10))
	seedPair(t, factory, ledger, tokenB, tokenC, expandTo18(10), expandTo18(10))

	path := []common.Address{tokenA, tokenB, tokenC}
	target := expandTo18(1)
	amounts, err := GetAmountsIn(factory, target, path)
	if err != nil {
		t.Fatalf("getAmountsIn failed: %v", err)
	}

	// Feeding the computed input forward reaches at least the target.
	forward, err := GetAmountsOut(factory, amounts[0], path)
	if err != nil {
		t.Fatalf("getAmountsOut failed: %v", err)
	}
	if forward[2].Cmp(target) < 0 {
		t.Fatalf("round-trip undershoots target: %s < %s", forward[2], target)
	}
}

func TestInvalidPath(t *testing.T) {
	factory, _ := newTestFactory(t)

	if _, err := GetAmountsOut(factory, big.NewInt(1), []common.Address{tokenA}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
	if _, err := GetAmountsIn(factory, big.NewInt(1), nil); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestMissingPair(t *testing.T) {
	factory, _ := newTestFactory(t)

	if _, err := GetAmountsOut(factory, big.NewInt(1), []common.Address{tokenA, tokenB}); !errors.Is(err, ErrPairNotFound) {
		t.Fatalf("expected ErrPairNotFound, got %v", err)
	}
}
