package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0x0000000000000000000000000000000000000011")
	tokenB = common.HexToAddress("0x0000000000000000000000000000000000000022")
	alice  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol  = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func TestMintAndTransfer(t *testing.T) {
	l := NewLedger()
	l.Mint(tokenA, alice, big.NewInt(1000))

	if l.TotalSupply(tokenA).Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("supply mismatch: %s", l.TotalSupply(tokenA))
	}
	if err := l.Transfer(tokenA, alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if l.BalanceOf(tokenA, alice).Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("sender balance mismatch: %s", l.BalanceOf(tokenA, alice))
	}
	if l.BalanceOf(tokenA, bob).Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("recipient balance mismatch: %s", l.BalanceOf(tokenA, bob))
	}

	// Balances are per token.
	if l.BalanceOf(tokenB, alice).Sign() != 0 {
		t.Fatalf("cross-token balance leak")
	}

	if err := l.Transfer(tokenA, bob, alice, big.NewInt(401)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestBurn(t *testing.T) {
	l := NewLedger()
	l.Mint(tokenA, alice, big.NewInt(500))

	if err := l.Burn(tokenA, alice, big.NewInt(200)); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if l.TotalSupply(tokenA).Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("supply after burn mismatch: %s", l.TotalSupply(tokenA))
	}
	if err := l.Burn(tokenA, alice, big.NewInt(301)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestAllowance(t *testing.T) {
	l := NewLedger()
	l.Mint(tokenA, alice, big.NewInt(100))
	l.Approve(tokenA, alice, bob, big.NewInt(60))

	if err := l.TransferFrom(tokenA, bob, alice, carol, big.NewInt(40)); err != nil {
		t.Fatalf("transferFrom failed: %v", err)
	}
	if l.Allowance(tokenA, alice, bob).Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("allowance not consumed: %s", l.Allowance(tokenA, alice, bob))
	}
	if l.BalanceOf(tokenA, carol).Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("recipient balance mismatch: %s", l.BalanceOf(tokenA, carol))
	}

	if err := l.TransferFrom(tokenA, bob, alice, carol, big.NewInt(21)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	// Allowance checks before balance.
	l.Approve(tokenA, alice, bob, big.NewInt(1000))
	if err := l.TransferFrom(tokenA, bob, alice, carol, big.NewInt(100)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestSnapshotRevert(t *testing.T) {
	l := NewLedger()
	l.Mint(tokenA, alice, big.NewInt(100))
	l.Approve(tokenA, alice, bob, big.NewInt(50))

	snap := l.Snapshot()
	l.Mint(tokenB, carol, big.NewInt(7))
	if err := l.Transfer(tokenA, alice, bob, big.NewInt(30)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if err := l.TransferFrom(tokenA, bob, alice, carol, big.NewInt(10)); err != nil {
		t.Fatalf("transferFrom failed: %v", err)
	}

	l.RevertToSnapshot(snap)

	if l.BalanceOf(tokenA, alice).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance not restored: %s", l.BalanceOf(tokenA, alice))
	}
	if l.BalanceOf(tokenA, bob).Sign() != 0 || l.BalanceOf(tokenA, carol).Sign() != 0 {
		t.Fatalf("transfer survived revert")
	}
	if l.Allowance(tokenA, alice, bob).Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("allowance not restored: %s", l.Allowance(tokenA, alice, bob))
	}
	if l.TotalSupply(tokenB).Sign() != 0 {
		t.Fatalf("supply survived revert: %s", l.TotalSupply(tokenB))
	}
}

func TestNestedSnapshots(t *testing.T) {
	l := NewLedger()
	l.Mint(tokenA, alice, big.NewInt(10))

	outer := l.Snapshot()
	l.Mint(tokenA, alice, big.NewInt(10))
	inner := l.Snapshot()
	l.Mint(tokenA, alice, big.NewInt(10))

	l.RevertToSnapshot(inner)
	if l.BalanceOf(tokenA, alice).Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("inner revert mismatch: %s", l.BalanceOf(tokenA, alice))
	}
	l.RevertToSnapshot(outer)
	if l.BalanceOf(tokenA, alice).Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("outer revert mismatch: %s", l.BalanceOf(tokenA, alice))
	}
}
