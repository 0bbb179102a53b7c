package token

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("INSUFFICIENT_BALANCE")
	ErrInsufficientAllowance = errors.New("INSUFFICIENT_ALLOWANCE")
)

type holderKey struct {
	token  common.Address
	holder common.Address
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

// journalEntry remembers a single pre-image so a snapshot can be rolled back.
type journalEntry struct {
	kind      int // 0 balance, 1 allowance, 2 supply
	balance   holderKey
	allowance allowanceKey
	token     common.Address
	prev      *big.Int
}

// Ledger is the fungible-token collaborator: balances, allowances and supply for
// any number of tokens, keyed by address. It is the external source of truth the
// pair and farm ledgers reconcile against. The journal gives callers an atomic
// boundary: take a snapshot at entry, revert it if the operation fails.
type Ledger struct {
	balances   map[holderKey]*big.Int
	allowances map[allowanceKey]*big.Int
	supplies   map[common.Address]*big.Int

	journal []journalEntry
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[holderKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		supplies:   make(map[common.Address]*big.Int),
	}
}

// BalanceOf returns the holder's balance of token. The result must not be mutated.
func (l *Ledger) BalanceOf(token, holder common.Address) *big.Int {
	if b, ok := l.balances[holderKey{token, holder}]; ok {
		return b
	}
	return big.NewInt(0)
}

// TotalSupply returns the minted supply of token.
func (l *Ledger) TotalSupply(token common.Address) *big.Int {
	if s, ok := l.supplies[token]; ok {
		return s
	}
	return big.NewInt(0)
}

// Allowance returns what spender may move from owner's balance of token.
func (l *Ledger) Allowance(token, owner, spender common.Address) *big.Int {
	if a, ok := l.allowances[allowanceKey{token, owner, spender}]; ok {
		return a
	}
	return big.NewInt(0)
}

func (l *Ledger) setBalance(token, holder common.Address, value *big.Int) {
	key := holderKey{token, holder}
	prev, ok := l.balances[key]
	if !ok {
		prev = nil
	}
	l.journal = append(l.journal, journalEntry{kind: 0, balance: key, prev: prev})
	l.balances[key] = value
}

func (l *Ledger) setSupply(token common.Address, value *big.Int) {
	prev, ok := l.supplies[token]
	if !ok {
		prev = nil
	}
	l.journal = append(l.journal, journalEntry{kind: 2, token: token, prev: prev})
	l.supplies[token] = value
}

func (l *Ledger) setAllowance(token, owner, spender common.Address, value *big.Int) {
	key := allowanceKey{token, owner, spender}
	prev, ok := l.allowances[key]
	if !ok {
		prev = nil
	}
	l.journal = append(l.journal, journalEntry{kind: 1, allowance: key, prev: prev})
	l.allowances[key] = value
}

// Mint creates amount new units of token for to.
func (l *Ledger) Mint(token, to common.Address, amount *big.Int) {
	l.setSupply(token, new(big.Int).Add(l.TotalSupply(token), amount))
	l.setBalance(token, to, new(big.Int).Add(l.BalanceOf(token, to), amount))
}

// Burn destroys amount units of token held by from.
func (l *Ledger) Burn(token, from common.Address, amount *big.Int) error {
	balance := l.BalanceOf(token, from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.setBalance(token, from, new(big.Int).Sub(balance, amount))
	l.setSupply(token, new(big.Int).Sub(l.TotalSupply(token), amount))
	return nil
}

// Transfer moves amount of token from one holder to another.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	balance := l.BalanceOf(token, from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.setBalance(token, from, new(big.Int).Sub(balance, amount))
	l.setBalance(token, to, new(big.Int).Add(l.BalanceOf(token, to), amount))
	return nil
}

// Approve lets spender move up to amount of owner's token.
func (l *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) {
	l.setAllowance(token, owner, spender, new(big.Int).Set(amount))
}

// TransferFrom moves amount of token from owner to recipient on behalf of spender,
// consuming allowance.
func (l *Ledger) TransferFrom(token, spender, owner, to common.Address, amount *big.Int) error {
	allowance := l.Allowance(token, owner, spender)
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(token, owner, to, amount); err != nil {
		return err
	}
	l.setAllowance(token, owner, spender, new(big.Int).Sub(allowance, amount))
	return nil
}

// Snapshot marks the current state; RevertToSnapshot undoes everything after it.
func (l *Ledger) Snapshot() int {
	return len(l.journal)
}

func (l *Ledger) RevertToSnapshot(snap int) {
	for i := len(l.journal) - 1; i >= snap; i-- {
		entry := l.journal[i]
		switch entry.kind {
		case 0:
			if entry.prev == nil {
				delete(l.balances, entry.balance)
			} else {
				l.balances[entry.balance] = entry.prev
			}
		case 1:
			if entry.prev == nil {
				delete(l.allowances, entry.allowance)
			} else {
				l.allowances[entry.allowance] = entry.prev
			}
		case 2:
			if entry.prev == nil {
				delete(l.supplies, entry.token)
			} else {
				l.supplies[entry.token] = entry.prev
			}
		}
	}
	l.journal = l.journal[:snap]
}
