// Package ledger implements an in-memory fungible token: balances, an
// allowance-gated pull model, and mint/burn. One Token can serve as the
// vault's base asset and another as its share asset.
package ledger

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bitfsorg/stakevault-go/account"
)

// Holding is one holder's balance.
type Holding struct {
	Address account.Address
	Balance uint64
}

// Token is a fungible balance ledger. All methods are safe for concurrent use.
type Token struct {
	symbol string

	mu         sync.RWMutex
	supply     uint64
	balances   map[account.Address]uint64
	allowances map[account.Address]map[account.Address]uint64 // owner → spender → amount
}

// NewToken creates an empty ledger with the given symbol.
func NewToken(symbol string) *Token {
	return &Token{
		symbol:     symbol,
		balances:   make(map[account.Address]uint64),
		allowances: make(map[account.Address]map[account.Address]uint64),
	}
}

// Symbol returns the ticker the token was created with.
func (t *Token) Symbol() string { return t.symbol }

// TotalSupply returns the sum of all balances.
func (t *Token) TotalSupply() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.supply
}

// BalanceOf returns the balance of addr (zero if unknown).
func (t *Token) BalanceOf(addr account.Address) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balances[addr]
}

// Allowance returns how much spender may still pull from owner.
func (t *Token) Allowance(owner, spender account.Address) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowances[owner][spender]
}

// Mint creates amount new tokens credited to to.
func (t *Token) Mint(to account.Address, amount uint64) error {
	if to.IsZero() {
		return fmt.Errorf("%w: mint to", ErrZeroAddress)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount > math.MaxUint64-t.supply {
		return fmt.Errorf("%w: supply=%d mint=%d", ErrSupplyOverflow, t.supply, amount)
	}
	if amount == 0 {
		return nil
	}
	t.supply += amount
	t.balances[to] += amount
	return nil
}

// Burn destroys amount tokens held by from.
func (t *Token) Burn(from account.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal := t.balances[from]
	if bal < amount {
		return fmt.Errorf("%w: burn %d from balance %d", ErrInsufficientBalance, amount, bal)
	}
	t.setBalance(from, bal-amount)
	t.supply -= amount
	return nil
}

// Transfer moves amount from from to to.
func (t *Token) Transfer(from, to account.Address, amount uint64) error {
	if to.IsZero() {
		return fmt.Errorf("%w: transfer to", ErrZeroAddress)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// Approve sets the amount spender may pull from owner, replacing any
// previous allowance.
func (t *Token) Approve(owner, spender account.Address, amount uint64) error {
	if owner.IsZero() || spender.IsZero() {
		return fmt.Errorf("%w: approve", ErrZeroAddress)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setAllowance(owner, spender, amount)
	return nil
}

// DecreaseAllowance lowers spender's allowance over owner by sub.
func (t *Token) DecreaseAllowance(owner, spender account.Address, sub uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.allowances[owner][spender]
	if cur < sub {
		return fmt.Errorf("%w: allowance %d, decrease %d", ErrAllowanceBelowZero, cur, sub)
	}
	t.setAllowance(owner, spender, cur-sub)
	return nil
}

// TransferFrom lets spender move amount from from to to, consuming allowance.
// The allowance is checked before the balance, so an under-authorized pull
// fails with ErrInsufficientAllowance even when the balance is also short.
func (t *Token) TransferFrom(spender, from, to account.Address, amount uint64) error {
	if to.IsZero() {
		return fmt.Errorf("%w: transfer to", ErrZeroAddress)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowances[from][spender]
	if allowed < amount {
		return fmt.Errorf("%w: allowance %d, requested %d", ErrInsufficientAllowance, allowed, amount)
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.setAllowance(from, spender, allowed-amount)
	return nil
}

// Holders returns every non-zero balance, ordered by address.
func (t *Token) Holders() []Holding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Holding, 0, len(t.balances))
	for addr, bal := range t.balances {
		out = append(out, Holding{Address: addr, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// CheckConservation verifies that balances sum to the total supply.
func (t *Token) CheckConservation() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sum uint64
	for _, bal := range t.balances {
		sum += bal
	}
	if sum != t.supply {
		return fmt.Errorf("%w: balances=%d supply=%d", ErrConservationViolated, sum, t.supply)
	}
	return nil
}

// move must be called with t.mu held.
func (t *Token) move(from, to account.Address, amount uint64) error {
	bal := t.balances[from]
	if bal < amount {
		return fmt.Errorf("%w: transfer %d from balance %d", ErrInsufficientBalance, amount, bal)
	}
	if amount == 0 || from == to {
		return nil
	}
	t.setBalance(from, bal-amount)
	t.balances[to] += amount
	return nil
}

func (t *Token) setBalance(addr account.Address, bal uint64) {
	if bal == 0 {
		delete(t.balances, addr)
		return
	}
	t.balances[addr] = bal
}

func (t *Token) setAllowance(owner, spender account.Address, amount uint64) {
	if amount == 0 {
		if m := t.allowances[owner]; m != nil {
			delete(m, spender)
			if len(m) == 0 {
				delete(t.allowances, owner)
			}
		}
		return
	}
	m := t.allowances[owner]
	if m == nil {
		m = make(map[account.Address]uint64)
		t.allowances[owner] = m
	}
	m[spender] = amount
}
