package stake

import (
	"time"

	"github.com/google/uuid"

	"github.com/bitfsorg/stakevault-go/account"
)

// BaseAsset is the ledger of the asset depositors lock in the vault.
type BaseAsset interface {
	// TransferFrom moves amount from from to to on behalf of spender,
	// consuming an allowance from granted by from. A short allowance is
	// reported by an error wrapping ErrInsufficientAllowance.
	TransferFrom(spender, from, to account.Address, amount uint64) error

	// Transfer moves amount from from to to.
	Transfer(from, to account.Address, amount uint64) error

	// BalanceOf returns the balance held by addr.
	BalanceOf(addr account.Address) uint64
}

// ShareAsset is the ledger of the vault's claim token. Burn reports a short
// balance by an error wrapping ErrInsufficientShareBalance.
type ShareAsset interface {
	Mint(to account.Address, amount uint64) error
	Burn(from account.Address, amount uint64) error
	BalanceOf(addr account.Address) uint64
	TotalSupply() uint64
}

// Recorder receives vault events after each successful operation.
type Recorder interface {
	Append(ev Event) error
}

// Position is the record of a single deposit. Its DepositedAt anchors the
// exit tax for every redemption that references it.
type Position struct {
	ID          uint64
	Owner       account.Address
	DepositedAt time.Time
	Amount      uint64 // base units deposited
	Shares      uint64 // shares minted at entry
}

// EventKind distinguishes vault events.
type EventKind uint8

const (
	EventEnter EventKind = iota + 1
	EventLeave
)

// String returns "enter" or "leave".
func (k EventKind) String() string {
	switch k {
	case EventEnter:
		return "enter"
	case EventLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Event describes a completed Enter or Leave.
type Event struct {
	ID         uuid.UUID
	Kind       EventKind
	Account    account.Address
	PositionID uint64
	At         time.Time

	// Amount is the base asset deposited (enter) or paid out (leave).
	Amount uint64
	// Shares is the amount minted (enter) or burned (leave).
	Shares uint64
	// Gross and Percent are only set on leave; Retained = Gross - Amount.
	Gross    uint64
	Percent  uint64
	Retained uint64

	// Pool state after the operation.
	Reserve     uint64
	TotalShares uint64
}

// Quote previews a redemption without executing it.
type Quote struct {
	Shares   uint64
	Gross    uint64
	Net      uint64
	Retained uint64
	Percent  uint64
	Elapsed  time.Duration
}

// Pool is a consistent snapshot of the vault's reserve and share supply.
type Pool struct {
	Reserve     uint64
	TotalShares uint64
}
