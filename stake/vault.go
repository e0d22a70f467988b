// Package stake implements a pooled-staking vault.
//
// Depositors lock a base asset and receive shares proportional to their
// contribution. A redemption is worth shares * reserve / totalShares, reduced
// by an exit tax that depends on the age of the position being redeemed. The
// taxed part stays in the reserve and raises the value of every remaining
// share.
//
// The vault owns no balances itself: the reserve is the vault address's
// balance on the base ledger and the share supply is the share ledger's
// total supply. It only keeps the position registry.
package stake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/ledger"
)

// Vault is a single pool. All operations are serialized by one mutex, so a
// call never observes a half-applied Enter or Leave.
type Vault struct {
	addr     account.Address
	base     BaseAsset
	shares   ShareAsset
	clock    Clock
	schedule Schedule
	log      *zap.Logger
	rec      Recorder

	mu        sync.Mutex
	positions *registry
}

// Option configures a Vault.
type Option func(*Vault)

// WithClock sets the time source. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(v *Vault) { v.clock = c }
}

// WithSchedule replaces the default exit-tax schedule.
func WithSchedule(s Schedule) Option {
	return func(v *Vault) { v.schedule = s }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// WithRecorder registers a sink for Enter/Leave events.
func WithRecorder(r Recorder) Option {
	return func(v *Vault) { v.rec = r }
}

// New creates a vault whose custody account is addr.
func New(addr account.Address, base BaseAsset, shares ShareAsset, opts ...Option) (*Vault, error) {
	if addr.IsZero() {
		return nil, ErrZeroVaultAddress
	}
	if base == nil || shares == nil {
		return nil, ErrNilCollaborator
	}

	v := &Vault{
		addr:      addr,
		base:      base,
		shares:    shares,
		clock:     SystemClock{},
		schedule:  DefaultSchedule(),
		log:       zap.NewNop(),
		positions: newRegistry(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.schedule.Validate(); err != nil {
		return nil, err
	}
	if v.log == nil {
		v.log = zap.NewNop()
	}
	if v.clock == nil {
		v.clock = SystemClock{}
	}
	return v, nil
}

// Address returns the vault's custody account.
func (v *Vault) Address() account.Address { return v.addr }

// Schedule returns a copy of the exit-tax schedule.
func (v *Vault) Schedule() Schedule {
	out := make(Schedule, len(v.schedule))
	copy(out, v.schedule)
	return out
}

// Enter mints shares to caller, pulls amount of the base asset from caller
// and records a new position. It returns the new position id.
//
// The caller must have approved the vault address for at least amount on the
// base ledger. Nothing changes if any step fails.
func (v *Vault) Enter(caller account.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("%w: enter", ErrZeroAmount)
	}
	if caller == v.addr {
		return 0, fmt.Errorf("%w: enter", ErrVaultCaller)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()
	pool := v.pool()

	minted, err := SharesForDeposit(amount, pool.TotalShares, pool.Reserve)
	if err != nil {
		if errors.Is(err, ErrDegenerateVaultState) {
			v.log.Error("enter rejected: shares outstanding with empty reserve",
				zap.Stringer("caller", caller),
				zap.Uint64("amount", amount),
				zap.Uint64("total_shares", pool.TotalShares))
		}
		return 0, err
	}

	// Mint before pulling: a burn undoes a mint exactly, while refunding a
	// pull would leave the caller's allowance consumed.
	if err := v.shares.Mint(caller, minted); err != nil {
		return 0, fmt.Errorf("stake: mint shares: %w", err)
	}
	if err := v.base.TransferFrom(v.addr, caller, v.addr, amount); err != nil {
		if rbErr := v.shares.Burn(caller, minted); rbErr != nil {
			v.log.Error("burn after failed pull",
				zap.Stringer("caller", caller),
				zap.Uint64("minted", minted),
				zap.Error(rbErr))
			return 0, fmt.Errorf("%w (burn failed: %w)", baseError(err), rbErr)
		}
		return 0, baseError(err)
	}

	pos := v.positions.add(caller, now, amount, minted)
	after := v.pool()

	v.log.Debug("enter",
		zap.Stringer("caller", caller),
		zap.Uint64("position", pos.ID),
		zap.Uint64("amount", amount),
		zap.Uint64("minted", minted),
		zap.Uint64("reserve", after.Reserve),
		zap.Uint64("total_shares", after.TotalShares))

	v.record(Event{
		Kind:        EventEnter,
		Account:     caller,
		PositionID:  pos.ID,
		At:          now,
		Amount:      amount,
		Shares:      minted,
		Reserve:     after.Reserve,
		TotalShares: after.TotalShares,
	})
	return pos.ID, nil
}

// Leave burns shareAmount of caller's shares and pays out their taxed claim.
// The tax rate is taken from the age of positionID, which must belong to
// caller. The shares burned need not have been minted by that position.
func (v *Vault) Leave(caller account.Address, shareAmount, positionID uint64) (uint64, error) {
	if shareAmount == 0 {
		return 0, fmt.Errorf("%w: leave", ErrZeroAmount)
	}
	if caller == v.addr {
		return 0, fmt.Errorf("%w: leave", ErrVaultCaller)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	pos, err := v.positions.get(caller, positionID)
	if err != nil {
		return 0, err
	}
	if held := v.shares.BalanceOf(caller); held < shareAmount {
		return 0, fmt.Errorf("%w: have %d, redeem %d", ErrInsufficientShareBalance, held, shareAmount)
	}

	now := v.clock.Now()
	q, err := v.quote(pos, shareAmount, now.Sub(pos.DepositedAt))
	if err != nil {
		if errors.Is(err, ErrDegenerateVaultState) {
			v.log.Error("leave rejected: empty share supply",
				zap.Stringer("caller", caller),
				zap.Uint64("shares", shareAmount))
		}
		return 0, err
	}

	if err := v.shares.Burn(caller, shareAmount); err != nil {
		return 0, shareError(err)
	}
	if q.Net > 0 {
		if err := v.base.Transfer(v.addr, caller, q.Net); err != nil {
			if rbErr := v.shares.Mint(caller, shareAmount); rbErr != nil {
				v.log.Error("re-mint after failed payout",
					zap.Stringer("caller", caller),
					zap.Uint64("shares", shareAmount),
					zap.Error(rbErr))
				return 0, fmt.Errorf("stake: pay out: %w (re-mint failed: %w)", err, rbErr)
			}
			return 0, fmt.Errorf("stake: pay out: %w", err)
		}
	}

	after := v.pool()
	v.log.Debug("leave",
		zap.Stringer("caller", caller),
		zap.Uint64("position", pos.ID),
		zap.Uint64("shares", shareAmount),
		zap.Uint64("gross", q.Gross),
		zap.Uint64("net", q.Net),
		zap.Uint64("percent", q.Percent),
		zap.Duration("elapsed", q.Elapsed),
		zap.Uint64("reserve", after.Reserve),
		zap.Uint64("total_shares", after.TotalShares))

	v.record(Event{
		Kind:        EventLeave,
		Account:     caller,
		PositionID:  pos.ID,
		At:          now,
		Amount:      q.Net,
		Shares:      shareAmount,
		Gross:       q.Gross,
		Percent:     q.Percent,
		Retained:    q.Retained,
		Reserve:     after.Reserve,
		TotalShares: after.TotalShares,
	})
	return q.Net, nil
}

// Quote previews Leave(caller, shareAmount, positionID) at the current time
// without changing any state. It does not check caller's share balance.
func (v *Vault) Quote(caller account.Address, shareAmount, positionID uint64) (Quote, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	pos, err := v.positions.get(caller, positionID)
	if err != nil {
		return Quote{}, err
	}
	return v.quote(pos, shareAmount, v.clock.Now().Sub(pos.DepositedAt))
}

// CurrentPositionID returns the id of owner's most recent position.
func (v *Vault) CurrentPositionID(owner account.Address) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positions.current(owner)
}

// Position returns owner's position id.
func (v *Vault) Position(owner account.Address, id uint64) (Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positions.get(owner, id)
}

// Positions returns all of owner's positions, oldest first.
func (v *Vault) Positions(owner account.Address) []Position {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positions.list(owner)
}

// TotalShares returns the outstanding share supply.
func (v *Vault) TotalShares() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shares.TotalSupply()
}

// ReserveBalance returns the base asset held in custody.
func (v *Vault) ReserveBalance() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.base.BalanceOf(v.addr)
}

// Pool returns reserve and share supply read under a single lock, so the
// pair is always consistent. Reserve/TotalShares is the backing ratio.
func (v *Vault) Pool() Pool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pool()
}

// pool must be called with v.mu held.
func (v *Vault) pool() Pool {
	return Pool{
		Reserve:     v.base.BalanceOf(v.addr),
		TotalShares: v.shares.TotalSupply(),
	}
}

// quote must be called with v.mu held.
func (v *Vault) quote(pos Position, shareAmount uint64, elapsed time.Duration) (Quote, error) {
	pool := v.pool()
	gross, err := RedeemValue(shareAmount, pool.TotalShares, pool.Reserve)
	if err != nil {
		return Quote{}, err
	}
	pct := v.schedule.PayoutPercent(elapsed)
	net := ApplyTax(gross, pct)
	return Quote{
		Shares:   shareAmount,
		Gross:    gross,
		Net:      net,
		Retained: gross - net,
		Percent:  pct,
		Elapsed:  elapsed,
	}, nil
}

// record hands ev to the recorder. The operation has already committed, so a
// recorder failure is logged and otherwise ignored.
func (v *Vault) record(ev Event) {
	if v.rec == nil {
		return
	}
	ev.ID = uuid.New()
	if err := v.rec.Append(ev); err != nil {
		v.log.Warn("record event",
			zap.Stringer("kind", ev.Kind),
			zap.Stringer("account", ev.Account),
			zap.Error(err))
	}
}

// baseError maps base-ledger failures onto vault errors.
func baseError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientAllowance) {
		return fmt.Errorf("%w: %w", ErrInsufficientAllowance, err)
	}
	return fmt.Errorf("stake: pull deposit: %w", err)
}

// shareError maps share-ledger failures onto vault errors.
func shareError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return fmt.Errorf("%w: %w", ErrInsufficientShareBalance, err)
	}
	return fmt.Errorf("stake: burn shares: %w", err)
}
