package stake

import (
	"fmt"
	"time"

	"github.com/bitfsorg/stakevault-go/account"
)

// registry is the append-only position store. Each owner's positions live in
// a slice indexed by id-1; records are stored by value and never modified.
type registry struct {
	byOwner map[account.Address][]Position
}

func newRegistry() *registry {
	return &registry{byOwner: make(map[account.Address][]Position)}
}

func (r *registry) add(owner account.Address, at time.Time, amount, shares uint64) Position {
	list := r.byOwner[owner]
	p := Position{
		ID:          uint64(len(list)) + 1,
		Owner:       owner,
		DepositedAt: at,
		Amount:      amount,
		Shares:      shares,
	}
	r.byOwner[owner] = append(list, p)
	return p
}

func (r *registry) get(owner account.Address, id uint64) (Position, error) {
	list := r.byOwner[owner]
	if id == 0 || id > uint64(len(list)) {
		return Position{}, fmt.Errorf("%w: %s/%d", ErrUnknownPosition, owner.Short(), id)
	}
	return list[id-1], nil
}

func (r *registry) current(owner account.Address) (uint64, error) {
	n := len(r.byOwner[owner])
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoPositions, owner.Short())
	}
	return uint64(n), nil
}

func (r *registry) list(owner account.Address) []Position {
	list := r.byOwner[owner]
	out := make([]Position, len(list))
	copy(out, list)
	return out
}
