package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/ledger"
	"github.com/bitfsorg/stakevault-go/stake"
)

var (
	alice = account.Address{0xA1}
	bob   = account.Address{0xB0}
	t0    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func tempBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenBoltStore(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"mem":  NewMemStore(),
		"bolt": tempBoltStore(t),
	}
}

func enterEvent(who account.Address, pos, amount uint64) stake.Event {
	return stake.Event{
		ID:         uuid.New(),
		Kind:       stake.EventEnter,
		Account:    who,
		PositionID: pos,
		At:         t0,
		Amount:     amount,
		Shares:     amount,
	}
}

func leaveEvent(who account.Address, pos, paid, gross uint64) stake.Event {
	return stake.Event{
		ID:         uuid.New(),
		Kind:       stake.EventLeave,
		Account:    who,
		PositionID: pos,
		At:         t0.Add(3 * stake.Day),
		Amount:     paid,
		Shares:     gross,
		Gross:      gross,
		Percent:    paid * 100 / gross,
		Retained:   gross - paid,
	}
}

// ---------------------------------------------------------------------------
// Store tests, run against both implementations
// ---------------------------------------------------------------------------

func TestStore_AppendAndList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			evs := []stake.Event{
				enterEvent(alice, 1, 100),
				enterEvent(bob, 1, 50),
				leaveEvent(alice, 1, 25, 100),
			}
			for _, ev := range evs {
				require.NoError(t, s.Append(ev))
			}

			got, err := s.List()
			require.NoError(t, err)
			require.Len(t, got, 3)
			for i := range evs {
				assert.Equal(t, evs[i].ID, got[i].ID)
				assert.Equal(t, evs[i].Kind, got[i].Kind)
				assert.Equal(t, evs[i].Account, got[i].Account)
				assert.Equal(t, evs[i].Amount, got[i].Amount)
				assert.True(t, evs[i].At.Equal(got[i].At))
			}

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), n)
		})
	}
}

func TestStore_ListByAccount(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Append(enterEvent(alice, 1, 100)))
			require.NoError(t, s.Append(enterEvent(bob, 1, 50)))
			require.NoError(t, s.Append(enterEvent(alice, 2, 10)))

			got, err := s.ListByAccount(alice)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, uint64(1), got[0].PositionID)
			assert.Equal(t, uint64(2), got[1].PositionID)

			got, err = s.ListByAccount(account.Address{0xCC})
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStore_Get(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ev := leaveEvent(bob, 1, 62, 125)
			require.NoError(t, s.Append(ev))

			got, err := s.Get(ev.ID)
			require.NoError(t, err)
			assert.Equal(t, ev.Gross, got.Gross)
			assert.Equal(t, ev.Retained, got.Retained)

			_, err = s.Get(uuid.New())
			assert.ErrorIs(t, err, ErrEventNotFound)
		})
	}
}

func TestStore_Duplicate(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ev := enterEvent(alice, 1, 100)
			require.NoError(t, s.Append(ev))
			assert.ErrorIs(t, s.Append(ev), ErrDuplicateEvent)

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, uint64(1), n)
		})
	}
}

func TestStore_AssignsMissingID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ev := enterEvent(alice, 1, 100)
			ev.ID = uuid.Nil
			require.NoError(t, s.Append(ev))

			got, err := s.List()
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.NotEqual(t, uuid.Nil, got[0].ID)
		})
	}
}

func TestStore_RejectsUnknownKind(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ev := enterEvent(alice, 1, 100)
			ev.Kind = 0
			assert.ErrorIs(t, s.Append(ev), ErrInvalidEvent)
		})
	}
}

// ---------------------------------------------------------------------------
// BoltStore specifics
// ---------------------------------------------------------------------------

func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	first := enterEvent(alice, 1, 100)
	require.NoError(t, s.Append(first))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	second := enterEvent(alice, 2, 7)
	require.NoError(t, s.Append(second))

	got, err := s.List()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
}

func TestBoltStore_OrderBeyondOneByte(t *testing.T) {
	s := tempBoltStore(t)
	for i := uint64(1); i <= 300; i++ {
		require.NoError(t, s.Append(enterEvent(alice, i, i)))
	}
	got, err := s.ListByAccount(alice)
	require.NoError(t, err)
	require.Len(t, got, 300)
	for i, ev := range got {
		assert.Equal(t, uint64(i+1), ev.PositionID)
	}
}

// ---------------------------------------------------------------------------
// Recorder wiring
// ---------------------------------------------------------------------------

func TestStore_AsVaultRecorder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			vaultAddr := account.Address{0xFA}
			base, shares := ledger.NewToken("SUSHI"), ledger.NewToken("xSUSHI")
			clock := stake.NewFixedClock(t0)
			require.NoError(t, base.Mint(alice, 100))
			require.NoError(t, base.Approve(alice, vaultAddr, 100))

			v, err := stake.New(vaultAddr, base, shares, stake.WithClock(clock), stake.WithRecorder(s))
			require.NoError(t, err)

			id, err := v.Enter(alice, 100)
			require.NoError(t, err)
			clock.Advance(8 * stake.Day)
			_, err = v.Leave(alice, 100, id)
			require.NoError(t, err)

			evs, err := s.ListByAccount(alice)
			require.NoError(t, err)
			require.Len(t, evs, 2)
			assert.Equal(t, stake.EventEnter, evs[0].Kind)
			assert.Equal(t, stake.EventLeave, evs[1].Kind)
			assert.Equal(t, uint64(75), evs[1].Amount)
			assert.Equal(t, uint64(25), evs[1].Reserve)
		})
	}
}

// ---------------------------------------------------------------------------
// Summarize
// ---------------------------------------------------------------------------

func TestSummarize(t *testing.T) {
	evs := []stake.Event{
		enterEvent(bob, 1, 50),
		enterEvent(alice, 1, 100),
		leaveEvent(alice, 1, 25, 100),
		enterEvent(alice, 2, 10),
	}

	got := Summarize(evs)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, alice, a.Account)
	assert.Equal(t, 2, a.Entries)
	assert.Equal(t, 1, a.Exits)
	assert.Equal(t, uint64(110), a.Deposited)
	assert.Equal(t, uint64(25), a.Paid)
	assert.Equal(t, uint64(75), a.Taxed)
	assert.Equal(t, uint64(110), a.Minted)
	assert.Equal(t, uint64(100), a.Burned)

	b := got[1]
	assert.Equal(t, bob, b.Account)
	assert.Equal(t, 1, b.Entries)
	assert.Equal(t, 0, b.Exits)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}
