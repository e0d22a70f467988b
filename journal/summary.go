package journal

import (
	"sort"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/stake"
)

// AccountTotals aggregates one account's activity.
type AccountTotals struct {
	Account   account.Address
	Entries   int
	Exits     int
	Deposited uint64 // base units pulled in by Enter
	Paid      uint64 // base units paid out by Leave
	Taxed     uint64 // retained by the pool on Leave
	Minted    uint64
	Burned    uint64
}

// Summarize folds events into per-account totals, ordered by address.
func Summarize(events []stake.Event) []AccountTotals {
	byAccount := make(map[account.Address]*AccountTotals)
	for _, ev := range events {
		t, ok := byAccount[ev.Account]
		if !ok {
			t = &AccountTotals{Account: ev.Account}
			byAccount[ev.Account] = t
		}
		switch ev.Kind {
		case stake.EventEnter:
			t.Entries++
			t.Deposited += ev.Amount
			t.Minted += ev.Shares
		case stake.EventLeave:
			t.Exits++
			t.Paid += ev.Amount
			t.Taxed += ev.Retained
			t.Burned += ev.Shares
		}
	}

	out := make([]AccountTotals, 0, len(byAccount))
	for _, t := range byAccount {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.String() < out[j].Account.String()
	})
	return out
}
