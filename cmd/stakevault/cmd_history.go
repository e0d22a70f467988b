package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/journal"
	"github.com/bitfsorg/stakevault-go/stake"
)

var (
	historyAccount string
	historySummary bool
)

// historyCmd prints the recorded vault events.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recorded vault events",
	Long: `Prints the events recorded by simulate, oldest first.

With --account, only that account's events are shown. With --summary,
per-account totals are printed instead of individual events.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyAccount, "account", "", "only show events for this hex address")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "print per-account totals")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := journal.OpenBoltStore(journalPath())
	if err != nil {
		return err
	}
	defer store.Close()

	var events []stake.Event
	if historyAccount != "" {
		addr, err := account.ParseAddress(historyAccount)
		if err != nil {
			return err
		}
		events, err = store.ListByAccount(addr)
		if err != nil {
			return err
		}
	} else {
		events, err = store.List()
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if historySummary {
		fmt.Fprintln(tw, "account\tentries\texits\tdeposited\tpaid\ttaxed")
		for _, t := range journal.Summarize(events) {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
				t.Account.Short(), t.Entries, t.Exits, t.Deposited, t.Paid, t.Taxed)
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "time\tevent\taccount\tposition\tamount\tshares\tpercent\treserve\ttotal shares")
	for _, ev := range events {
		pct := "-"
		if ev.Kind == stake.EventLeave {
			pct = fmt.Sprintf("%d%%", ev.Percent)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%d\t%d\n",
			ev.At.UTC().Format(time.DateTime), ev.Kind, ev.Account.Short(), ev.PositionID,
			ev.Amount, ev.Shares, pct, ev.Reserve, ev.TotalShares)
	}
	return tw.Flush()
}
