package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/stakevault-go/stake"
)

var scheduleScenario string

// scheduleCmd prints the exit-tax tiers.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the exit-tax schedule",
	Long: `Prints the payout percentage for each tier of the exit-tax schedule.
With --scenario, prints the scenario's custom schedule instead of the default.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleScenario, "scenario", "", "scenario file with a custom schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	sched := stake.DefaultSchedule()
	if scheduleScenario != "" {
		sc, err := LoadScenario(scheduleScenario)
		if err != nil {
			return err
		}
		if len(sc.Schedule) > 0 {
			sched = sc.Schedule
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "days\tpayout\ttax")
	for i, t := range sched {
		days := fmt.Sprintf("%d+", t.MinDays)
		if i+1 < len(sched) {
			days = fmt.Sprintf("%d-%d", t.MinDays, sched[i+1].MinDays-1)
		}
		fmt.Fprintf(tw, "%s\t%d%%\t%d%%\n", days, t.Percent, 100-t.Percent)
	}
	return tw.Flush()
}
