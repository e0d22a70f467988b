package stake

import (
	"fmt"
	"time"
)

// Day is the unit the exit-tax schedule is expressed in.
const Day = 24 * time.Hour

// Tier is one breakpoint of the exit-tax schedule: a redemption whose
// position is at least MinDays whole days old receives Percent of its
// proportional claim.
type Tier struct {
	MinDays uint64 `yaml:"min_days"`
	Percent uint64 `yaml:"percent"`
}

// Schedule is an ordered list of tiers, lowest MinDays first. The first tier
// must start at day zero so every elapsed time maps to a tier.
type Schedule []Tier

// DefaultSchedule returns 25% before day 4, 50% for days 4-5, 75% for days
// 6-8 and the full claim from day 9 on.
func DefaultSchedule() Schedule {
	return Schedule{
		{MinDays: 0, Percent: 25},
		{MinDays: 4, Percent: 50},
		{MinDays: 6, Percent: 75},
		{MinDays: 9, Percent: 100},
	}
}

// Validate checks that the schedule starts at day zero, thresholds strictly
// increase, and percents never decrease or exceed 100.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidSchedule)
	}
	if s[0].MinDays != 0 {
		return fmt.Errorf("%w: first tier starts at day %d", ErrInvalidSchedule, s[0].MinDays)
	}
	for i, t := range s {
		if t.Percent > 100 {
			return fmt.Errorf("%w: tier %d pays %d%%", ErrInvalidSchedule, i, t.Percent)
		}
		if i == 0 {
			continue
		}
		prev := s[i-1]
		if t.MinDays <= prev.MinDays {
			return fmt.Errorf("%w: tier %d threshold %d not above %d", ErrInvalidSchedule, i, t.MinDays, prev.MinDays)
		}
		if t.Percent < prev.Percent {
			return fmt.Errorf("%w: tier %d percent %d below %d", ErrInvalidSchedule, i, t.Percent, prev.Percent)
		}
	}
	return nil
}

// ElapsedDays truncates d to whole days. Negative durations count as zero.
func ElapsedDays(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / Day)
}

// PayoutPercent returns the percent of a claim paid out after elapsed time.
// The schedule is assumed valid.
func (s Schedule) PayoutPercent(elapsed time.Duration) uint64 {
	days := ElapsedDays(elapsed)
	pct := s[0].Percent
	for _, t := range s[1:] {
		if days < t.MinDays {
			break
		}
		pct = t.Percent
	}
	return pct
}

// PayoutPercent evaluates the default schedule.
func PayoutPercent(elapsed time.Duration) uint64 {
	return defaultSchedule.PayoutPercent(elapsed)
}

var defaultSchedule = DefaultSchedule()
