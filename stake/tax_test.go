package stake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPayoutPercent_DefaultTiers(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    uint64
	}{
		{"immediately", 0, 25},
		{"clock went backwards", -time.Hour, 25},
		{"three days", 3 * Day, 25},
		{"just under four days", 4*Day - time.Second, 25},
		{"four days", 4 * Day, 50},
		{"five days", 5*Day + 23*time.Hour, 50},
		{"six days", 6 * Day, 75},
		{"eight days", 8 * Day, 75},
		{"eight days and change", 8*Day + 23*time.Hour, 75},
		{"nine days", 9 * Day, 100},
		{"a year", 365 * Day, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PayoutPercent(tt.elapsed))
		})
	}
}

func TestPayoutPercent_Monotonic(t *testing.T) {
	s := DefaultSchedule()
	prev := s.PayoutPercent(0)
	for h := 1; h <= 24*12; h++ {
		cur := s.PayoutPercent(time.Duration(h) * time.Hour)
		assert.GreaterOrEqual(t, cur, prev, "hour %d", h)
		prev = cur
	}
}

func TestElapsedDays(t *testing.T) {
	assert.Equal(t, uint64(0), ElapsedDays(-Day))
	assert.Equal(t, uint64(0), ElapsedDays(Day-1))
	assert.Equal(t, uint64(1), ElapsedDays(Day))
	assert.Equal(t, uint64(8), ElapsedDays(8*Day+time.Hour))
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Schedule
		wantErr bool
	}{
		{"default", DefaultSchedule(), false},
		{"flat", Schedule{{0, 100}}, false},
		{"empty", Schedule{}, true},
		{"not from zero", Schedule{{1, 50}}, true},
		{"over 100", Schedule{{0, 50}, {3, 101}}, true},
		{"threshold repeats", Schedule{{0, 50}, {3, 60}, {3, 70}}, true},
		{"percent drops", Schedule{{0, 50}, {3, 40}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedule_Custom(t *testing.T) {
	s := Schedule{{0, 10}, {1, 90}, {30, 100}}
	assert.Equal(t, uint64(10), s.PayoutPercent(23*time.Hour))
	assert.Equal(t, uint64(90), s.PayoutPercent(29*Day))
	assert.Equal(t, uint64(100), s.PayoutPercent(30*Day))
}
