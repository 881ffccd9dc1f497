package utils

import (
	"fmt"
	"time"
)

// Frequency is a recurrence interval for scheduled payments
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ParseFrequency validates a frequency name
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("unsupported frequency: %q", s)
}

// Occurrences returns count dates starting at start and stepping by freq.
// Every date is computed from start, so month-based steps clamp to the last
// day of the month without drifting (Jan 31 -> Feb 29 -> Mar 31).
func Occurrences(start time.Time, freq Frequency, count int) []time.Time {
	dates := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, step(start, freq, i))
	}
	return dates
}

func step(start time.Time, freq Frequency, n int) time.Time {
	switch freq {
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case FrequencyBiweekly:
		return start.AddDate(0, 0, 14*n)
	case FrequencyQuarterly:
		return AddMonths(start, 3*n)
	case FrequencyYearly:
		return AddMonths(start, 12*n)
	default:
		return AddMonths(start, n)
	}
}

// AddMonths adds months to t, clamping the day to the target month's length
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
