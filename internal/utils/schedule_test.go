package utils

import (
	"testing"
	"time"
)

func TestOccurrencesMonthly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := Occurrences(start, FrequencyMonthly, 24)
	if len(dates) != 24 {
		t.Fatalf("expected 24 dates, got %d", len(dates))
	}
	for i, d := range dates {
		if d.Day() != 1 {
			t.Errorf("date %d: expected day 1, got %s", i, d.Format("2006-01-02"))
		}
	}
	last := dates[23]
	if !last.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected last date 2025-12-01, got %s", last.Format("2006-01-02"))
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   string
	}{
		{name: "leap february", start: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), months: 1, want: "2024-02-29"},
		{name: "non leap february", start: time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), months: 1, want: "2023-02-28"},
		{name: "back to 31", start: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), months: 2, want: "2024-03-31"},
		{name: "year rollover", start: time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), months: 3, want: "2025-02-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.months).Format("2006-01-02")
			if got != tt.want {
				t.Errorf("[%s] expected %s got %s", tt.name, tt.want, got)
			}
		})
	}
}

func TestOccurrencesWeekly(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	dates := Occurrences(start, FrequencyBiweekly, 3)
	want := []string{"2024-01-01", "2024-01-15", "2024-01-29"}
	for i, d := range dates {
		if d.Format("2006-01-02") != want[i] {
			t.Errorf("date %d: expected %s got %s", i, want[i], d.Format("2006-01-02"))
		}
	}
}

func TestParseFrequency(t *testing.T) {
	if _, err := ParseFrequency("monthly"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseFrequency("daily"); err == nil {
		t.Errorf("expected error for daily")
	}
}

func TestMoneyHelpers(t *testing.T) {
	if got := SubAmount(0.3, 0.1); got != 0.2 {
		t.Errorf("expected 0.2, got %v", got)
	}
	if got := RoundWhole(74.5); got != 75 {
		t.Errorf("expected 75, got %v", got)
	}
	if got := SumAmounts(0.1, 0.2, 0.3); got != 0.6 {
		t.Errorf("expected 0.6, got %v", got)
	}
	if got := FormatAmount(3000); got != "3000.00" {
		t.Errorf("expected 3000.00, got %s", got)
	}
}
