package models

import (
	"testing"
	"time"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := ParseDate(s)
	if !ok {
		t.Fatalf("bad date %q", s)
	}
	return d
}

func TestNextDate(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		interval int
		base     string
		want     string
	}{
		{"monthly clamps to leap day", RecurrenceMonthly, 1, "2024-01-31", "2024-02-29"},
		{"monthly clamps non-leap", RecurrenceMonthly, 1, "2023-01-31", "2023-02-28"},
		{"monthly zero interval moves one month", RecurrenceMonthly, 0, "2024-03-15", "2024-04-15"},
		{"monthly crosses year", RecurrenceMonthly, 3, "2024-11-30", "2025-02-28"},
		{"weekly interval two", RecurrenceWeekly, 2, "2024-03-04", "2024-03-18"},
		{"weekly interval one", RecurrenceWeekly, 1, "2024-03-04", "2024-03-11"},
		{"biweekly doubles interval", RecurrenceBiweekly, 1, "2024-03-04", "2024-03-18"},
		{"biweekly interval two", RecurrenceBiweekly, 2, "2024-03-04", "2024-04-01"},
		{"unknown mode is one week", "daily", 5, "2024-03-04", "2024-03-11"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &Track{RecurrenceMode: tc.mode, RecurrenceInterval: tc.interval}
			got := tr.NextDate(day(t, tc.base)).Format(DateLayout)
			if got != tc.want {
				t.Errorf("NextDate(%s) = %s, want %s", tc.base, got, tc.want)
			}
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "tomorrow", "2024-13-01", "2024/01/01"} {
		if _, ok := ParseDate(s); ok {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}
