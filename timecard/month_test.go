package timecard

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    Month
		wantErr bool
	}{
		{"202301", Month{2023, time.January}, false},
		{"2024-02", Month{2024, time.February}, false},
		{"202313", Month{}, true},
		{"202300", Month{}, true},
		{"2023", Month{}, true},
		{"abcdef", Month{}, true},
		{"", Month{}, true},
	}
	for _, tt := range tests {
		got, err := ParseMonth(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMonth) {
				t.Errorf("ParseMonth(%q) err = %v, want ErrInvalidMonth", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMonth(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestMonthDays(t *testing.T) {
	tests := []struct {
		m    Month
		want int
	}{
		{Month{2023, time.January}, 31},
		{Month{2023, time.February}, 28},
		{Month{2024, time.February}, 29},
		{Month{1900, time.February}, 28},
		{Month{2000, time.February}, 29},
		{Month{2023, time.April}, 30},
		{Month{2023, time.December}, 31},
	}
	for _, tt := range tests {
		if got := tt.m.Days(); got != tt.want {
			t.Errorf("%s.Days() = %d, want %d", tt.m, got, tt.want)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	m := Month{2023, time.December}
	if got, want := m.Start(loc), time.Date(2023, 12, 1, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("Start = %v, want %v", got, want)
	}
	if got, want := m.End(loc), time.Date(2024, 1, 1, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("End = %v, want %v", got, want)
	}
	if got := m.Next(); got != (Month{2024, time.January}) {
		t.Errorf("Next = %v", got)
	}
	if got := m.AddMonths(-12); got != (Month{2022, time.December}) {
		t.Errorf("AddMonths(-12) = %v", got)
	}
	if m.String() != "202312" || m.Label() != "2023-12" {
		t.Errorf("String/Label = %s/%s", m.String(), m.Label())
	}
	if !m.After(Month{2023, time.November}) || m.Before(Month{2023, time.November}) {
		t.Error("ordering is wrong")
	}
}

func TestMonthOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	// 2023-01-31 20:00 UTC is already February in Tokyo.
	ts := time.Date(2023, 1, 31, 20, 0, 0, 0, time.UTC)
	if got := MonthOf(ts, loc); got != (Month{2023, time.February}) {
		t.Errorf("MonthOf = %v, want 202302", got)
	}
}
