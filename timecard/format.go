package timecard

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatClock renders a duration as H:MM ("11:00", "0:45").
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%d:%02d", h, m)
}

var secondsPerHour = decimal.NewFromInt(3600)

// FormatDecimalHours renders a duration as decimal hours rounded to two
// places, always with a fractional part: "9.0", "8.5", "152.25".
func FormatDecimalHours(d time.Duration) string {
	secs := decimal.NewFromInt(int64(d / time.Second))
	s := secs.Div(secondsPerHour).Round(2).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseDecimalHours is the inverse of FormatDecimalHours.
func ParseDecimalHours(s string) (time.Duration, error) {
	h, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", s, err)
	}
	return time.Duration(h.Mul(secondsPerHour).IntPart()) * time.Second, nil
}

// FormatStampTime renders a stamp as HH:MM in loc, or "" when absent.
func FormatStampTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04")
}
