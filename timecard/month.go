package timecard

import (
	"fmt"
	"strconv"
	"time"
)

// Month identifies a calendar month. The zero value is invalid.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts YYYYMM ("202301") or YYYY-MM ("2023-01").
func ParseMonth(s string) (Month, error) {
	if len(s) == 7 && s[4] == '-' {
		s = s[:4] + s[5:]
	}
	if len(s) != 6 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	m, err := strconv.Atoi(s[4:])
	if err != nil || m < 1 || m > 12 || y < 1 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

// MonthOf returns the month containing t in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	t = t.In(loc)
	return Month{Year: t.Year(), Month: t.Month()}
}

// String returns the YYYYMM form used as the summary key.
func (m Month) String() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

// Label returns YYYY-MM.
func (m Month) Label() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start is midnight of the first day in loc.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// End is midnight of the first day of the next month in loc (exclusive).
func (m Month) End(loc *time.Location) time.Time {
	return m.Start(loc).AddDate(0, 1, 0)
}

// Days is the number of days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns midnight of the given day in loc.
func (m Month) Date(day int, loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, loc)
}

func (m Month) Next() Month {
	return m.AddMonths(1)
}

func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m Month) After(o Month) bool { return o.Before(m) }

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
