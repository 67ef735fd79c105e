package timecard

import (
	"time"

	"timecard/models"
)

// Calendar resolves public holidays.
type Calendar interface {
	Holiday(date time.Time) (name string, ok bool)
}

type noHolidays struct{}

func (noHolidays) Holiday(time.Time) (string, bool) { return "", false }

type DayKind string

const (
	DayWeekday DayKind = "weekday"
	DayWeekend DayKind = "weekend"
	DayHoliday DayKind = "holiday"
)

// DayReport is one row of a monthly report.
type DayReport struct {
	Day        int           `json:"day"`
	Date       string        `json:"date"`
	Weekday    string        `json:"weekday"`
	Kind       DayKind       `json:"kind"`
	Holiday    string        `json:"holiday,omitempty"`
	StartWork  string        `json:"start_work"`
	EndWork    string        `json:"end_work"`
	EnterBreak string        `json:"enter_break"`
	EndBreak   string        `json:"end_break"`
	WorkHours  string        `json:"work_hours"`
	BreakHours string        `json:"break_hours"`
	Stamped    bool          `json:"stamped"`
	Resolved   Day           `json:"-"`
	Work       time.Duration `json:"-"`
	Break      time.Duration `json:"-"`
	Err        error         `json:"-"`
}

// Report is the aggregated view of one user's month.
type Report struct {
	UserID          uint           `json:"user_id"`
	Month           Month          `json:"month"`
	Days            []DayReport    `json:"days"`
	TotalWork       time.Duration  `json:"-"`
	TotalBreak      time.Duration  `json:"-"`
	TotalWorkHours  string         `json:"total_work_hours"`
	TotalBreakHours string         `json:"total_break_hours"`
	WorkedDays      []int          `json:"worked_days"`
	State           models.State   `json:"state"`
	Errors          map[int]error  `json:"-"`
	Stamps          []models.Stamp `json:"-"`
}

// Valid reports whether every day passed validation.
func (r *Report) Valid() bool { return len(r.Errors) == 0 }

// ValidationError returns the per-day failures, or nil.
func (r *Report) ValidationError() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Days: r.Errors}
}

// WorkedDaysMask sets bit day-1 for every worked day.
func (r *Report) WorkedDaysMask() uint32 {
	var mask uint32
	for _, d := range r.WorkedDays {
		mask |= 1 << uint(d-1)
	}
	return mask
}

// Aggregate builds the report for m from the stamps of one user. Stamps
// outside the month are ignored. A failing day is recorded in Errors and
// the remaining days are still processed.
func Aggregate(userID uint, m Month, stamps []models.Stamp, loc *time.Location, cal Calendar) *Report {
	if cal == nil {
		cal = noHolidays{}
	}
	start, end := m.Start(loc), m.End(loc)

	byDay := make(map[int][]Entry)
	stamped := make(map[int]bool)
	var inMonth []models.Stamp
	for _, s := range stamps {
		t := s.StampedAt.In(loc)
		if t.Before(start) || !t.Before(end) {
			continue
		}
		inMonth = append(inMonth, s)
		stamped[t.Day()] = true
		byDay[t.Day()] = append(byDay[t.Day()], Entry{Kind: s.Kind, Time: t})
	}

	r := &Report{
		UserID: userID,
		Month:  m,
		Days:   make([]DayReport, 0, m.Days()),
		Errors: make(map[int]error),
		State:  AggregateState(inMonth),
		Stamps: inMonth,
	}
	for day := 1; day <= m.Days(); day++ {
		date := m.Date(day, loc)
		dr := DayReport{
			Day:     day,
			Date:    date.Format("2006-01-02"),
			Weekday: date.Weekday().String()[:3],
			Kind:    dayKind(date, cal),
			Stamped: stamped[day],
		}
		if dr.Kind == DayHoliday {
			dr.Holiday, _ = cal.Holiday(date)
		}
		entries := byDay[day]
		if _, err := ValidateEntries(entries); err != nil {
			dr.Err = err
			r.Errors[day] = err
		}
		// ResolveDay only fails on duplicates; the first of each kind is kept for display.
		resolved, _ := ResolveDay(entries)
		dr.Resolved = resolved
		dr.StartWork = FormatStampTime(resolved.StartWork, loc)
		dr.EndWork = FormatStampTime(resolved.EndWork, loc)
		dr.EnterBreak = FormatStampTime(resolved.EnterBreak, loc)
		dr.EndBreak = FormatStampTime(resolved.EndBreak, loc)
		if dr.Stamped {
			dr.Work, dr.Break = resolved.Hours()
			dr.WorkHours = FormatClock(dr.Work)
			dr.BreakHours = FormatClock(dr.Break)
			r.TotalWork += dr.Work
			r.TotalBreak += dr.Break
			r.WorkedDays = append(r.WorkedDays, day)
		}
		r.Days = append(r.Days, dr)
	}
	r.TotalWorkHours = FormatClock(r.TotalWork)
	r.TotalBreakHours = FormatClock(r.TotalBreak)
	return r
}

func dayKind(date time.Time, cal Calendar) DayKind {
	if _, ok := cal.Holiday(date); ok {
		return DayHoliday
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return DayWeekend
	}
	return DayWeekday
}
