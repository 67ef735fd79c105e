package timecard

import (
	"time"

	"timecard/models"
)

// Entry is one stamp value submitted for a day.
type Entry struct {
	Kind models.Kind `json:"kind"`
	Time time.Time   `json:"time"`
}

// Day holds the resolved values of the four core kinds for one date.
// A nil field means the kind was not stamped.
type Day struct {
	StartWork  *time.Time
	EndWork    *time.Time
	EnterBreak *time.Time
	EndBreak   *time.Time
}

// DayResult is the outcome of a successful validation.
type DayResult struct {
	Day   Day
	Work  time.Duration
	Break time.Duration
}

// ResolveDay maps entries onto a Day. The first entry of each kind wins;
// a repeated core kind is reported as ErrDuplicateKind alongside the
// resolved day. Legacy kinds are ignored.
func ResolveDay(entries []Entry) (Day, error) {
	var d Day
	var err error
	seen := make(map[models.Kind]bool, 4)
	for _, e := range entries {
		if !e.Kind.IsCore() {
			continue
		}
		if seen[e.Kind] {
			err = ErrDuplicateKind
			continue
		}
		seen[e.Kind] = true
		t := e.Time
		switch e.Kind {
		case models.KindIn:
			d.StartWork = &t
		case models.KindOut:
			d.EndWork = &t
		case models.KindEnterBreak:
			d.EnterBreak = &t
		case models.KindEndBreak:
			d.EndBreak = &t
		}
	}
	return d, err
}

// ValidateEntries runs the full correlated-field rule chain over the
// entries of one day. The first violated rule is returned.
func ValidateEntries(entries []Entry) (DayResult, error) {
	d, err := ResolveDay(entries)
	if err != nil {
		return DayResult{}, err
	}
	if err := d.Validate(); err != nil {
		return DayResult{}, err
	}
	work, brk := d.Hours()
	return DayResult{Day: d, Work: work, Break: brk}, nil
}

// Validate checks the work pair, then the break pair against it.
func (d Day) Validate() error {
	if d.StartWork == nil && d.EndWork == nil {
		return nil
	}
	if d.StartWork == nil || d.EndWork == nil {
		return ErrNeedWorkTime
	}
	if !d.StartWork.Before(*d.EndWork) {
		return ErrWorkTimeOrder
	}

	if d.EnterBreak == nil && d.EndBreak == nil {
		return nil
	}
	if d.EnterBreak == nil || d.EndBreak == nil {
		return ErrNeedBreakTime
	}
	if !d.EnterBreak.Before(*d.EndBreak) {
		return ErrBreakTimeOrder
	}
	if d.EnterBreak.Before(*d.StartWork) || d.EndBreak.After(*d.EndWork) {
		return ErrBreakTimeOutOfRange
	}
	return nil
}

// Hours computes worked and break time. Only well-ordered pairs count, so
// an invalid day still yields non-negative durations for display. A day
// without both work times is unworked and has no break either.
func (d Day) Hours() (work, brk time.Duration) {
	if d.StartWork == nil || d.EndWork == nil {
		return 0, 0
	}
	if d.StartWork.Before(*d.EndWork) {
		work = d.EndWork.Sub(*d.StartWork)
	}
	if d.EnterBreak != nil && d.EndBreak != nil && d.EnterBreak.Before(*d.EndBreak) {
		brk = d.EndBreak.Sub(*d.EnterBreak)
	}
	if brk > 0 && brk < work {
		work -= brk
	}
	return work, brk
}

// Entries returns the stamped values in display order.
func (d Day) Entries() []Entry {
	var out []Entry
	for _, k := range models.CoreKinds {
		if t := d.Get(k); t != nil {
			out = append(out, Entry{Kind: k, Time: *t})
		}
	}
	return out
}

func (d Day) Get(k models.Kind) *time.Time {
	switch k {
	case models.KindIn:
		return d.StartWork
	case models.KindOut:
		return d.EndWork
	case models.KindEnterBreak:
		return d.EnterBreak
	case models.KindEndBreak:
		return d.EndBreak
	}
	return nil
}
