package timecard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"timecard/models"
)

type Options struct {
	Location *time.Location
	Calendar Calendar
	Now      func() time.Time
	Logger   *slog.Logger
}

// Service runs the timecard workflow on top of a Store. It keeps no state
// between calls apart from the per-(user, month) locks.
type Service struct {
	store Store
	loc   *time.Location
	cal   Calendar
	now   func() time.Time
	log   *slog.Logger
	locks monthLocks
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store: store,
		loc:   opts.Location,
		cal:   opts.Calendar,
		now:   opts.Now,
		log:   opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.cal == nil {
		s.cal = noHolidays{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "timecard")
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) CurrentMonth() Month {
	return MonthOf(s.now(), s.loc)
}

func (s *Service) monthFilter(userID uint, m Month) models.StampFilter {
	return models.StampFilter{UserID: userID, From: m.Start(s.loc), To: m.End(s.loc)}
}

// fail logs persistence causes and returns err in its public form.
func (s *Service) fail(op string, err error, args ...any) error {
	err = storeErr(op, err)
	var se *StoreError
	if errors.As(err, &se) {
		s.log.Error("store failure", append([]any{"op", se.Op, "error", se.Err}, args...)...)
	}
	return err
}

// Report aggregates the month of userID as seen by actor.
func (s *Service) Report(ctx context.Context, actor *models.User, userID uint, m Month) (*Report, error) {
	if !actor.CanViewTimecardOf(userID) {
		return nil, ErrForbidden
	}
	if _, err := s.store.FindUser(ctx, userID); err != nil {
		return nil, s.fail("find user", err)
	}
	stamps, err := s.store.FindStamps(ctx, s.monthFilter(userID, m))
	if err != nil {
		return nil, s.fail("find stamps", err, "user_id", userID, "month", m.String())
	}
	return Aggregate(userID, m, stamps, s.loc, s.cal), nil
}

// Promote submits the actor's month for approval. Every stamp moves from
// NEW to PROCESSING or none does.
func (s *Service) Promote(ctx context.Context, actor *models.User, m Month) (*Report, error) {
	unlock := s.locks.lock(actor.ID, m)
	defer unlock()

	var report *Report
	err := s.store.Transaction(ctx, func(tx Store) error {
		f := s.monthFilter(actor.ID, m)
		stamps, err := tx.LockStamps(ctx, f)
		if err != nil {
			return storeErr("lock stamps", err)
		}
		to, err := TransitBatch(stamps, EventPromote)
		if err != nil {
			return err
		}
		report = Aggregate(actor.ID, m, stamps, s.loc, s.cal)
		if err := report.ValidationError(); err != nil {
			return err
		}
		if err := moveBatch(ctx, tx, f, len(stamps), models.StateNew, to); err != nil {
			return err
		}
		report.State = to
		return nil
	})
	if err != nil {
		return nil, s.fail("promote", err, "user_id", actor.ID, "month", m.String())
	}
	s.log.Info("month promoted", "user_id", actor.ID, "month", m.String())
	return report, nil
}

// Approve finalizes a submitted month of userID and records its summary in
// the same transaction.
func (s *Service) Approve(ctx context.Context, actor *models.User, userID uint, m Month) (*models.MonthlySummary, error) {
	if err := checkReviewer(actor, userID); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(userID, m)
	defer unlock()

	var summary *models.MonthlySummary
	err := s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.FindUser(ctx, userID); err != nil {
			return storeErr("find user", err)
		}
		f := s.monthFilter(userID, m)
		stamps, err := tx.LockStamps(ctx, f)
		if err != nil {
			return storeErr("lock stamps", err)
		}
		to, err := TransitBatch(stamps, EventApprove)
		if err != nil {
			return err
		}
		report := Aggregate(userID, m, stamps, s.loc, s.cal)
		if err := moveBatch(ctx, tx, f, len(stamps), models.StateProcessing, to); err != nil {
			return err
		}
		summary, err = recordSummary(ctx, tx, report)
		return err
	})
	if err != nil {
		return nil, s.fail("approve", err, "user_id", userID, "month", m.String(), "approver_id", actor.ID)
	}
	s.log.Info("month approved", "user_id", userID, "month", m.String(), "approver_id", actor.ID,
		"total_work_hours", summary.TotalWorkHours)
	return summary, nil
}

// Demote sends a submitted month of userID back to NEW.
func (s *Service) Demote(ctx context.Context, actor *models.User, userID uint, m Month) error {
	if err := checkReviewer(actor, userID); err != nil {
		return err
	}
	unlock := s.locks.lock(userID, m)
	defer unlock()

	err := s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.FindUser(ctx, userID); err != nil {
			return storeErr("find user", err)
		}
		f := s.monthFilter(userID, m)
		stamps, err := tx.LockStamps(ctx, f)
		if err != nil {
			return storeErr("lock stamps", err)
		}
		to, err := TransitBatch(stamps, EventDemote)
		if err != nil {
			return err
		}
		return moveBatch(ctx, tx, f, len(stamps), models.StateProcessing, to)
	})
	if err != nil {
		return s.fail("demote", err, "user_id", userID, "month", m.String(), "approver_id", actor.ID)
	}
	s.log.Info("month demoted", "user_id", userID, "month", m.String(), "approver_id", actor.ID)
	return nil
}

func checkReviewer(actor *models.User, userID uint) error {
	if !actor.IsManager() {
		return ErrNotManager
	}
	if actor.ID == userID {
		return ErrSelfApproval
	}
	return nil
}

// moveBatch updates the whole batch or fails so the transaction rolls back.
func moveBatch(ctx context.Context, tx Store, f models.StampFilter, want int, from, to models.State) error {
	f.State = from
	n, err := tx.UpdateState(ctx, f, to)
	if err != nil {
		return storeErr("update state", err)
	}
	if n != int64(want) {
		return storeErr("update state", fmt.Errorf("moved %d of %d stamps to %s", n, want, to))
	}
	return nil
}

// EditDay replaces the core stamps of one day of the actor's timecard.
func (s *Service) EditDay(ctx context.Context, actor *models.User, date time.Time, entries []Entry) (*DayReport, error) {
	date = date.In(s.loc)
	m := MonthOf(date, s.loc)
	report, err := s.ReplaceDays(ctx, actor, m, map[int][]Entry{date.Day(): entries})
	if err != nil {
		return nil, err
	}
	d := report.Days[date.Day()-1]
	return &d, nil
}

// ReplaceDays validates every given day first and then swaps their core
// stamps in one transaction. Days not listed are left alone; a day given
// with no entries is cleared.
func (s *Service) ReplaceDays(ctx context.Context, actor *models.User, m Month, days map[int][]Entry) (*Report, error) {
	if m.After(s.CurrentMonth()) {
		return nil, ErrFutureMonth
	}
	if err := s.checkDays(m, days); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(actor.ID, m)
	defer unlock()

	err := s.store.Transaction(ctx, func(tx Store) error {
		stamps, err := tx.LockStamps(ctx, s.monthFilter(actor.ID, m))
		if err != nil {
			return storeErr("lock stamps", err)
		}
		var stale []uint
		for _, st := range stamps {
			// Month-wide: a NEW stamp added next to a PROCESSING batch would escape review.
			if st.State != models.StateNew {
				return ErrLockedForEditing
			}
			if _, ok := days[st.StampedAt.In(s.loc).Day()]; ok && st.Kind.IsCore() {
				stale = append(stale, st.ID)
			}
		}
		if len(stale) > 0 {
			n, err := tx.DeleteStamps(ctx, stale)
			if err != nil {
				return storeErr("delete stamps", err)
			}
			if n != int64(len(stale)) {
				return storeErr("delete stamps", fmt.Errorf("deleted %d of %d stamps", n, len(stale)))
			}
		}
		for _, day := range sortedDays(days) {
			for _, e := range days[day] {
				st := &models.Stamp{
					UserID:    actor.ID,
					Kind:      e.Kind,
					StampedAt: e.Time,
					State:     models.StateNew,
				}
				if err := tx.CreateStamp(ctx, st); err != nil {
					return storeErr("create stamp", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("replace days", err, "user_id", actor.ID, "month", m.String())
	}
	s.log.Info("days replaced", "user_id", actor.ID, "month", m.String(), "days", len(days))
	return s.Report(ctx, actor, actor.ID, m)
}

func (s *Service) checkDays(m Month, days map[int][]Entry) error {
	failed := make(map[int]error)
	for day, entries := range days {
		if day < 1 || day > m.Days() {
			failed[day] = ErrOutsideDay
			continue
		}
		if err := s.checkEntries(m.Date(day, s.loc), entries); err != nil {
			failed[day] = err
		}
	}
	if len(failed) > 0 {
		return &ValidationError{Days: failed}
	}
	return nil
}

func (s *Service) checkEntries(date time.Time, entries []Entry) error {
	next := date.AddDate(0, 0, 1)
	for _, e := range entries {
		if !e.Kind.IsCore() {
			return ErrUnsupportedEntryKind
		}
		if e.Time.Before(date) || !e.Time.Before(next) {
			return ErrOutsideDay
		}
	}
	_, err := ValidateEntries(entries)
	return err
}

func sortedDays(days map[int][]Entry) []int {
	out := make([]int, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Stamp punches kind for the actor at the current time. A second punch of
// the same kind on the same day returns the first one with created false.
func (s *Service) Stamp(ctx context.Context, actor *models.User, kind models.Kind) (stamp *models.Stamp, created bool, err error) {
	if !kind.IsCore() {
		return nil, false, ErrUnsupportedEntryKind
	}
	now := s.now().In(s.loc)
	m := MonthOf(now, s.loc)

	unlock := s.locks.lock(actor.ID, m)
	defer unlock()

	err = s.store.Transaction(ctx, func(tx Store) error {
		stamps, err := tx.LockStamps(ctx, s.monthFilter(actor.ID, m))
		if err != nil {
			return storeErr("lock stamps", err)
		}
		for i := range stamps {
			st := stamps[i]
			if st.State != models.StateNew {
				return ErrLockedForEditing
			}
			if st.Kind == kind && st.StampedAt.In(s.loc).Day() == now.Day() {
				stamp = &st
			}
		}
		if stamp != nil {
			return nil
		}
		stamp = &models.Stamp{UserID: actor.ID, Kind: kind, StampedAt: now, State: models.StateNew}
		created = true
		return storeErr("create stamp", tx.CreateStamp(ctx, stamp))
	})
	if err != nil {
		return nil, false, s.fail("stamp", err, "user_id", actor.ID, "kind", kind)
	}
	if created {
		s.log.Info("stamped", "user_id", actor.ID, "kind", kind, "at", now)
	}
	return stamp, created, nil
}

// PendingMonth is a (user, month) waiting for review.
type PendingMonth struct {
	User   *models.User `json:"user"`
	Month  Month        `json:"month"`
	Stamps int          `json:"stamps"`
}

// ProcessingMonths lists submitted months of other users, ordered by user
// then month.
func (s *Service) ProcessingMonths(ctx context.Context, actor *models.User) ([]PendingMonth, error) {
	if !actor.IsManager() {
		return nil, ErrNotManager
	}
	stamps, err := s.store.FindStamps(ctx, models.StampFilter{State: models.StateProcessing})
	if err != nil {
		return nil, s.fail("find stamps", err)
	}
	counts := make(map[monthKey]int)
	for _, st := range stamps {
		if st.UserID == actor.ID {
			continue
		}
		counts[monthKey{userID: st.UserID, month: MonthOf(st.StampedAt, s.loc)}]++
	}
	keys := make([]monthKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].userID != keys[j].userID {
			return keys[i].userID < keys[j].userID
		}
		return keys[i].month.Before(keys[j].month)
	})

	users := make(map[uint]*models.User)
	out := make([]PendingMonth, 0, len(keys))
	for _, k := range keys {
		u, ok := users[k.userID]
		if !ok {
			if u, err = s.store.FindUser(ctx, k.userID); err != nil {
				return nil, s.fail("find user", err, "user_id", k.userID)
			}
			users[k.userID] = u
		}
		out = append(out, PendingMonth{User: u, Month: k.month, Stamps: counts[k]})
	}
	return out, nil
}

// ApprovedSummaries lists the summaries recorded for m, ordered by user.
func (s *Service) ApprovedSummaries(ctx context.Context, actor *models.User, m Month) ([]models.MonthlySummary, error) {
	if !actor.IsManager() {
		return nil, ErrNotManager
	}
	sums, err := s.store.FindSummaries(ctx, models.SummaryFilter{Month: m.String()})
	if err != nil {
		return nil, s.fail("find summaries", err, "month", m.String())
	}
	return sums, nil
}

// MonthTotal is the worked time of one month for the dashboard.
type MonthTotal struct {
	Month       Month  `json:"month"`
	WorkHours   string `json:"work_hours"`
	BreakHours  string `json:"break_hours"`
	FromSummary bool   `json:"from_summary"`
}

const maxTotalsMonths = 24

// MonthlyTotals returns the actor's totals for the last n months, oldest
// first. A recorded summary wins over the live stamps.
func (s *Service) MonthlyTotals(ctx context.Context, actor *models.User, n int) ([]MonthTotal, error) {
	if n <= 0 {
		n = 6
	}
	if n > maxTotalsMonths {
		n = maxTotalsMonths
	}
	sums, err := s.store.FindSummaries(ctx, models.SummaryFilter{UserID: actor.ID})
	if err != nil {
		return nil, s.fail("find summaries", err, "user_id", actor.ID)
	}
	byMonth := make(map[string]models.MonthlySummary, len(sums))
	for _, sum := range sums {
		byMonth[sum.Month] = sum
	}

	current := s.CurrentMonth()
	out := make([]MonthTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		m := current.AddMonths(-i)
		if sum, ok := byMonth[m.String()]; ok {
			out = append(out, MonthTotal{
				Month:       m,
				WorkHours:   sum.TotalWorkHours,
				BreakHours:  sum.TotalBreakHours,
				FromSummary: true,
			})
			continue
		}
		stamps, err := s.store.FindStamps(ctx, s.monthFilter(actor.ID, m))
		if err != nil {
			return nil, s.fail("find stamps", err, "user_id", actor.ID, "month", m.String())
		}
		r := Aggregate(actor.ID, m, stamps, s.loc, s.cal)
		out = append(out, MonthTotal{
			Month:      m,
			WorkHours:  FormatDecimalHours(r.TotalWork),
			BreakHours: FormatDecimalHours(r.TotalBreak),
		})
	}
	return out, nil
}

// WeekdayHours is the work time of one day of the current week.
type WeekdayHours struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	WorkHours string `json:"work_hours"`
}

// Week is the actor's current week, Monday to Sunday.
type Week struct {
	Monday string         `json:"monday"`
	Sunday string         `json:"sunday"`
	Days   []WeekdayHours `json:"days"`
}

// WeeklyHours returns the decimal work hours of each day of the current
// week. A week crossing a month boundary reads both months.
func (s *Service) WeeklyHours(ctx context.Context, actor *models.User) (*Week, error) {
	today := s.now().In(s.loc)
	offset := (int(today.Weekday()) + 6) % 7
	monday := time.Date(today.Year(), today.Month(), today.Day()-offset, 0, 0, 0, 0, s.loc)

	week := &Week{
		Monday: monday.Format("2006-01-02"),
		Sunday: monday.AddDate(0, 0, 6).Format("2006-01-02"),
		Days:   make([]WeekdayHours, 0, 7),
	}
	reports := make(map[Month]*Report, 2)
	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i)
		m := MonthOf(date, s.loc)
		r, ok := reports[m]
		if !ok {
			stamps, err := s.store.FindStamps(ctx, s.monthFilter(actor.ID, m))
			if err != nil {
				return nil, s.fail("find stamps", err, "user_id", actor.ID, "month", m.String())
			}
			r = Aggregate(actor.ID, m, stamps, s.loc, s.cal)
			reports[m] = r
		}
		dr := r.Days[date.Day()-1]
		week.Days = append(week.Days, WeekdayHours{
			Date:      dr.Date,
			Weekday:   dr.Weekday,
			WorkHours: FormatDecimalHours(dr.Work),
		})
	}
	return week, nil
}
