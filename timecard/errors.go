package timecard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Day validation errors.
var (
	ErrDuplicateKind        = errors.New("duplicate stamp kind")
	ErrNeedWorkTime         = errors.New("both clock-in and clock-out are required")
	ErrWorkTimeOrder        = errors.New("clock-in must be before clock-out")
	ErrNeedBreakTime        = errors.New("both break start and break end are required")
	ErrBreakTimeOrder       = errors.New("break start must be before break end")
	ErrBreakTimeOutOfRange  = errors.New("break must lie within working hours")
	ErrOutsideDay           = errors.New("stamp is outside the edited day")
	ErrUnsupportedEntryKind = errors.New("only clock-in, clock-out and break stamps can be edited")
)

// Precondition errors. None of them leaves a side effect behind.
var (
	ErrNotStamped        = errors.New("nothing stamped in this month")
	ErrAlreadyPromoted   = errors.New("month has already been submitted")
	ErrNotProcessing     = errors.New("month is not awaiting approval")
	ErrSelfApproval      = errors.New("managers cannot approve or reject their own month")
	ErrNotManager        = errors.New("manager capability required")
	ErrForbidden         = errors.New("not allowed to act on this timecard")
	ErrLockedForEditing  = errors.New("submitted or approved stamps cannot be edited")
	ErrFutureMonth       = errors.New("months after the current month cannot be edited")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrUserNotFound      = errors.New("user not found")
	ErrSummaryExists     = errors.New("summary already recorded for this month")
	ErrValidation        = errors.New("timecard has invalid days")
	ErrPersistence       = errors.New("timecard could not be saved")
)

// Code returns the stable machine code of a timecard error, or "" when err
// is not one of ours.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

var codes = []struct {
	err  error
	code string
}{
	{ErrValidation, "VALIDATION_ERROR"},
	{ErrPersistence, "PERSISTENCE_ERROR"},
	{ErrDuplicateKind, "DUPLICATE_KIND"},
	{ErrNeedWorkTime, "NEED_WORK_TIME"},
	{ErrWorkTimeOrder, "WORK_TIME_ORDER"},
	{ErrNeedBreakTime, "NEED_BREAK_TIME"},
	{ErrBreakTimeOrder, "BREAK_TIME_ORDER"},
	{ErrBreakTimeOutOfRange, "BREAK_TIME_OUT_OF_RANGE"},
	{ErrOutsideDay, "OUTSIDE_DAY"},
	{ErrUnsupportedEntryKind, "UNSUPPORTED_KIND"},
	{ErrNotStamped, "NOT_STAMPED"},
	{ErrAlreadyPromoted, "ALREADY_PROMOTED"},
	{ErrNotProcessing, "NOT_PROCESSING"},
	{ErrSelfApproval, "SELF_APPROVAL_FORBIDDEN"},
	{ErrNotManager, "NOT_MANAGER"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrLockedForEditing, "LOCKED_FOR_EDITING"},
	{ErrFutureMonth, "FUTURE_MONTH"},
	{ErrInvalidTransition, "INVALID_TRANSITION"},
	{ErrInvalidMonth, "INVALID_MONTH"},
	{ErrUserNotFound, "USER_NOT_FOUND"},
	{ErrSummaryExists, "SUMMARY_EXISTS"},
}

// ValidationError collects the failing days of a month, keyed by day of month.
type ValidationError struct {
	Days map[int]error
}

func (e *ValidationError) Error() string {
	days := e.SortedDays()
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, fmt.Sprintf("day %d: %v", d, e.Days[d]))
	}
	return fmt.Sprintf("%s (%s)", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) SortedDays() []int {
	days := make([]int, 0, len(e.Days))
	for d := range e.Days {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// StoreError wraps a persistence failure. The cause is for logs only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrPersistence }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if Code(err) != "" {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
