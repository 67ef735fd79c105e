package timecard

import (
	"context"

	"timecard/models"
)

// NewSummary freezes the totals of an aggregated month.
func NewSummary(r *Report) *models.MonthlySummary {
	return &models.MonthlySummary{
		UserID:          r.UserID,
		Month:           r.Month.String(),
		TotalWorkHours:  FormatDecimalHours(r.TotalWork),
		TotalBreakHours: FormatDecimalHours(r.TotalBreak),
		WorkedDays:      r.WorkedDaysMask(),
	}
}

// recordSummary writes the summary of an approved month. The caller has
// already moved the month out of PROCESSING, so no existing row is expected.
func recordSummary(ctx context.Context, st Store, r *Report) (*models.MonthlySummary, error) {
	s := NewSummary(r)
	if err := st.CreateSummary(ctx, s); err != nil {
		return nil, storeErr("create summary", err)
	}
	return s, nil
}
