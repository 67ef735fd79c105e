package models

import (
	"time"
)

// MonthlySummary is the frozen rollup written when a month is approved.
// Hours are decimal hour strings ("9.0", "152.25").
type MonthlySummary struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_summary_user_month,priority:1" json:"user_id"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalWorkHours  string    `gorm:"not null;size:10" json:"total_work_hours"`
	TotalBreakHours string    `gorm:"not null;size:10" json:"total_break_hours"`
	WorkedDays      uint32    `gorm:"column:work_days_flag;not null" json:"worked_days"`
	Month           string    `gorm:"not null;size:6;uniqueIndex:idx_summary_user_month,priority:2" json:"month"`
}

func (MonthlySummary) TableName() string {
	return "timecard_summaries"
}

// WorkedOn reports whether day (1-based) is set in the worked-days bitmask.
func (s *MonthlySummary) WorkedOn(day int) bool {
	if day < 1 || day > 32 {
		return false
	}
	return s.WorkedDays&(1<<uint(day-1)) != 0
}

type SummaryFilter struct {
	UserID uint
	Month  string
}
