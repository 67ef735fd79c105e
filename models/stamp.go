package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Kind string

const (
	KindIn         Kind = "IN"
	KindOut        Kind = "OUT"
	KindEnterBreak Kind = "ENTER_BREAK"
	KindEndBreak   Kind = "END_BREAK"

	// Legacy kinds are stored and listed but never validated.
	KindOff          Kind = "OFF"
	KindMorningOff   Kind = "MORNING_OFF"
	KindAfternoonOff Kind = "AFTERNOON_OFF"
	KindReset        Kind = "RESET"
)

// CoreKinds are the four kinds that make up a day, in display order.
var CoreKinds = []Kind{KindIn, KindOut, KindEnterBreak, KindEndBreak}

func (k Kind) IsCore() bool {
	switch k {
	case KindIn, KindOut, KindEnterBreak, KindEndBreak:
		return true
	}
	return false
}

func (k Kind) Valid() bool {
	switch k {
	case KindOff, KindMorningOff, KindAfternoonOff, KindReset:
		return true
	}
	return k.IsCore()
}

// ParseKind accepts the upper-case name or its lower-case form ("in", "enter_break").
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

type State string

const (
	StateNew        State = "NEW"
	StateProcessing State = "PROCESSING"
	StateApproved   State = "APPROVED"
	// StateRevisionRequested is modeled but no transition enters or leaves it.
	StateRevisionRequested State = "REVISION_REQUESTED"
)

type Stamp struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;index:idx_stamps_user_time,priority:1" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Kind      Kind      `gorm:"not null;size:20" json:"kind"`
	StampedAt time.Time `gorm:"not null;index:idx_stamps_user_time,priority:2" json:"stamped_at"`
	State     State     `gorm:"not null;size:20;default:NEW;index" json:"state"`
}

// BeforeSave normalizes timestamps to UTC so range queries compare
// consistently on every driver.
func (s *Stamp) BeforeSave(tx *gorm.DB) error {
	if !s.StampedAt.IsZero() {
		s.StampedAt = s.StampedAt.UTC()
	}
	return nil
}

// StampFilter selects stamps of one user in [From, To).
type StampFilter struct {
	UserID uint
	From   time.Time
	To     time.Time
	Kind   Kind
	State  State
}
