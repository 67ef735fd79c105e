package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleEmployee:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null;size:254" json:"email"`
	FullName     string         `gorm:"not null;size:200" json:"full_name"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"not null;size:20" json:"role"`
	Active       bool           `gorm:"default:true" json:"active"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsManager reports the approval capability. Admins carry it too.
func (u *User) IsManager() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}

func (u *User) CanViewTimecardOf(userID uint) bool {
	return u.ID == userID || u.IsManager()
}

func (u *User) CanCreateUsers() bool {
	return u.IsAdmin()
}
