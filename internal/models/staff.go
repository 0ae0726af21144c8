package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffRole string

const (
	RoleAdmin   StaffRole = "admin"
	RoleScanner StaffRole = "scanner"
)

func (r StaffRole) Valid() bool {
	return r == RoleAdmin || r == RoleScanner
}

// Staff is an operator allowed to list, patch and check in tickets.
type Staff struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      StaffRole `gorm:"not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (staff *Staff) BeforeCreate(tx *gorm.DB) (err error) {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	return
}
