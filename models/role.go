package models

import (
	"strings"
	"time"
)

// Role represents user roles with numeric primary key. Permissions holds
// the comma-separated permission codes granted to the role.
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	Permissions string `gorm:"size:1024"`
}

// HasPermission reports whether the role grants the given permission code.
func (r Role) HasPermission(code string) bool {
	for _, p := range strings.Split(r.Permissions, ",") {
		if strings.TrimSpace(p) == code {
			return true
		}
	}
	return false
}
