package models

import (
	"time"

	"github.com/google/uuid"
)

// User model. Each user belongs to exactly one hub; the hub id travels in
// the session token and scopes every query the user makes.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Username       string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	HubID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	Hub            Hub        `gorm:"foreignKey:HubID;references:ID"`
	RoleID         *uint      `gorm:"index"`
	Role           Role       `gorm:"foreignKey:RoleID;references:ID"`
}
