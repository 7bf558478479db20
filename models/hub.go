package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hub is the owning business scope. Every bank record belongs to exactly
// one hub; records are never visible across hubs.
type Hub struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:255;not null"`
}

func (h *Hub) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
