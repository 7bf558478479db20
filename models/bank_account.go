package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCurrency is applied when an account is created without one.
const DefaultCurrency = "EUR"

// BankAccount is a hub-owned bank account. Balance is an exact
// decimal(14,2); no float conversion happens anywhere on the money path.
// Rows are soft-deleted: IsDeleted/DeletedAt mark the record, default
// query scopes exclude it.
type BankAccount struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	HubID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"hub_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	BankName      string     `gorm:"size:255" json:"bank_name"`
	AccountNumber string     `gorm:"size:50" json:"account_number"`
	IBAN          string     `gorm:"column:iban;size:34" json:"iban"`
	Currency      string     `gorm:"size:3" json:"currency"`
	Balance       decimal.Decimal `gorm:"type:decimal(14,2)" json:"balance"`
	IsActive      bool       `json:"is_active"`
	IsDeleted     bool       `gorm:"index" json:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`

	Transactions []BankTransaction `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (a *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}
	return nil
}
