package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BankTransaction is a single statement line on a BankAccount.
// BalanceAfter is the running balance following this transaction.
// IsReconciled is a manually set flag marking the line as matched against
// an external statement.
type BankTransaction struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	HubID        uuid.UUID   `gorm:"type:uuid;index;not null" json:"hub_id"`
	AccountID    uuid.UUID   `gorm:"type:uuid;index;not null" json:"account_id"`
	Account      BankAccount `gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Date         time.Time   `gorm:"type:date;not null" json:"date"`
	Description  string      `gorm:"size:255;not null" json:"description"`
	Amount       decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(14,2)" json:"balance_after"`
	IsReconciled bool       `json:"is_reconciled"`
	Reference    string     `gorm:"size:100" json:"reference"`
	IsDeleted    bool       `gorm:"index" json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func (t *BankTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
