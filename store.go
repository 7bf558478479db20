package main

import (
	"strings"
	"time"

	"banksync/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Query entry points are named, not flagged: the default scopes exclude
// soft-deleted rows, the *All scopes include them. Every entry point takes
// the hub id explicitly so no query can run unscoped.

func accountsScope(hubID uuid.UUID) *gorm.DB {
	return db.Model(&models.BankAccount{}).Where("hub_id = ? AND is_deleted = ?", hubID, false)
}

func accountsScopeAll(hubID uuid.UUID) *gorm.DB {
	return db.Model(&models.BankAccount{}).Where("hub_id = ?", hubID)
}

func transactionsScope(hubID uuid.UUID) *gorm.DB {
	return db.Model(&models.BankTransaction{}).Where("hub_id = ? AND is_deleted = ?", hubID, false)
}

func transactionsScopeAll(hubID uuid.UUID) *gorm.DB {
	return db.Model(&models.BankTransaction{}).Where("hub_id = ?", hubID)
}

// accountByID loads a non-deleted, hub-owned account. Absent, deleted and
// cross-hub ids are all the same NotFound.
func accountByID(hubID, id uuid.UUID) (*models.BankAccount, error) {
	var acct models.BankAccount
	if err := db.Where("id = ? AND hub_id = ? AND is_deleted = ?", id, hubID, false).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

func transactionByID(hubID, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	if err := db.Where("id = ? AND hub_id = ? AND is_deleted = ?", id, hubID, false).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// softDeleteValues marks a row deleted without touching anything else;
// gorm adds the updated_at timestamp on its own.
func softDeleteValues() map[string]any {
	now := time.Now()
	return map[string]any{"is_deleted": true, "deleted_at": &now}
}

// bulkUpdateAccounts applies values to the hub-owned, non-deleted subset of
// ids. Unmatched ids are filtered out by the WHERE clause, never an error.
func bulkUpdateAccounts(hubID uuid.UUID, ids []uuid.UUID, values map[string]any) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&models.BankAccount{}).
		Where("hub_id = ? AND is_deleted = ? AND id IN ?", hubID, false, ids).
		Updates(values).Error
}

func bulkUpdateTransactions(hubID uuid.UUID, ids []uuid.UUID, values map[string]any) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&models.BankTransaction{}).
		Where("hub_id = ? AND is_deleted = ? AND id IN ?", hubID, false, ids).
		Updates(values).Error
}

// parseIDList parses a comma-separated id list; malformed entries are
// dropped silently, matching the bulk-action contract.
func parseIDList(raw string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// applySearch ORs a case-insensitive substring match over the given text
// columns. Columns come from fixed per-record-type lists, never the caller.
func applySearch(q *gorm.DB, columns []string, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	pattern := "%" + strings.ToLower(term) + "%"
	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ?")
		args = append(args, pattern)
	}
	return q.Where(strings.Join(clauses, " OR "), args...)
}
