package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"banksync/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// The assistant surface exposes a fixed catalogue of operations to an
// external automation caller. Every tool is permission-checked on its own
// and runs inside the caller's hub scope with soft-deleted rows excluded,
// same as the interactive views.

var errInvalidToolArgs = errors.New("invalid tool arguments")

type assistantTool struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Permission           string `json:"permission"`
	RequiresConfirmation bool   `json:"requires_confirmation,omitempty"`
	Parameters           gin.H  `json:"parameters"`

	run func(hubID uuid.UUID, args map[string]any) (gin.H, error)
}

var assistantTools = []assistantTool{
	{
		Name:        "list_bank_accounts",
		Description: "List bank accounts.",
		Permission:  PermViewBankAccount,
		Parameters: gin.H{
			"type":                 "object",
			"properties":           gin.H{"is_active": gin.H{"type": "boolean"}},
			"required":             []string{},
			"additionalProperties": false,
		},
		run: runListBankAccounts,
	},
	{
		Name:                 "create_bank_account",
		Description:          "Create a bank account.",
		Permission:           PermAddBankAccount,
		RequiresConfirmation: true,
		Parameters: gin.H{
			"type": "object",
			"properties": gin.H{
				"name":           gin.H{"type": "string"},
				"bank_name":      gin.H{"type": "string"},
				"account_number": gin.H{"type": "string"},
				"iban":           gin.H{"type": "string"},
				"currency":       gin.H{"type": "string", "description": "ISO 4217 (e.g., EUR)"},
			},
			"required":             []string{"name", "bank_name"},
			"additionalProperties": false,
		},
		run: runCreateBankAccount,
	},
	{
		Name:        "list_bank_transactions",
		Description: "List bank transactions with filters.",
		Permission:  PermViewBankTransaction,
		Parameters: gin.H{
			"type": "object",
			"properties": gin.H{
				"account_id":    gin.H{"type": "string"},
				"is_reconciled": gin.H{"type": "boolean"},
				"date_from":     gin.H{"type": "string"},
				"date_to":       gin.H{"type": "string"},
				"limit":         gin.H{"type": "integer"},
			},
			"required":             []string{},
			"additionalProperties": false,
		},
		run: runListBankTransactions,
	},
}

func findTool(name string) *assistantTool {
	for i := range assistantTools {
		if assistantTools[i].Name == name {
			return &assistantTools[i]
		}
	}
	return nil
}

// listToolsHandler returns the tool catalogue with parameter schemas.
func listToolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": assistantTools})
}

func callToolHandler(c *gin.Context) {
	tool := findTool(c.Param("name"))
	if tool == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tool"})
		return
	}
	if !callerHasPermission(c, tool.Permission) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	args := map[string]any{}
	if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid arguments"})
		return
	}
	if tool.RequiresConfirmation {
		if confirmed, _ := args["confirm"].(bool); !confirmed {
			c.JSON(http.StatusOK, gin.H{"confirmation_required": true, "tool": tool.Name})
			return
		}
	}
	out, err := tool.run(currentHub(c), args)
	if err != nil {
		if errors.Is(err, errInvalidToolArgs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tool failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func runListBankAccounts(hubID uuid.UUID, args map[string]any) (gin.H, error) {
	q := accountsScope(hubID)
	if v, ok := args["is_active"].(bool); ok {
		q = q.Where("is_active = ?", v)
	}
	var accounts []models.BankAccount
	if err := q.Order("name asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	rows := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, gin.H{
			"id":        a.ID.String(),
			"name":      a.Name,
			"bank_name": a.BankName,
			"iban":      a.IBAN,
			"currency":  a.Currency,
			"balance":   a.Balance.StringFixed(2),
			"is_active": a.IsActive,
		})
	}
	return gin.H{"accounts": rows}, nil
}

func runCreateBankAccount(hubID uuid.UUID, args map[string]any) (gin.H, error) {
	name := strings.TrimSpace(stringArg(args, "name"))
	bankName := strings.TrimSpace(stringArg(args, "bank_name"))
	if name == "" || bankName == "" {
		return nil, fmt.Errorf("%w: name and bank_name are required", errInvalidToolArgs)
	}
	currency := strings.TrimSpace(stringArg(args, "currency"))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	acct := models.BankAccount{
		HubID:         hubID,
		Name:          name,
		BankName:      bankName,
		AccountNumber: strings.TrimSpace(stringArg(args, "account_number")),
		IBAN:          strings.TrimSpace(stringArg(args, "iban")),
		Currency:      currency,
		IsActive:      true,
	}
	if err := db.Create(&acct).Error; err != nil {
		return nil, err
	}
	return gin.H{"id": acct.ID.String(), "name": acct.Name, "created": true}, nil
}

func runListBankTransactions(hubID uuid.UUID, args map[string]any) (gin.H, error) {
	q := transactionsScope(hubID)
	if s := stringArg(args, "account_id"); s != "" {
		accountID, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bad account_id", errInvalidToolArgs)
		}
		q = q.Where("account_id = ?", accountID)
	}
	if v, ok := args["is_reconciled"].(bool); ok {
		q = q.Where("is_reconciled = ?", v)
	}
	if s := stringArg(args, "date_from"); s != "" {
		from, err := parseDateField(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date_from", errInvalidToolArgs)
		}
		q = q.Where("date >= ?", from)
	}
	if s := stringArg(args, "date_to"); s != "" {
		to, err := parseDateField(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date_to", errInvalidToolArgs)
		}
		q = q.Where("date <= ?", to)
	}
	limit := 20
	if v, ok := args["limit"].(float64); ok && int(v) > 0 {
		limit = int(v)
	}
	var txs []models.BankTransaction
	if err := q.Preload("Account").Order("date desc").Limit(limit).Find(&txs).Error; err != nil {
		return nil, err
	}
	rows := make([]gin.H, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, gin.H{
			"id":            t.ID.String(),
			"date":          t.Date.Format(dateLayout),
			"description":   t.Description,
			"amount":        t.Amount.StringFixed(2),
			"is_reconciled": t.IsReconciled,
			"account":       t.Account.Name,
		})
	}
	return gin.H{"transactions": rows}, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
