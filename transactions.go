package main

import (
	"net/http"
	"strconv"
	"strings"

	"banksync/models"
	"banksync/pkg/export"
	"banksync/pkg/listing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var bankTransactionSortFields = map[string]string{
	"reference":     "reference",
	"account":       "account_id",
	"is_reconciled": "is_reconciled",
	"balance_after": "balance_after",
	"amount":        "amount",
	"date":          "date",
	"created_at":    "created_at",
}

var bankTransactionSearchColumns = []string{"description", "reference"}

func bankTransactionsListHandler(c *gin.Context) {
	hubID := currentHub(c)
	p := listParams(c, bankTransactionSortFields, "reference")

	filtered := func() *gorm.DB {
		return applySearch(transactionsScope(hubID), bankTransactionSearchColumns, p.Query)
	}

	if format := c.Query("export"); format == "csv" || format == "excel" {
		var txs []models.BankTransaction
		if err := filtered().Preload("Account").Order(p.Order()).Find(&txs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		writeExport(c, format, "bank_transactions", bankTransactionsTable(txs))
		return
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	page := listing.Paginate(total, p.Page, p.PerPage)
	var txs []models.BankTransaction
	if err := filtered().Preload("Account").Order(p.Order()).Offset(page.Offset).Limit(page.PerPage).Find(&txs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	ctx := gin.H{
		"BankTransactions": txs,
		"Page":             page,
		"SearchQuery":      p.Query,
		"SortField":        p.Sort,
		"SortDir":          p.Dir,
		"CurrentView":      p.View,
		"PerPage":          p.PerPage,
	}
	if isFragment(c) && fragmentTarget(c) == "datatable-body" {
		c.HTML(http.StatusOK, "bank_transactions_list.html", ctx)
		return
	}
	renderPage(c, "bank_transactions.html", "bank_transactions_content.html", "transactions", ctx)
}

func renderBankTransactionsList(c *gin.Context, hubID uuid.UUID) {
	var total int64
	transactionsScope(hubID).Count(&total)
	page := listing.Paginate(total, 1, listing.DefaultPerPage)
	var txs []models.BankTransaction
	transactionsScope(hubID).Preload("Account").Order("reference asc").Limit(page.PerPage).Find(&txs)
	c.HTML(http.StatusOK, "bank_transactions_list.html", gin.H{
		"BankTransactions": txs,
		"Page":             page,
		"SearchQuery":      "",
		"SortField":        "reference",
		"SortDir":          "asc",
		"CurrentView":      listing.DefaultView,
		"PerPage":          listing.DefaultPerPage,
	})
}

// bankTransactionFromForm binds the editable fields. The owning account
// must resolve to a live account in the caller's hub.
func bankTransactionFromForm(c *gin.Context, hubID uuid.UUID, tx *models.BankTransaction) bool {
	accountID, err := uuid.Parse(c.PostForm("account_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return false
	}
	if _, err := accountByID(hubID, accountID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown account"})
		return false
	}
	date, err := parseDateField(c.PostForm("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return false
	}
	description := strings.TrimSpace(c.PostForm("description"))
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return false
	}
	amount, err := parseDecimalField(c.PostForm("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return false
	}
	balanceAfter, err := parseDecimalField(c.PostForm("balance_after"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid balance_after"})
		return false
	}
	tx.AccountID = accountID
	tx.Date = date
	tx.Description = description
	tx.Amount = amount
	tx.BalanceAfter = balanceAfter
	tx.IsReconciled = checkboxOn(c.PostForm("is_reconciled"))
	tx.Reference = strings.TrimSpace(c.PostForm("reference"))
	return true
}

func bankTransactionAddHandler(c *gin.Context) {
	hubID := currentHub(c)
	if c.Request.Method != http.MethodPost {
		accounts := accountChoices(hubID)
		c.HTML(http.StatusOK, "panel_bank_transaction_add.html", gin.H{"Accounts": accounts})
		return
	}
	tx := models.BankTransaction{HubID: hubID}
	if !bankTransactionFromForm(c, hubID, &tx) {
		return
	}
	if err := db.Create(&tx).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	renderBankTransactionsList(c, hubID)
}

func bankTransactionEditHandler(c *gin.Context) {
	hubID := currentHub(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	tx, err := transactionByID(hubID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodPost {
		c.HTML(http.StatusOK, "panel_bank_transaction_edit.html", gin.H{"Transaction": tx, "Accounts": accountChoices(hubID)})
		return
	}
	if !bankTransactionFromForm(c, hubID, tx) {
		return
	}
	if err := db.Save(tx).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	renderBankTransactionsList(c, hubID)
}

func bankTransactionDeleteHandler(c *gin.Context) {
	hubID := currentHub(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	tx, err := transactionByID(hubID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := db.Model(tx).Updates(softDeleteValues()).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	renderBankTransactionsList(c, hubID)
}

// Transactions have no active flag, so delete is the only bulk action.
func bankTransactionsBulkHandler(c *gin.Context) {
	hubID := currentHub(c)
	ids := parseIDList(c.PostForm("ids"))
	if c.PostForm("action") == "delete" {
		if err := bulkUpdateTransactions(hubID, ids, softDeleteValues()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk action failed"})
			return
		}
	}
	renderBankTransactionsList(c, hubID)
}

// accountChoices lists the hub's live accounts for the owning-account select.
func accountChoices(hubID uuid.UUID) []models.BankAccount {
	var accounts []models.BankAccount
	accountsScope(hubID).Order("name asc").Find(&accounts)
	return accounts
}

func bankTransactionsTable(txs []models.BankTransaction) export.Table {
	t := export.Table{Headers: []string{"Reference", "BankAccount", "Is Reconciled", "Balance After", "Amount", "Date"}}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{
			tx.Reference,
			tx.Account.Name,
			strconv.FormatBool(tx.IsReconciled),
			tx.BalanceAfter.StringFixed(2),
			tx.Amount.StringFixed(2),
			tx.Date.Format(dateLayout),
		})
	}
	return t
}
