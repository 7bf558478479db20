package main

import (
	"bytes"
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

// Client-facing sort keys resolve through this allow-list; anything else
// falls back to name.
var bankAccountSortFields = map[string]string{
	"name":           "name",
	"is_active":      "is_active",
	"balance":        "balance",
	"bank_name":      "bank_name",
	"account_number": "account_number",
	"iban":           "iban",
	"created_at":     "created_at",
}

var bankAccountSearchColumns = []string{"name", "bank_name", "account_number", "iban"}

func listParams(c *gin.Context, sortFields map[string]string, defaultSort string) listing.Params {
	return listing.Resolve(listing.Raw{
		Query:   strings.TrimSpace(c.Query("q")),
		Sort:    c.Query("sort"),
		Dir:     c.Query("dir"),
		Page:    c.Query("page"),
		PerPage: c.Query("per_page"),
		View:    c.Query("view"),
	}, sortFields, defaultSort)
}

func bankAccountsListHandler(c *gin.Context) {
	hubID := currentHub(c)
	p := listParams(c, bankAccountSortFields, "name")

	// Rebuild the scope per use; gorm statements are single-shot.
	filtered := func() *gorm.DB {
		return applySearch(accountsScope(hubID), bankAccountSearchColumns, p.Query)
	}

	if format := c.Query("export"); format == "csv" || format == "excel" {
		var accounts []models.BankAccount
		if err := filtered().Order(p.Order()).Find(&accounts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		writeExport(c, format, "bank_accounts", bankAccountsTable(accounts))
		return
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	page := listing.Paginate(total, p.Page, p.PerPage)
	var accounts []models.BankAccount
	if err := filtered().Order(p.Order()).Offset(page.Offset).Limit(page.PerPage).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	ctx := gin.H{
		"BankAccounts": accounts,
		"Page":         page,
		"SearchQuery":  p.Query,
		"SortField":    p.Sort,
		"SortDir":      p.Dir,
		"CurrentView":  p.View,
		"PerPage":      p.PerPage,
	}
	if isFragment(c) && fragmentTarget(c) == "datatable-body" {
		c.HTML(http.StatusOK, "bank_accounts_list.html", ctx)
		return
	}
	renderPage(c, "bank_accounts.html", "bank_accounts_content.html", "accounts", ctx)
}

// renderBankAccountsList answers mutations with a fresh first page of the
// list, search and sort reset to defaults.
func renderBankAccountsList(c *gin.Context, hubID uuid.UUID) {
	var total int64
	accountsScope(hubID).Count(&total)
	page := listing.Paginate(total, 1, listing.DefaultPerPage)
	var accounts []models.BankAccount
	accountsScope(hubID).Order("name asc").Limit(page.PerPage).Find(&accounts)
	c.HTML(http.StatusOK, "bank_accounts_list.html", gin.H{
		"BankAccounts": accounts,
		"Page":         page,
		"SearchQuery":  "",
		"SortField":    "name",
		"SortDir":      "asc",
		"CurrentView":  listing.DefaultView,
		"PerPage":      listing.DefaultPerPage,
	})
}

func bankAccountFromForm(c *gin.Context, acct *models.BankAccount) bool {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return false
	}
	balance, err := parseDecimalField(c.PostForm("balance"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid balance"})
		return false
	}
	acct.Name = name
	acct.BankName = strings.TrimSpace(c.PostForm("bank_name"))
	acct.AccountNumber = strings.TrimSpace(c.PostForm("account_number"))
	acct.IBAN = strings.TrimSpace(c.PostForm("iban"))
	acct.Currency = strings.TrimSpace(c.PostForm("currency"))
	acct.Balance = balance
	acct.IsActive = checkboxOn(c.PostForm("is_active"))
	return true
}

func bankAccountAddHandler(c *gin.Context) {
	hubID := currentHub(c)
	if c.Request.Method != http.MethodPost {
		c.HTML(http.StatusOK, "panel_bank_account_add.html", gin.H{})
		return
	}
	acct := models.BankAccount{HubID: hubID}
	if !bankAccountFromForm(c, &acct) {
		return
	}
	if err := db.Create(&acct).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	renderBankAccountsList(c, hubID)
}

func bankAccountEditHandler(c *gin.Context) {
	hubID := currentHub(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	acct, err := accountByID(hubID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodPost {
		c.HTML(http.StatusOK, "panel_bank_account_edit.html", gin.H{"Account": acct})
		return
	}
	if !bankAccountFromForm(c, acct) {
		return
	}
	if err := db.Save(acct).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	renderBankAccountsList(c, hubID)
}

func bankAccountDeleteHandler(c *gin.Context) {
	hubID := currentHub(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	acct, err := accountByID(hubID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := db.Model(acct).Updates(softDeleteValues()).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	renderBankAccountsList(c, hubID)
}

func bankAccountToggleHandler(c *gin.Context) {
	hubID := currentHub(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	acct, err := accountByID(hubID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := db.Model(acct).Update("is_active", !acct.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	renderBankAccountsList(c, hubID)
}

func bankAccountsBulkHandler(c *gin.Context) {
	hubID := currentHub(c)
	ids := parseIDList(c.PostForm("ids"))
	var err error
	switch c.PostForm("action") {
	case "activate":
		err = bulkUpdateAccounts(hubID, ids, map[string]any{"is_active": true})
	case "deactivate":
		err = bulkUpdateAccounts(hubID, ids, map[string]any{"is_active": false})
	case "delete":
		err = bulkUpdateAccounts(hubID, ids, softDeleteValues())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk action failed"})
		return
	}
	renderBankAccountsList(c, hubID)
}

func bankAccountsTable(accounts []models.BankAccount) export.Table {
	t := export.Table{Headers: []string{"Name", "Is Active", "Balance", "Bank Name", "Account Number", "Iban"}}
	for _, a := range accounts {
		t.Rows = append(t.Rows, []string{
			a.Name,
			strconv.FormatBool(a.IsActive),
			a.Balance.StringFixed(2),
			a.BankName,
			a.AccountNumber,
			a.IBAN,
		})
	}
	return t
}

// writeExport streams the table as a download in the requested format.
func writeExport(c *gin.Context, format, baseName string, t export.Table) {
	var buf bytes.Buffer
	if format == "excel" {
		if err := export.WriteXLSX(&buf, t); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+baseName+`.xlsx"`)
		c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
		return
	}
	if err := export.WriteCSV(&buf, t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+baseName+`.csv"`)
	c.Data(http.StatusOK, export.CSVContentType, buf.Bytes())
}
