package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"banksync/models"

	"banksync/pkg/export"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagesRedirectWhenUnauthenticated(t *testing.T) {
	r := setupTestServer(t)

	for _, path := range []string{"/", "/bank_accounts", "/bank_transactions", "/settings"} {
		resp := performRequest(r, http.MethodGet, path, nil, "", "")
		assert.Equal(t, http.StatusSeeOther, resp.Code, path)
		assert.Equal(t, "/login", resp.Header().Get("Location"), path)
	}
}

func TestLoginFormSetsSessionAndRedirects(t *testing.T) {
	r := setupTestServer(t)
	registerAndLogin(t, r, "user1")

	resp := performRequest(r, http.MethodPost, "/login",
		formReader(url.Values{"username": {"user1"}, "password": {"pass123"}}), "", formContentType)
	require.Equal(t, http.StatusSeeOther, resp.Code, resp.Body.String())
	assert.Equal(t, "/", resp.Header().Get("Location"))

	var session string
	for _, c := range resp.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c.Value
		}
	}
	require.NotEmpty(t, session, "login must set a session cookie")

	// the cookie alone authenticates page requests
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
	rec := performRequestRaw(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBankAccountCreateViaForm(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	resp := performRequest(r, http.MethodPost, "/bank_accounts/add",
		formReader(url.Values{
			"name":      {"Test"},
			"balance":   {"100.00"},
			"is_active": {"on"},
		}), token, formContentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var acct models.BankAccount
	require.NoError(t, db.Where("hub_id = ? AND name = ?", user.HubID, "Test").First(&acct).Error)
	assert.Equal(t, "EUR", acct.Currency, "omitted currency defaults")
	assert.Equal(t, "100.00", acct.Balance.StringFixed(2))
	assert.True(t, acct.IsActive)

	// the response is the refreshed list fragment, not a full page
	body := resp.Body.String()
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "Test")
}

func TestBankAccountCreateRequiresName(t *testing.T) {
	r := setupTestServer(t)
	token, _ := registerAndLogin(t, r, "user1")

	resp := performRequest(r, http.MethodPost, "/bank_accounts/add",
		formReader(url.Values{"bank_name": {"Nameless"}}), token, formContentType)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBankAccountsListSortFallbackAndPaging(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	for i := 0; i < 11; i++ {
		mustCreateAccount(t, user.HubID, fmt.Sprintf("Account %02d", i))
	}

	// unrecognized sort falls back to name, bad per_page falls back to 10
	resp := performRequest(r, http.MethodGet, "/bank_accounts?sort=nonsense&per_page=37", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Equal(t, 10, strings.Count(body, `class="datatable-row"`))
	assert.Contains(t, body, "Page 1 of 2 (11 total)")
	assert.Less(t, strings.Index(body, "Account 00"), strings.Index(body, "Account 01"))

	// out-of-range page clamps to the last page
	resp = performRequest(r, http.MethodGet, "/bank_accounts?page=99", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Page 2 of 2")
	assert.Equal(t, 1, strings.Count(resp.Body.String(), `class="datatable-row"`))
}

func TestBankAccountsListSearchAndFragment(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	mustCreateAccount(t, user.HubID, "Alpha", func(a *models.BankAccount) { a.BankName = "Sparkasse" })
	mustCreateAccount(t, user.HubID, "Beta")

	resp := performRequest(r, http.MethodGet, "/bank_accounts?q=sparkasse", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Alpha")
	assert.NotContains(t, resp.Body.String(), "Beta")

	// fragment refresh targeted at the table body returns the bare list
	req, _ := http.NewRequest(http.MethodGet, "/bank_accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "datatable-body")
	rec := performRequestRaw(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html")
	assert.NotContains(t, rec.Body.String(), "module-nav")
	assert.Contains(t, rec.Body.String(), `class="datatable-row"`)
}

func TestBankAccountsCSVExport(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	mustCreateAccount(t, user.HubID, "Main", func(a *models.BankAccount) {
		a.Balance = decimal.RequireFromString("12.5")
		a.BankName = "Test Bank"
	})
	mustCreateAccount(t, user.HubID, "Savings")
	deleted := mustCreateAccount(t, user.HubID, "Old")
	require.NoError(t, db.Model(&deleted).Updates(softDeleteValues()).Error)

	resp := performRequest(r, http.MethodGet, "/bank_accounts?export=csv", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, export.CSVContentType, resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "bank_accounts.csv")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus the two live accounts")
	assert.Equal(t, []string{"Name", "Is Active", "Balance", "Bank Name", "Account Number", "Iban"}, records[0])
	assert.Equal(t, "Main", records[1][0])
	assert.Equal(t, "12.50", records[1][2])
}

func TestBankAccountsExcelExport(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")
	mustCreateAccount(t, user.HubID, "Main")

	resp := performRequest(r, http.MethodGet, "/bank_accounts?export=excel", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, export.XLSXContentType, resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "bank_accounts.xlsx")
	assert.NotEmpty(t, resp.Body.Bytes())
}

func TestBankAccountToggle(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")
	acct := mustCreateAccount(t, user.HubID, "Main")

	toggle := func() models.BankAccount {
		resp := performRequest(r, http.MethodPost, "/bank_accounts/"+acct.ID.String()+"/toggle", nil, token, formContentType)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var stored models.BankAccount
		require.NoError(t, db.First(&stored, "id = ?", acct.ID).Error)
		return stored
	}

	assert.False(t, toggle().IsActive, "one toggle flips")
	assert.True(t, toggle().IsActive, "two toggles restore")
}

func TestBankAccountEditAndDelete(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")
	acct := mustCreateAccount(t, user.HubID, "Before")

	// edit form is pre-filled
	resp := performRequest(r, http.MethodGet, "/bank_accounts/"+acct.ID.String()+"/edit", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Before")

	resp = performRequest(r, http.MethodPost, "/bank_accounts/"+acct.ID.String()+"/edit",
		formReader(url.Values{"name": {"After"}, "balance": {"7.10"}, "currency": {"CHF"}, "is_active": {"on"}}),
		token, formContentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var stored models.BankAccount
	require.NoError(t, db.First(&stored, "id = ?", acct.ID).Error)
	assert.Equal(t, "After", stored.Name)
	assert.Equal(t, "CHF", stored.Currency)
	assert.Equal(t, "7.10", stored.Balance.StringFixed(2))

	resp = performRequest(r, http.MethodPost, "/bank_accounts/"+acct.ID.String()+"/delete", nil, token, formContentType)
	require.Equal(t, http.StatusOK, resp.Code)

	// deleted records 404 on further mutations
	resp = performRequest(r, http.MethodPost, "/bank_accounts/"+acct.ID.String()+"/toggle", nil, token, formContentType)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBankAccountMutationsNotFound(t *testing.T) {
	r := setupTestServer(t)
	token, _ := registerAndLogin(t, r, "user1")

	resp := performRequest(r, http.MethodPost, "/bank_accounts/9e107d9d-0000-0000-0000-000000000000/delete", nil, token, formContentType)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = performRequest(r, http.MethodGet, "/bank_accounts/not-a-uuid/edit", nil, token, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBankAccountsBulkActions(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	a := mustCreateAccount(t, user.HubID, "A")
	b := mustCreateAccount(t, user.HubID, "B")

	// deactivate both plus a nonexistent id; no error, valid subset mutated
	resp := performRequest(r, http.MethodPost, "/bank_accounts/bulk",
		formReader(url.Values{
			"ids":    {a.ID.String() + "," + b.ID.String() + ",00000000-0000-0000-0000-000000000001"},
			"action": {"deactivate"},
		}), token, formContentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var stored models.BankAccount
	require.NoError(t, db.First(&stored, "id = ?", a.ID).Error)
	assert.False(t, stored.IsActive)

	// reactivate only A
	resp = performRequest(r, http.MethodPost, "/bank_accounts/bulk",
		formReader(url.Values{"ids": {a.ID.String()}, "action": {"activate"}}), token, formContentType)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, db.First(&stored, "id = ?", a.ID).Error)
	assert.True(t, stored.IsActive)
	stored = models.BankAccount{}
	require.NoError(t, db.First(&stored, "id = ?", b.ID).Error)
	assert.False(t, stored.IsActive)

	// bulk delete
	resp = performRequest(r, http.MethodPost, "/bank_accounts/bulk",
		formReader(url.Values{"ids": {a.ID.String() + "," + b.ID.String()}, "action": {"delete"}}), token, formContentType)
	require.Equal(t, http.StatusOK, resp.Code)
	var live int64
	accountsScope(user.HubID).Count(&live)
	assert.Equal(t, int64(0), live)
}

func TestSettingsPermissionGate(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	// the default user role lacks manage_settings
	resp := performRequest(r, http.MethodGet, "/settings", nil, token, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	adminToken := promoteToAdministrator(t, r, &user)
	resp = performRequest(r, http.MethodGet, "/settings", nil, adminToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Settings")
}

func TestDashboardCounts(t *testing.T) {
	r := setupTestServer(t)
	token, user := registerAndLogin(t, r, "user1")

	acct := mustCreateAccount(t, user.HubID, "Main")
	mustCreateTransaction(t, user.HubID, acct.ID)
	deleted := mustCreateAccount(t, user.HubID, "Old")
	require.NoError(t, db.Model(&deleted).Updates(softDeleteValues()).Error)

	resp := performRequest(r, http.MethodGet, "/", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `id="total-bank-accounts">1<`)
	assert.Contains(t, body, `id="total-bank-transactions">1<`)
}
