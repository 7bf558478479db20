package main

import "github.com/gin-gonic/gin"

// Module metadata for the hosting platform's navigation chrome.
const (
	moduleID    = "bank_sync"
	moduleLabel = "Bank Reconciliation"
	moduleIcon  = "card-outline"
)

// NavItem is one tab in the module navigation.
type NavItem struct {
	ID    string
	Label string
	Icon  string
	Path  string
}

var moduleNav = []NavItem{
	{ID: "dashboard", Label: "Dashboard", Icon: "speedometer-outline", Path: "/"},
	{ID: "accounts", Label: "Accounts", Icon: "card-outline", Path: "/accounts"},
	{ID: "transactions", Label: "Transactions", Icon: "list-outline", Path: "/transactions"},
	{ID: "settings", Label: "Settings", Icon: "settings-outline", Path: "/settings"},
}

// renderPage renders a full page, or just its content partial when the
// request is an in-place fragment refresh.
func renderPage(c *gin.Context, page, partial, activeTab string, ctx gin.H) {
	ctx["ModuleID"] = moduleID
	ctx["ModuleLabel"] = moduleLabel
	ctx["ModuleIcon"] = moduleIcon
	ctx["Nav"] = moduleNav
	ctx["ActiveTab"] = activeTab
	if isFragment(c) {
		c.HTML(200, partial, ctx)
		return
	}
	c.HTML(200, page, ctx)
}

// isFragment reports whether the caller wants a partial refresh of an
// already-loaded page rather than a full document.
func isFragment(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// fragmentTarget identifies which fragment the caller is refreshing.
func fragmentTarget(c *gin.Context) string {
	return c.GetHeader("HX-Target")
}
