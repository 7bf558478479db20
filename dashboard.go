package main

import "github.com/gin-gonic/gin"

// dashboardHandler shows summary counts for the caller's hub, active
// records only.
func dashboardHandler(c *gin.Context) {
	hubID := currentHub(c)
	var totalAccounts, totalTransactions int64
	accountsScope(hubID).Count(&totalAccounts)
	transactionsScope(hubID).Count(&totalTransactions)
	renderPage(c, "index.html", "dashboard_content.html", "dashboard", gin.H{
		"TotalBankAccounts":     totalAccounts,
		"TotalBankTransactions": totalTransactions,
	})
}

// settingsHandler is gated behind the manage-settings permission; the
// module defines no persisted settings beyond the access gate itself.
func settingsHandler(c *gin.Context) {
	renderPage(c, "settings.html", "settings_content.html", "settings", gin.H{})
}
