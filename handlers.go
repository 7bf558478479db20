package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"banksync/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionCookie = "session"

func setupRoutes(r *gin.Engine) {
	r.GET("/login", loginPageHandler)
	r.POST("/login", loginHandler)
	r.POST("/register", registerHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)

	// Interactive pages: unauthenticated access redirects to the login page.
	pages := r.Group("")
	pages.Use(sessionAuthMiddleware())
	pages.GET("/", dashboardHandler)
	pages.GET("/me", meHandler)

	// Navigation tab aliases
	pages.GET("/accounts", bankAccountsListHandler)
	pages.GET("/transactions", bankTransactionsListHandler)

	pages.GET("/bank_accounts", bankAccountsListHandler)
	pages.GET("/bank_accounts/add", bankAccountAddHandler)
	pages.POST("/bank_accounts/add", bankAccountAddHandler)
	pages.GET("/bank_accounts/:id/edit", bankAccountEditHandler)
	pages.POST("/bank_accounts/:id/edit", bankAccountEditHandler)
	pages.POST("/bank_accounts/:id/delete", bankAccountDeleteHandler)
	pages.POST("/bank_accounts/:id/toggle", bankAccountToggleHandler)
	pages.POST("/bank_accounts/bulk", bankAccountsBulkHandler)

	pages.GET("/bank_transactions", bankTransactionsListHandler)
	pages.GET("/bank_transactions/add", bankTransactionAddHandler)
	pages.POST("/bank_transactions/add", bankTransactionAddHandler)
	pages.GET("/bank_transactions/:id/edit", bankTransactionEditHandler)
	pages.POST("/bank_transactions/:id/edit", bankTransactionEditHandler)
	pages.POST("/bank_transactions/:id/delete", bankTransactionDeleteHandler)
	pages.POST("/bank_transactions/bulk", bankTransactionsBulkHandler)

	pages.GET("/settings", requirePermission(PermManageSettings), settingsHandler)

	// Automation surface: JSON only, 401 instead of redirect.
	assistant := r.Group("/assistant")
	assistant.Use(jwtAuthMiddleware())
	assistant.GET("/tools", listToolsHandler)
	assistant.POST("/tools/:name", callToolHandler)
}

// sessionToken extracts the JWT from the Authorization header or, for
// browser navigation, the session cookie.
func sessionToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

// parseClaims validates a token and stashes username, role and hub_id into
// the gin context. Returns false when the token is missing or invalid.
func parseClaims(c *gin.Context) bool {
	tokenString := sessionToken(c)
	if tokenString == "" {
		return false
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	hubStr, _ := claims["hub_id"].(string)
	hubID, err := uuid.Parse(hubStr)
	if err != nil || username == "" {
		return false
	}
	c.Set("username", username)
	c.Set("hub_id", hubID)
	if role != "" {
		c.Set("role", role)
	}
	return true
}

// jwtAuthMiddleware guards the JSON surface: missing or invalid credentials
// answer 401.
func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !parseClaims(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// sessionAuthMiddleware guards the page surface: unauthenticated requests
// are sent to the login page instead of failing hard.
func sessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !parseClaims(c) {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requirePermission rejects callers whose role lacks the permission code.
// Distinct from authentication failure: the caller is known, just not allowed.
func requirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerHasPermission(c, code) {
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func callerHasPermission(c *gin.Context, code string) bool {
	roleVal, _ := c.Get("role")
	name, _ := roleVal.(string)
	return roleByName(name).HasPermission(code)
}

// currentHub returns the hub id the session is scoped to.
func currentHub(c *gin.Context) uuid.UUID {
	v, _ := c.Get("hub_id")
	id, _ := v.(uuid.UUID)
	return id
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string), "hub_id": currentHub(c).String()})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
		HubName  string `json:"hub_name" form:"hub_name"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password, req.HubName); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := issueAccessToken(user, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.SetCookie(sessionCookie, tokenString, int((24 * time.Hour).Seconds()), "/", "", false, true)
	// A plain form submission from the login page navigates straight to the dashboard.
	if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") || strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// issueAccessToken signs a JWT carrying the username, role name and owning
// hub id. Resolve role name from RoleID (we only store role_id).
func issueAccessToken(user models.User, ttl time.Duration) (string, error) {
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"hub_id":   user.HubID.String(),
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := issueAccessToken(user, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
