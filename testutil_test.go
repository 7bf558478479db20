package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"banksync/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const formContentType = "application/x-www-form-urlencoded"

// setupTestDB opens a per-test in-memory database and migrates the schema.
func setupTestDB(t *testing.T) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	var err error
	db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.Hub{}, &models.User{}, &models.RefreshToken{},
		&models.BankAccount{}, &models.BankTransaction{},
	))
	seedRoles()
}

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	setupTestDB(t)
	r := gin.New()
	installTemplates(r)
	setupRoutes(r)
	return r
}

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func performRequestRaw(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func formReader(values url.Values) io.Reader {
	return strings.NewReader(values.Encode())
}

func loginToken(t *testing.T, r http.Handler, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp := performRequest(r, http.MethodPost, "/login", bytes.NewReader(body), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// registerAndLogin registers a fresh user (opening a fresh hub) and returns
// an access token plus the stored user.
func registerAndLogin(t *testing.T, r http.Handler, username string) (string, models.User) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewReader(body), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	token := loginToken(t, r, username, "pass123")
	var user models.User
	require.NoError(t, db.Where("username = ?", username).First(&user).Error)
	return token, user
}

// promoteToAdministrator swaps the user's role and returns a fresh token
// carrying the new role claim.
func promoteToAdministrator(t *testing.T, r http.Handler, user *models.User) string {
	t.Helper()
	var adminRole models.Role
	require.NoError(t, db.Where("name = ?", "administrator").First(&adminRole).Error)
	require.NoError(t, db.Model(user).Update("role_id", adminRole.ID).Error)
	return loginToken(t, r, user.Username, "pass123")
}

func mustCreateAccount(t *testing.T, hubID uuid.UUID, name string, mutate ...func(*models.BankAccount)) models.BankAccount {
	t.Helper()
	a := models.BankAccount{HubID: hubID, Name: name, IsActive: true}
	for _, m := range mutate {
		m(&a)
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func mustCreateTransaction(t *testing.T, hubID uuid.UUID, accountID uuid.UUID, mutate ...func(*models.BankTransaction)) models.BankTransaction {
	t.Helper()
	tx := models.BankTransaction{
		HubID:       hubID,
		AccountID:   accountID,
		Date:        mustDate(t, "2024-03-05"),
		Description: "statement line",
	}
	for _, m := range mutate {
		m(&tx)
	}
	require.NoError(t, db.Create(&tx).Error)
	return tx
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := parseDateField(s)
	require.NoError(t, err)
	return parsed
}
