package main

import (
	"fmt"
	"strings"

	"banksync/models"

	"golang.org/x/crypto/bcrypt"
)

// Permission codes for the bank_sync module. Roles carry a subset of these;
// the settings page and every automation tool check one before running.
const (
	PermViewBankAccount      = "bank_sync.view_bankaccount"
	PermAddBankAccount       = "bank_sync.add_bankaccount"
	PermChangeBankAccount    = "bank_sync.change_bankaccount"
	PermViewBankTransaction  = "bank_sync.view_banktransaction"
	PermReconcileTransaction = "bank_sync.reconcile_transaction"
	PermManageSettings       = "bank_sync.manage_settings"
)

var allPermissions = []string{
	PermViewBankAccount,
	PermAddBankAccount,
	PermChangeBankAccount,
	PermViewBankTransaction,
	PermReconcileTransaction,
	PermManageSettings,
}

// Regular users get everything except the settings screen.
var defaultUserPermissions = []string{
	PermViewBankAccount,
	PermAddBankAccount,
	PermChangeBankAccount,
	PermViewBankTransaction,
	PermReconcileTransaction,
}

// RegisterUser creates a hub and a user owning it. Every registration opens
// a fresh hub; records never cross hubs afterwards.
func RegisterUser(username, password, hubName string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username required")
	}
	if len(password) < 6 { // basic password policy
		return fmt.Errorf("password too short (min 6)")
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return fmt.Errorf("user already exists")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	// ensure role exists (idempotent)
	var role models.Role
	if err := db.Where("name = ?", "user").First(&role).Error; err != nil {
		role = models.Role{Name: "user", Description: "regular user", Permissions: strings.Join(defaultUserPermissions, ",")}
		if err2 := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err2 != nil {
			return fmt.Errorf("failed to ensure user role: %v", err2)
		}
	}
	hubName = strings.TrimSpace(hubName)
	if hubName == "" {
		hubName = username
	}
	hub := models.Hub{Name: hubName}
	if err := db.Create(&hub).Error; err != nil {
		return fmt.Errorf("failed to create hub: %v", err)
	}
	rid := role.ID
	user := models.User{Username: username, HashedPassword: hashedPassword, HubID: hub.ID, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return fmt.Errorf("user already exists")
		}
		return err
	}
	return nil
}

func Authenticate(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

// roleByName loads a role; empty name resolves to a role with no permissions.
func roleByName(name string) models.Role {
	var role models.Role
	if name == "" {
		return role
	}
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return models.Role{}
	}
	return role
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
