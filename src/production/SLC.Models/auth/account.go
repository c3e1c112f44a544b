package auth_models

import (
	"strings"
	"time"
)

// Account represents a user of the control service
type Account struct {
	AccountID    string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"-" bson:"password,omitempty"` // never exposed in JSON
	Role         Role      `json:"role" bson:"role"`
	Image        string    `json:"image,omitempty" bson:"image,omitempty"`
	APIToken     string    `json:"-" bson:"thingspeakApiKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewAccount creates a new Account instance
func NewAccount(email, name string, role Role) *Account {
	now := time.Now().UTC()
	return &Account{
		Email:     NormalizeEmail(email),
		Name:      strings.TrimSpace(name),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasPassword reports whether password sign-in is possible
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// HasAPIToken reports whether the account carries a ThingSpeak write key
func (a *Account) HasAPIToken() bool {
	return a.APIToken != ""
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
