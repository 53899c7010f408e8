package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin represents an operator account for the admin RPC surface.
type Admin struct {
	// ID is the unique identifier for the admin (UUID format).
	ID string

	// Email is the admin's email address (unique). Used for login.
	Email string

	// DisplayName is shown in logs and responses.
	DisplayName string

	// PasswordHash is the bcrypt hash of the admin's password.
	PasswordHash string

	CreatedAt int64
	UpdatedAt int64
}

// NewAdmin creates an admin with a fresh ID and timestamps.
func NewAdmin(email, displayName, passwordHash string) *Admin {
	now := time.Now().Unix()
	return &Admin{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
