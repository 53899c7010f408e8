package auth

import (
	"context"

	"github.com/mmynk/currentsee/internal/models"
)

// Authenticator registers and verifies admin accounts.
// Implementations differ in the credential they accept (password today).
type Authenticator interface {
	// Register creates a new admin account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.Admin, error)

	// Authenticate verifies the credential and returns the admin if it matches.
	Authenticate(ctx context.Context, email, credential string) (*models.Admin, error)

	// ValidateCredential checks the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
