package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrEmailRequired      = errors.New("email is required")
)

// AdminStorage is the subset of storage.Store the authenticator needs.
type AdminStorage interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*models.Admin, error)
}

// PasswordAuthenticator implements password authentication with bcrypt hashes.
type PasswordAuthenticator struct {
	storage AdminStorage
}

func NewPasswordAuthenticator(storage AdminStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
	}
}

// ValidateCredential checks the password meets the minimum length.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// Register creates an admin with a hashed password.
// The display name defaults to the email.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.Admin, error) {
	email = storage.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	if _, err := a.storage.GetAdminByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check admin email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}
	admin := models.NewAdmin(email, displayName, string(hashedPassword))

	if err := a.storage.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return admin, nil
}

// Authenticate verifies the email and password, returning the admin on success.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Admin, error) {
	admin, err := a.storage.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}
