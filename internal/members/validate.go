package members

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/currentsee/internal/storage"
)

const (
	maxNameLen     = 100
	maxUsernameLen = 32
)

// ErrInvalid marks input validation failures. Use errors.Is to detect them.
var ErrInvalid = errors.New("invalid member")

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	slugSeparators  = regexp.MustCompile(`[^a-z0-9]+`)
)

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", invalid("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	return name, nil
}

// validateEmail accepts a bare address and returns it normalized.
func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
		return "", invalid("email", "is not a valid address")
	}
	return storage.NormalizeEmail(addr.Address), nil
}

func validateUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return "", invalid("username", "is required")
	}
	if len(username) > maxUsernameLen || !usernamePattern.MatchString(username) {
		return "", invalid("username", "must be lowercase letters, digits, '-' or '_'")
	}
	return username, nil
}

// Slugify turns a display name into a username candidate.
func Slugify(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxUsernameLen-4 {
		slug = strings.TrimRight(slug[:maxUsernameLen-4], "-")
	}
	if slug == "" {
		return "member"
	}
	return slug
}

// withSuffix returns base for the first attempt and base-N after that.
func withSuffix(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}
