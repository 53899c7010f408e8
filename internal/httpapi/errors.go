package httpapi

import (
	"errors"

	"github.com/mmynk/currentsee/internal/artifacts"
	apperrors "github.com/mmynk/currentsee/internal/errors"
	"github.com/mmynk/currentsee/internal/members"
)

// domainError maps service errors onto the REST error taxonomy.
// Storage sentinels and unknown errors are left to apperrors.AsStructuredError.
func domainError(err error) error {
	var ve *members.ValidationError
	switch {
	case errors.As(err, &ve):
		return apperrors.ValidationError(ve.Error()).WithContext("field", ve.Field)
	case errors.Is(err, members.ErrInvalid),
		errors.Is(err, artifacts.ErrInvalid),
		errors.Is(err, artifacts.ErrOwnerNotFound),
		errors.Is(err, artifacts.ErrEmptyFile):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, members.ErrEmailTaken),
		errors.Is(err, members.ErrUsernameTaken):
		return apperrors.ConflictError(err.Error())
	case errors.Is(err, artifacts.ErrTooLarge):
		return apperrors.TooLargeError(err.Error())
	case errors.Is(err, artifacts.ErrNoPreview):
		return apperrors.NotFoundError(err.Error())
	}
	return err
}
