package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/currentsee/internal/storage"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ValidationError("bad"), http.StatusBadRequest},
		{UnauthorizedError("no"), http.StatusUnauthorized},
		{NotFoundError("gone"), http.StatusNotFound},
		{ConflictError("dup"), http.StatusConflict},
		{TooLargeError("big"), http.StatusRequestEntityTooLarge},
		{UnavailableError("down", nil), http.StatusServiceUnavailable},
		{InternalError("boom", nil), http.StatusInternalServerError},
		{&Error{Type: "mystery"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := InternalError("failed to save artifact", cause)

	assert.Equal(t, "internal: failed to save artifact: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "validation: name is required", ValidationError("name is required").Error())
}

func TestWithContext(t *testing.T) {
	err := NotFoundError("member not found").WithContext("member_id", "m1")
	resp := err.ToResponse()

	assert.Equal(t, "member not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "m1", resp.Context["member_id"])

	var bare Error
	bare.WithContext("k", 1)
	assert.Equal(t, 1, bare.Context["k"])
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	original := ConflictError("email taken")
	assert.Same(t, original, AsStructuredError(fmt.Errorf("wrapped: %w", original)))

	notFound := AsStructuredError(fmt.Errorf("member x: %w", storage.ErrNotFound))
	assert.Equal(t, TypeNotFound, notFound.Type)

	conflict := AsStructuredError(fmt.Errorf("failed to insert: %w", storage.ErrConflict))
	assert.Equal(t, TypeConflict, conflict.Type)

	internal := AsStructuredError(errors.New("boom"))
	assert.Equal(t, TypeInternal, internal.Type)
	assert.Equal(t, "internal server error", internal.Message)
}
