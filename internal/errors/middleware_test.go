package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Middleware()(handler)(c))
	return rec
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(c echo.Context) error {
		return ValidationError("invalid input").WithContext("field", "email")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "email", resp.Context["field"])

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("validation")))
}

func TestMiddlewareWithStandardError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(c echo.Context) error {
		return errors.New("database exploded")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, rec.Body.String(), "exploded")

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("internal")))
}

func TestMiddlewareWithEchoError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeTooLarge, resp.Type)
	assert.Equal(t, "file too large", resp.Error)
}

func TestMiddlewareWithNoError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, testutil.CollectAndCount(HTTPErrorsTotal))
}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{http.StatusBadRequest, TypeValidation},
		{http.StatusUnauthorized, TypeUnauthorized},
		{http.StatusNotFound, TypeNotFound},
		{http.StatusConflict, TypeConflict},
		{http.StatusServiceUnavailable, TypeUnavailable},
		{http.StatusTeapot, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := WrapHTTPError(echo.NewHTTPError(tt.code))
			assert.Equal(t, tt.want, err.Type)
		})
	}
}
