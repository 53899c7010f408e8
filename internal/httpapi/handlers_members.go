package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "github.com/mmynk/currentsee/internal/errors"
	"github.com/mmynk/currentsee/internal/members"
	"github.com/mmynk/currentsee/internal/models"
)

// includeAll reads the ?all= flag that adds reserve and placeholder rows.
func includeAll(c echo.Context) (bool, error) {
	raw := c.QueryParam("all")
	if raw == "" {
		return false, nil
	}
	all, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.ValidationError("all must be a boolean").WithContext("all", raw)
	}
	return all, nil
}

func (s *Server) handleListMembers(c echo.Context) error {
	all, err := includeAll(c)
	if err != nil {
		return err
	}

	list, err := s.members.List(c.Request().Context(), all)
	if err != nil {
		return apperrors.InternalError("failed to list members", err)
	}

	out := make([]models.PublicMember, 0, len(list))
	for _, m := range list {
		out = append(out, m.Public())
	}
	if err := c.JSON(http.StatusOK, out); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateMember(c echo.Context) error {
	var req members.SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	m, err := s.members.Signup(c.Request().Context(), req)
	if err != nil {
		return domainError(err)
	}

	if err := c.JSON(http.StatusCreated, m.Public()); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetMember(c echo.Context) error {
	id := c.Param("id")
	m, err := s.members.Get(c.Request().Context(), id)
	if err != nil {
		return apperrors.AsStructuredError(err).WithContext("member_id", id)
	}

	if err := c.JSON(http.StatusOK, m.Public()); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCountMembers(c echo.Context) error {
	all, err := includeAll(c)
	if err != nil {
		return err
	}

	n, err := s.members.Count(c.Request().Context(), all)
	if err != nil {
		return apperrors.InternalError("failed to count members", err)
	}
	if err := c.JSON(http.StatusOK, map[string]int{"count": n}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
