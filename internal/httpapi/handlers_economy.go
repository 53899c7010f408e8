package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "github.com/mmynk/currentsee/internal/errors"
	"github.com/mmynk/currentsee/internal/solar"
)

type ratesResponse struct {
	USDPerSolar decimal.Decimal `json:"usdPerSolar"`
	KWhPerSolar decimal.Decimal `json:"kwhPerSolar"`
	SolarPerDay decimal.Decimal `json:"solarPerDay"`
}

type economyResponse struct {
	Totals solar.Totals  `json:"totals"`
	Rates  ratesResponse `json:"rates"`
}

func (s *Server) handleEconomy(c echo.Context) error {
	totals, err := s.members.Totals(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to compute totals", err)
	}

	rates := s.members.Rates()
	response := economyResponse{
		Totals: totals,
		Rates: ratesResponse{
			USDPerSolar: rates.USDPerSolar,
			KWhPerSolar: rates.KWhPerSolar,
			SolarPerDay: solar.PerDay,
		},
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDistributionStatus(c echo.Context) error {
	st, err := s.distributor.Status(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load distribution status", err)
	}
	if err := c.JSON(http.StatusOK, st); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
