// Package solar holds the SOLAR arithmetic: unit conversions, day counting and
// the per-member daily credit.
package solar

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
)

var (
	// PerDay is the amount of SOLAR each eligible member receives per day.
	PerDay = decimal.NewFromInt(1)

	// SignupBonus is the balance a member starts with on the day they join.
	SignupBonus = decimal.NewFromInt(1)

	ErrIneligible = errors.New("member is not eligible for distribution")
)

// Rates converts SOLAR into dollars and energy.
type Rates struct {
	USDPerSolar decimal.Decimal
	KWhPerSolar decimal.Decimal
}

// DefaultRates returns the published valuation: 1 SOLAR = $136,000 = 4,913 kWh.
func DefaultRates() Rates {
	return Rates{
		USDPerSolar: decimal.NewFromInt(136000),
		KWhPerSolar: decimal.NewFromInt(4913),
	}
}

// ParseRates builds Rates from their decimal string forms.
func ParseRates(usdPerSolar, kwhPerSolar string) (Rates, error) {
	usd, err := decimal.NewFromString(usdPerSolar)
	if err != nil {
		return Rates{}, fmt.Errorf("invalid dollars per SOLAR %q: %w", usdPerSolar, err)
	}
	kwh, err := decimal.NewFromString(kwhPerSolar)
	if err != nil {
		return Rates{}, fmt.Errorf("invalid kWh per SOLAR %q: %w", kwhPerSolar, err)
	}
	if !usd.IsPositive() || !kwh.IsPositive() {
		return Rates{}, fmt.Errorf("rates must be positive")
	}
	return Rates{USDPerSolar: usd, KWhPerSolar: kwh}, nil
}

// ToUSD values an amount of SOLAR in dollars, rounded to cents.
func (r Rates) ToUSD(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.USDPerSolar).Round(2)
}

// ToKWh converts an amount of SOLAR to kilowatt hours.
func (r Rates) ToKWh(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.KWhPerSolar)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(models.DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DaysBetween returns the number of whole days from one calendar date to another.
// It never returns a negative count.
func DaysBetween(from, to string) (int64, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	// Both are UTC midnights, so the difference is an exact multiple of 24h.
	days := int64(t.Sub(f) / (24 * time.Hour))
	if days < 0 {
		return 0, nil
	}
	return days, nil
}

// DaysDue returns how many days of SOLAR the member is owed as of today.
// Counting starts at LastDistributionDate, or at the joined date for members
// that have never been credited.
func DaysDue(m *models.Member, today string, loc *time.Location) (int64, error) {
	from := m.LastDistributionDate
	if from == "" {
		if m.JoinedDate.IsZero() {
			return 0, fmt.Errorf("member %s has no joined date", m.ID)
		}
		from = m.JoinedDate.In(loc).Format(models.DateLayout)
	}
	return DaysBetween(from, today)
}

// Credit computes the member's balances after crediting every day due up to today.
// A member that is already up to date gets a credit with DaysCredited == 0.
func Credit(m *models.Member, today string, loc *time.Location, rates Rates) (models.MemberCredit, error) {
	if !m.EligibleForDistribution() {
		return models.MemberCredit{}, ErrIneligible
	}

	days, err := DaysDue(m, today, loc)
	if err != nil {
		return models.MemberCredit{}, err
	}

	total := m.TotalSolar.Add(PerDay.Mul(decimal.NewFromInt(days)))
	return models.MemberCredit{
		MemberID:     m.ID,
		DaysCredited: days,
		TotalSolar:   total,
		TotalDollars: rates.ToUSD(total),
	}, nil
}

// Seed sets the opening balance of a member joining at the given time.
// The joining day is credited immediately.
func Seed(m *models.Member, loc *time.Location, rates Rates) {
	m.TotalSolar = SignupBonus
	m.TotalDollars = rates.ToUSD(SignupBonus)
	m.LastDistributionDate = m.JoinedDate.In(loc).Format(models.DateLayout)
}
