package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of calendar dates such as LastDistributionDate.
const DateLayout = "2006-01-02"

// AnonymousName replaces the display name of anonymous members in public views.
const AnonymousName = "Anonymous"

// Member represents a registered participant of the SOLAR economy.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// Username is a unique, URL-safe handle derived from the name when not supplied.
	Username string `json:"username"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is the member's email address (unique, case-insensitive).
	// It is never exposed by public endpoints.
	Email string `json:"email"`

	// JoinedDate is when the member signed up.
	JoinedDate time.Time `json:"joinedDate"`

	// TotalSolar is the accumulated SOLAR balance.
	TotalSolar decimal.Decimal `json:"totalSolar"`

	// TotalDollars is TotalSolar valued at the configured dollar rate.
	TotalDollars decimal.Decimal `json:"totalDollars"`

	// IsAnonymous hides the name and username in public listings.
	IsAnonymous bool `json:"isAnonymous"`

	// IsReserve marks treasury accounts that never receive daily distribution.
	IsReserve bool `json:"isReserve"`

	// IsPlaceholder marks seed rows that are not real people.
	IsPlaceholder bool `json:"isPlaceholder"`

	// LastDistributionDate is the last calendar day (YYYY-MM-DD) credited.
	// Empty means the member has never been credited.
	LastDistributionDate string `json:"lastDistributionDate,omitempty"`

	// Notes is free text kept for operators.
	Notes string `json:"notes,omitempty"`

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last modification.
	UpdatedAt int64 `json:"updatedAt"`
}

// EligibleForDistribution reports whether the member receives daily SOLAR.
func (m *Member) EligibleForDistribution() bool {
	return !m.IsReserve && !m.IsPlaceholder
}

// PublicMember is the view of a member returned by public endpoints.
type PublicMember struct {
	ID                   string          `json:"id"`
	Username             string          `json:"username"`
	Name                 string          `json:"name"`
	JoinedDate           time.Time       `json:"joinedDate"`
	TotalSolar           decimal.Decimal `json:"totalSolar"`
	TotalDollars         decimal.Decimal `json:"totalDollars"`
	IsAnonymous          bool            `json:"isAnonymous"`
	IsReserve            bool            `json:"isReserve"`
	LastDistributionDate string          `json:"lastDistributionDate,omitempty"`
}

// Public returns the member as it may be shown to anyone.
func (m *Member) Public() PublicMember {
	p := PublicMember{
		ID:                   m.ID,
		Username:             m.Username,
		Name:                 m.Name,
		JoinedDate:           m.JoinedDate,
		TotalSolar:           m.TotalSolar,
		TotalDollars:         m.TotalDollars,
		IsAnonymous:          m.IsAnonymous,
		IsReserve:            m.IsReserve,
		LastDistributionDate: m.LastDistributionDate,
	}
	if m.IsAnonymous {
		p.Name = AnonymousName
		p.Username = ""
	}
	return p
}

// MemberCredit is a balance change produced by one distribution run.
type MemberCredit struct {
	MemberID     string
	DaysCredited int64
	TotalSolar   decimal.Decimal
	TotalDollars decimal.Decimal
}
