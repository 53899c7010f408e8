package models

import "github.com/shopspring/decimal"

// Distribution run triggers.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
)

// DistributionRun records one execution of the daily SOLAR distribution.
type DistributionRun struct {
	// ID is the unique identifier for the run (UUID format).
	ID string `json:"id"`

	// Date is the calendar day (YYYY-MM-DD) the run credited up to.
	Date string `json:"date"`

	// Trigger is one of TriggerSchedule, TriggerManual or TriggerStartup.
	Trigger string `json:"trigger"`

	StartedAt  int64 `json:"startedAt"`
	FinishedAt int64 `json:"finishedAt"`

	// MembersCredited is the number of members whose balance changed.
	MembersCredited int `json:"membersCredited"`

	// SolarCredited is the total SOLAR added across all members.
	SolarCredited decimal.Decimal `json:"solarCredited"`

	// Error is set when the run failed. A failed run credits nothing.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the run completed without error.
func (r *DistributionRun) Succeeded() bool {
	return r.Error == ""
}
