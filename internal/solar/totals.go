package solar

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
)

// Totals summarizes the SOLAR economy across all members.
type Totals struct {
	// Members counts real, non-reserve members.
	Members int `json:"members"`

	// CirculatingSolar is the SOLAR held by real, non-reserve members.
	CirculatingSolar decimal.Decimal `json:"circulatingSolar"`

	// CirculatingUSD is CirculatingSolar valued in dollars.
	CirculatingUSD decimal.Decimal `json:"circulatingUsd"`

	// CirculatingKWh is CirculatingSolar expressed as energy.
	CirculatingKWh decimal.Decimal `json:"circulatingKwh"`

	// ReserveSolar is the SOLAR held by reserve accounts.
	ReserveSolar decimal.Decimal `json:"reserveSolar"`
}

// Summarize aggregates balances. Placeholders are ignored entirely.
func Summarize(members []*models.Member, rates Rates) Totals {
	t := Totals{
		CirculatingSolar: decimal.Zero,
		ReserveSolar:     decimal.Zero,
	}
	for _, m := range members {
		switch {
		case m.IsPlaceholder:
			continue
		case m.IsReserve:
			t.ReserveSolar = t.ReserveSolar.Add(m.TotalSolar)
		default:
			t.Members++
			t.CirculatingSolar = t.CirculatingSolar.Add(m.TotalSolar)
		}
	}
	t.CirculatingUSD = rates.ToUSD(t.CirculatingSolar)
	t.CirculatingKWh = rates.ToKWh(t.CirculatingSolar)
	return t
}
