package solar

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
)

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		want    int64
		wantErr bool
	}{
		{name: "same day", from: "2025-04-07", to: "2025-04-07", want: 0},
		{name: "next day", from: "2025-04-07", to: "2025-04-08", want: 1},
		{name: "across month", from: "2025-04-28", to: "2025-05-03", want: 5},
		{name: "leap day", from: "2024-02-28", to: "2024-03-01", want: 2},
		{name: "across DST change", from: "2025-03-08", to: "2025-03-10", want: 2},
		{name: "backwards clamps to zero", from: "2025-05-01", to: "2025-04-01", want: 0},
		{name: "bad from", from: "yesterday", to: "2025-04-01", wantErr: true},
		{name: "bad to", from: "2025-04-01", to: "04/02/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DaysBetween(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DaysBetween() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCredit(t *testing.T) {
	rates := DefaultRates()
	joined := time.Date(2025, 4, 7, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		member    models.Member
		today     string
		wantDays  int64
		wantSolar string
		wantUSD   string
		wantErr   error
	}{
		{
			name: "credits days since last distribution",
			member: models.Member{
				ID: "m1", JoinedDate: joined,
				TotalSolar: decimal.NewFromInt(1), LastDistributionDate: "2025-04-07",
			},
			today:     "2025-04-10",
			wantDays:  3,
			wantSolar: "4",
			wantUSD:   "544000",
		},
		{
			name: "already credited today",
			member: models.Member{
				ID: "m2", JoinedDate: joined,
				TotalSolar: decimal.NewFromInt(5), LastDistributionDate: "2025-04-10",
			},
			today:     "2025-04-10",
			wantDays:  0,
			wantSolar: "5",
			wantUSD:   "680000",
		},
		{
			name: "never credited counts from joined date",
			member: models.Member{
				ID: "m3", JoinedDate: joined, TotalSolar: decimal.Zero,
			},
			today:     "2025-04-09",
			wantDays:  2,
			wantSolar: "2",
			wantUSD:   "272000",
		},
		{
			name: "fractional balance is preserved",
			member: models.Member{
				ID: "m4", JoinedDate: joined,
				TotalSolar: decimal.RequireFromString("0.5"), LastDistributionDate: "2025-04-08",
			},
			today:     "2025-04-09",
			wantDays:  1,
			wantSolar: "1.5",
			wantUSD:   "204000",
		},
		{
			name:    "reserve is not eligible",
			member:  models.Member{ID: "r", JoinedDate: joined, IsReserve: true},
			today:   "2025-04-09",
			wantErr: ErrIneligible,
		},
		{
			name:    "placeholder is not eligible",
			member:  models.Member{ID: "p", JoinedDate: joined, IsPlaceholder: true},
			today:   "2025-04-09",
			wantErr: ErrIneligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credit, err := Credit(&tt.member, tt.today, time.UTC, rates)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Credit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Credit() unexpected error: %v", err)
			}
			if credit.DaysCredited != tt.wantDays {
				t.Errorf("DaysCredited = %d, want %d", credit.DaysCredited, tt.wantDays)
			}
			if !credit.TotalSolar.Equal(decimal.RequireFromString(tt.wantSolar)) {
				t.Errorf("TotalSolar = %s, want %s", credit.TotalSolar, tt.wantSolar)
			}
			if !credit.TotalDollars.Equal(decimal.RequireFromString(tt.wantUSD)) {
				t.Errorf("TotalDollars = %s, want %s", credit.TotalDollars, tt.wantUSD)
			}
		})
	}
}

func TestDaysDueUsesLocation(t *testing.T) {
	// 23:30 UTC on April 7 is already April 8 in Tokyo.
	joined := time.Date(2025, 4, 7, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)
	m := &models.Member{ID: "m", JoinedDate: joined}

	utcDays, err := DaysDue(m, "2025-04-09", time.UTC)
	if err != nil {
		t.Fatalf("DaysDue() error: %v", err)
	}
	tokyoDays, err := DaysDue(m, "2025-04-09", tokyo)
	if err != nil {
		t.Fatalf("DaysDue() error: %v", err)
	}

	if utcDays != 2 || tokyoDays != 1 {
		t.Errorf("got utc=%d tokyo=%d, want utc=2 tokyo=1", utcDays, tokyoDays)
	}
}

func TestSeed(t *testing.T) {
	m := &models.Member{JoinedDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	Seed(m, time.UTC, DefaultRates())

	if !m.TotalSolar.Equal(decimal.NewFromInt(1)) {
		t.Errorf("TotalSolar = %s, want 1", m.TotalSolar)
	}
	if !m.TotalDollars.Equal(decimal.NewFromInt(136000)) {
		t.Errorf("TotalDollars = %s, want 136000", m.TotalDollars)
	}
	if m.LastDistributionDate != "2025-06-01" {
		t.Errorf("LastDistributionDate = %s, want 2025-06-01", m.LastDistributionDate)
	}

	// The joining day is already paid for.
	credit, err := Credit(m, "2025-06-01", time.UTC, DefaultRates())
	if err != nil {
		t.Fatalf("Credit() error: %v", err)
	}
	if credit.DaysCredited != 0 {
		t.Errorf("DaysCredited on join day = %d, want 0", credit.DaysCredited)
	}
}

func TestParseRates(t *testing.T) {
	if _, err := ParseRates("136000", "4913"); err != nil {
		t.Errorf("ParseRates() unexpected error: %v", err)
	}
	if _, err := ParseRates("abc", "4913"); err == nil {
		t.Error("expected error for non-numeric dollar rate")
	}
	if _, err := ParseRates("0", "4913"); err == nil {
		t.Error("expected error for zero dollar rate")
	}
	if _, err := ParseRates("136000", "-1"); err == nil {
		t.Error("expected error for negative kWh rate")
	}
}

func TestSummarize(t *testing.T) {
	members := []*models.Member{
		{ID: "a", TotalSolar: decimal.NewFromInt(10)},
		{ID: "b", TotalSolar: decimal.NewFromInt(5), IsAnonymous: true},
		{ID: "reserve", TotalSolar: decimal.NewFromInt(10_000_000_000), IsReserve: true},
		{ID: "placeholder", TotalSolar: decimal.NewFromInt(99), IsPlaceholder: true},
	}

	totals := Summarize(members, DefaultRates())

	if totals.Members != 2 {
		t.Errorf("Members = %d, want 2", totals.Members)
	}
	if !totals.CirculatingSolar.Equal(decimal.NewFromInt(15)) {
		t.Errorf("CirculatingSolar = %s, want 15", totals.CirculatingSolar)
	}
	if !totals.CirculatingUSD.Equal(decimal.NewFromInt(2_040_000)) {
		t.Errorf("CirculatingUSD = %s, want 2040000", totals.CirculatingUSD)
	}
	if !totals.CirculatingKWh.Equal(decimal.NewFromInt(73_695)) {
		t.Errorf("CirculatingKWh = %s, want 73695", totals.CirculatingKWh)
	}
	if !totals.ReserveSolar.Equal(decimal.NewFromInt(10_000_000_000)) {
		t.Errorf("ReserveSolar = %s, want 10000000000", totals.ReserveSolar)
	}
}
