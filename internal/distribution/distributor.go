// Package distribution credits members their daily SOLAR and schedules the daily run.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/metrics"
	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/platform/correlation"
	"github.com/mmynk/currentsee/internal/solar"
	"github.com/mmynk/currentsee/internal/storage"
)

// Store is the storage a Distributor reads members from and logs runs to.
type Store interface {
	storage.MemberStore
	storage.DistributionLog
}

// Options configures a Distributor. Zero values mean real clock, UTC, default rates
// and no metrics.
type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
	Rates    solar.Rates
	Metrics  *metrics.DistributionMetrics
}

// Distributor computes and applies daily SOLAR credits. Runs are serialized.
type Distributor struct {
	store   Store
	clock   clockwork.Clock
	loc     *time.Location
	rates   solar.Rates
	metrics *metrics.DistributionMetrics

	mu sync.Mutex
}

func NewDistributor(store Store, opts Options) *Distributor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Rates.USDPerSolar.IsZero() {
		opts.Rates = solar.DefaultRates()
	}
	return &Distributor{
		store:   store,
		clock:   opts.Clock,
		loc:     opts.Location,
		rates:   opts.Rates,
		metrics: opts.Metrics,
	}
}

// Location is the zone whose midnight starts a distribution day.
func (d *Distributor) Location() *time.Location {
	return d.loc
}

// Run credits every eligible member for the days owed up to today and records the run.
// A run on a day that was already distributed credits nothing. The run is recorded
// even when it fails; the returned error is the distribution failure, if any.
func (d *Distributor) Run(ctx context.Context, trigger string) (*models.DistributionRun, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, _ = correlation.Ensure(ctx)
	started := d.clock.Now()
	run := &models.DistributionRun{
		Date:          solar.Today(started, d.loc),
		Trigger:       trigger,
		StartedAt:     started.Unix(),
		SolarCredited: decimal.Zero,
	}

	slog.InfoContext(ctx, "Distribution started", "date", run.Date, "trigger", trigger)

	credited, solarTotal, err := d.distribute(ctx, run.Date)
	run.FinishedAt = d.clock.Now().Unix()
	if err != nil {
		run.Error = err.Error()
	} else {
		run.MembersCredited = credited
		run.SolarCredited = solarTotal
	}

	// Record even if the caller is shutting down.
	if recErr := d.store.RecordDistributionRun(context.WithoutCancel(ctx), run); recErr != nil {
		slog.ErrorContext(ctx, "Failed to record distribution run", "date", run.Date, "error", recErr)
		if err == nil {
			err = fmt.Errorf("failed to record distribution run: %w", recErr)
		}
	}

	if err != nil {
		if d.metrics != nil {
			d.metrics.ObserveFailure()
		}
		slog.ErrorContext(ctx, "Distribution failed", "date", run.Date, "trigger", trigger, "error", err)
		return run, err
	}

	if d.metrics != nil {
		d.metrics.ObserveSuccess(run.MembersCredited, run.SolarCredited, run.FinishedAt)
	}
	slog.InfoContext(ctx, "Distribution finished",
		"date", run.Date,
		"trigger", trigger,
		"members_credited", run.MembersCredited,
		"solar_credited", run.SolarCredited.String(),
	)
	return run, nil
}

// distribute computes credits for today and applies them atomically.
func (d *Distributor) distribute(ctx context.Context, today string) (int, decimal.Decimal, error) {
	members, err := d.store.ListMembers(ctx, storage.ListOptions{})
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to list members: %w", err)
	}

	var credits []models.MemberCredit
	for _, m := range members {
		c, err := solar.Credit(m, today, d.loc, d.rates)
		if errors.Is(err, solar.ErrIneligible) {
			continue
		}
		if err != nil {
			return 0, decimal.Zero, fmt.Errorf("failed to compute credit for member %s: %w", m.ID, err)
		}
		if c.DaysCredited == 0 {
			continue
		}
		credits = append(credits, c)
	}

	if len(credits) == 0 {
		return 0, decimal.Zero, nil
	}

	applied, err := d.store.ApplyDistribution(ctx, today, credits)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to apply distribution: %w", err)
	}
	if skipped := len(credits) - len(applied); skipped > 0 {
		// Another process credited them first, or they were deleted after listing.
		slog.DebugContext(ctx, "Skipped credits", "date", today, "skipped", skipped)
	}

	var days int64
	for _, c := range applied {
		days += c.DaysCredited
	}
	return len(applied), solar.PerDay.Mul(decimal.NewFromInt(days)), nil
}

// Status describes the distribution schedule.
type Status struct {
	Today   string                  `json:"today"`
	LastRun *models.DistributionRun `json:"lastRun,omitempty"`
	NextRun time.Time               `json:"nextRun"`
	Zone    string                  `json:"timezone"`
}

// Status returns the last recorded run and the next scheduled one.
func (d *Distributor) Status(ctx context.Context) (Status, error) {
	now := d.clock.Now()
	st := Status{
		Today:   solar.Today(now, d.loc),
		NextRun: NextMidnight(now, d.loc),
		Zone:    d.loc.String(),
	}

	last, err := d.store.LastDistributionRun(ctx)
	switch {
	case err == nil:
		st.LastRun = last
	case errors.Is(err, storage.ErrNotFound):
	default:
		return Status{}, fmt.Errorf("failed to get last distribution run: %w", err)
	}

	return st, nil
}

// NextMidnight returns the first midnight in loc strictly after now.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	t := now.In(loc)
	y, m, day := t.Date()
	return time.Date(y, m, day+1, 0, 0, 0, 0, loc)
}
