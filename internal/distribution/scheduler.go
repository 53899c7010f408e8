package distribution

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/platform/correlation"
)

// Scheduler runs a Distributor at every local midnight, like cron "0 0 * * *".
type Scheduler struct {
	distributor *Distributor
	clock       clockwork.Clock
}

func NewScheduler(distributor *Distributor) *Scheduler {
	return &Scheduler{distributor: distributor, clock: distributor.clock}
}

// Run performs a catch-up distribution, then one at each midnight.
// It blocks until ctx is cancelled. Failed runs are logged and retried at the next midnight.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx, models.TriggerStartup)

	for {
		now := s.clock.Now()
		next := NextMidnight(now, s.distributor.Location())
		slog.InfoContext(ctx, "Next distribution scheduled", "at", next)

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
			s.runOnce(ctx, models.TriggerSchedule)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, trigger string) {
	runCtx := correlation.WithID(ctx, correlation.NewID())
	if _, err := s.distributor.Run(runCtx, trigger); err != nil {
		slog.WarnContext(runCtx, "Scheduled distribution failed", "trigger", trigger, "error", err)
	}
}
