package distribution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/currentsee/internal/models"
)

func TestSchedulerRunsAtStartupAndMidnight(t *testing.T) {
	f := newFixture(t, time.Date(2025, 4, 7, 22, 0, 0, 0, time.UTC), time.UTC)
	m := addMember(t, f.store, &models.Member{
		Name: "Ada", Username: "ada", Email: "ada@example.com",
		JoinedDate:           date(2025, 4, 5),
		TotalSolar:           decimal.NewFromInt(1),
		LastDistributionDate: "2025-04-05",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(f.d).Run(ctx)
		close(done)
	}()

	// Catch-up run credits 04-06 and 04-07, then the scheduler waits for midnight.
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	runs, err := f.store.ListDistributionRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.TriggerStartup, runs[0].Trigger)
	assert.Equal(t, 1, runs[0].MembersCredited)

	f.clock.Advance(2 * time.Hour)

	require.Eventually(t, func() bool {
		runs, err := f.store.ListDistributionRuns(ctx, 0)
		return err == nil && len(runs) == 2
	}, time.Second, 5*time.Millisecond)

	runs, err = f.store.ListDistributionRuns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerSchedule, runs[0].Trigger)
	assert.Equal(t, "2025-04-08", runs[0].Date)

	got, err := f.store.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalSolar.Equal(decimal.NewFromInt(4)), "got %s", got.TotalSolar)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestSchedulerStopsBeforeFirstMidnight(t *testing.T) {
	f := newFixture(t, time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC), time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(f.d).Run(ctx)
		close(done)
	}()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	runs, err := f.store.ListDistributionRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
