package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_RunNow(t *testing.T) {
	// GIVEN: stored records whose results were wiped
	handler := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, handler.loadTierCrossingScenario(ctx))
	months, err := handler.Store.ResultMonths(ctx)
	require.NoError(t, err)
	for _, m := range months {
		require.NoError(t, handler.Store.ReplaceMonthResults(ctx, m, nil))
	}

	// WHEN
	rs := NewRecomputeScheduler(handler.Driver, zap.NewNop())
	run, ran := rs.RunNow(ctx)

	// THEN: results are rebuilt and the run is recorded
	require.True(t, ran)
	assert.Equal(t, 4, run.Records)
	_, err = handler.Store.GetResult(ctx, "2025-07-d31")
	assert.NoError(t, err)
	runs, err := handler.Store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "manual", runs[0].Trigger)
}

func TestScheduler_StartStop(t *testing.T) {
	handler := setupTestHandler(t)
	rs := NewRecomputeScheduler(handler.Driver, nil)
	rs.Interval = 10 * time.Millisecond
	rs.RunOnStart = true

	rs.Start()
	assert.False(t, rs.NextRunTime().IsZero())
	require.Eventually(t, func() bool {
		runs, err := handler.Store.ListRuns(context.Background(), 0)
		return err == nil && len(runs) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	rs.Stop()
	rs.Stop() // idempotent

	assert.True(t, rs.NextRunTime().IsZero())
	runs, err := handler.Store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "startup", runs[len(runs)-1].Trigger)
}

func TestScheduler_Disabled(t *testing.T) {
	handler := setupTestHandler(t)
	rs := NewRecomputeScheduler(handler.Driver, nil)
	rs.Enabled = false

	rs.Start()
	defer rs.Stop()

	assert.True(t, rs.NextRunTime().IsZero())
}
