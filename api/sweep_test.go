package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/sla-engine/api"
	"github.com/warp/sla-engine/sla"
)

func TestSweep_PersistsSnapshotsAndTracksDrift(t *testing.T) {
	// GIVEN: an open high ticket created Monday 10:00 (response due 14:00)
	// WHEN: sweeps run at creation, at 80% budget, and past the deadline
	// THEN: the stored snapshot follows pending -> at_risk -> breached

	env := newTestEnv(t)
	env.createTicket(t, "t-1", "high")

	sweep := api.NewSLASweep(env.store, env.handler)
	ctx := context.Background()

	sweep.RunNow()
	snap, err := env.store.GetSnapshot(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, sla.StatusPending, snap.ResponseStatus)

	env.now = time.Date(2025, time.January, 6, 13, 15, 0, 0, time.UTC)
	sweep.RunNow()
	snap, err = env.store.GetSnapshot(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, sla.StatusAtRisk, snap.ResponseStatus)
	assert.True(t, snap.EvaluatedAt.Equal(env.now))

	env.now = time.Date(2025, time.January, 6, 15, 0, 0, 0, time.UTC)
	sweep.RunNow()
	snap, err = env.store.GetSnapshot(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, sla.StatusBreached, snap.ResponseStatus)
	assert.Equal(t, sla.StatusPending, snap.ResolutionStatus)
}

func TestSweep_SkipsResolvedTickets(t *testing.T) {
	env := newTestEnv(t)
	env.createTicket(t, "t-1", "urgent")

	resp, _ := env.do(t, http.MethodPost, "/api/tickets/t-1/resolve", api.EventRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A resolved ticket's snapshot is frozen: the sweep no longer touches it.
	before, err := env.store.GetSnapshot(context.Background(), "t-1")
	require.NoError(t, err)
	require.NotNil(t, before)

	env.now = env.now.Add(100 * time.Hour)
	sweep := api.NewSLASweep(env.store, env.handler)
	sweep.RunNow()

	after, err := env.store.GetSnapshot(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, after.EvaluatedAt.Equal(before.EvaluatedAt))
}

func TestSweep_StartStop(t *testing.T) {
	env := newTestEnv(t)
	env.createTicket(t, "t-1", "high")

	sweep := api.NewSLASweep(env.store, env.handler)
	sweep.CheckInterval = 50 * time.Millisecond
	sweep.Start()

	// The sweep runs once immediately on start.
	require.Eventually(t, func() bool {
		snap, err := env.store.GetSnapshot(context.Background(), "t-1")
		return err == nil && snap != nil
	}, time.Second, 10*time.Millisecond)

	sweep.Stop()
}

func TestSweep_DisabledDoesNotStart(t *testing.T) {
	env := newTestEnv(t)

	sweep := api.NewSLASweep(env.store, env.handler)
	sweep.Enabled = false
	sweep.Start()
	// Stop on a never-started sweep must not panic or block.
	sweep.Stop()
}
