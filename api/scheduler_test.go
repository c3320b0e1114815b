package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/store/memory"
)

func TestLifecycleScheduler_RunNow(t *testing.T) {
	// GIVEN: Two owners, one with an ended lease
	// WHEN: Running a pass at 2024-06-01
	// THEN: The ended lease expires and each owner gets a snapshot

	ctx := context.Background()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := lease.NewService(store, logger)

	h := NewHandler(svc, logger)
	_, err := h.createLeaseFromJSON(ctx, `{
		"id": "ended", "owner_id": "owner-a", "tenant_id": "t1", "asset_id": "a1",
		"start_date": "2024-01-01T00:00:00Z", "rent_amount": "100",
		"charge_period": {"value": 1, "unit": "months"}, "frequency": 2
	}`)
	require.NoError(t, err)
	_, err = h.createLeaseFromJSON(ctx, `{
		"id": "running", "owner_id": "owner-b", "tenant_id": "t2", "asset_id": "a2",
		"start_date": "2024-01-01T00:00:00Z", "rent_amount": "100",
		"charge_period": {"value": 1, "unit": "years"}, "frequency": 2
	}`)
	require.NoError(t, err)

	scheduler := NewLifecycleScheduler(svc, logger)
	scheduler.Clock = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }

	res := scheduler.RunNow(ctx)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Owners)
	assert.Equal(t, []lease.LeaseID{"ended"}, res.Expired)
	assert.Equal(t, 2, res.Snapshots)

	l, err := store.GetLease(ctx, "ended")
	require.NoError(t, err)
	assert.Equal(t, lease.StatusExpired, l.Status)

	snap, err := store.LatestSnapshot(ctx, "owner-b")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Summary.ActiveLeases)
	assert.Equal(t, lease.SnapshotScheduled, snap.Reason)
}

func TestLifecycleScheduler_StartStop(t *testing.T) {
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := NewLifecycleScheduler(lease.NewService(store, logger), logger)
	scheduler.CheckInterval = time.Hour

	scheduler.Start()
	scheduler.Start() // second start is a no-op
	scheduler.Stop()
	scheduler.Stop()

	scheduler.Enabled = false
	scheduler.Start()
	scheduler.Stop()
}

func TestLifecycleScheduler_NextRunTime(t *testing.T) {
	scheduler := NewLifecycleScheduler(lease.NewService(memory.New(), nil), nil)
	fixed := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	scheduler.Clock = func() time.Time { return fixed }
	scheduler.CheckInterval = 30 * time.Minute

	assert.Equal(t, fixed.Add(30*time.Minute), scheduler.NextRunTime())
}
