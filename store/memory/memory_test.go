package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

func sampleLease(id, owner string) lease.Lease {
	return lease.Lease{
		ID:                  lease.LeaseID(id),
		OwnerID:             lease.OwnerID(owner),
		TenantID:            "tenant-1",
		AssetID:             "asset-1",
		StartDate:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		RentAmount:          generic.NewMoneyFromInt(1000),
		ChargePeriodMinutes: 43800,
		Frequency:           3,
		Status:              lease.StatusActive,
		LeaseType:           lease.TypeFixedTerm,
	}
}

func TestMemory_WithTx_RollsBack(t *testing.T) {
	// GIVEN: A stored lease
	// WHEN: A transaction appends a payment, updates the deposit, then fails
	// THEN: Both writes are discarded

	ctx := context.Background()
	m := New()
	require.NoError(t, m.SaveLease(ctx, sampleLease("lease-1", "owner-1")))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx lease.Store) error {
		require.NoError(t, tx.AppendPayment(ctx, lease.Payment{ID: "p-1", OwnerID: "owner-1"}))
		require.NoError(t, tx.UpdateDepositCollected(ctx, "lease-1", generic.NewMoneyFromInt(200)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	payments, err := m.ListPayments(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, payments)

	l, err := m.GetLease(ctx, "lease-1")
	require.NoError(t, err)
	assert.True(t, l.DepositCollectedAmount.IsZero())
}

func TestMemory_DuplicateReference(t *testing.T) {
	ctx := context.Background()
	m := New()

	require.NoError(t, m.AppendPayment(ctx, lease.Payment{ID: "p-1", ReferenceCode: "R-1"}))
	assert.ErrorIs(t, m.AppendPayment(ctx, lease.Payment{ID: "p-2", ReferenceCode: "R-1"}), generic.ErrDuplicateReference)
	require.NoError(t, m.AppendPayment(ctx, lease.Payment{ID: "p-3"}))
	require.NoError(t, m.AppendPayment(ctx, lease.Payment{ID: "p-4"}))
}

func TestMemory_ListOwnersSorted(t *testing.T) {
	ctx := context.Background()
	m := New()
	require.NoError(t, m.SaveLease(ctx, sampleLease("l-1", "owner-b")))
	require.NoError(t, m.SaveLease(ctx, sampleLease("l-2", "owner-a")))
	require.NoError(t, m.SaveLease(ctx, sampleLease("l-3", "owner-b")))

	owners, err := m.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []lease.OwnerID{"owner-a", "owner-b"}, owners)
}

func TestMemory_MissingRecords(t *testing.T) {
	ctx := context.Background()
	m := New()

	l, err := m.GetLease(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, l)

	assert.ErrorIs(t, m.UpdateLeaseSchedule(ctx, "nope", 1, time.Now()), lease.ErrLeaseNotFound)
	assert.ErrorIs(t, m.DeletePayment(ctx, "nope"), lease.ErrPaymentNotFound)
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := New()
	require.NoError(t, m.SaveLease(ctx, sampleLease("l-1", "owner-a")))
	require.NoError(t, m.SaveSnapshot(ctx, lease.SummarySnapshot{ID: "s-1", OwnerID: "owner-a"}))

	require.NoError(t, m.Reset(ctx))

	owners, err := m.ListOwners(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	snap, err := m.LatestSnapshot(ctx, "owner-a")
	require.NoError(t, err)
	assert.Nil(t, snap)
}
