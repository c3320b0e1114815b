// Package memory provides an in-memory lease.TxStore for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	data *tables
}

func New() *Memory {
	return &Memory{data: newTables()}
}

func (m *Memory) ListOwners(ctx context.Context) ([]lease.OwnerID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListOwners(ctx)
}

func (m *Memory) ListLeases(ctx context.Context, owner lease.OwnerID) ([]lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListLeases(ctx, owner)
}

func (m *Memory) GetLease(ctx context.Context, id lease.LeaseID) (*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetLease(ctx, id)
}

func (m *Memory) SaveLease(ctx context.Context, l lease.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveLease(ctx, l)
}

func (m *Memory) DeleteLease(ctx context.Context, id lease.LeaseID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeleteLease(ctx, id)
}

func (m *Memory) UpdateLeaseSchedule(ctx context.Context, id lease.LeaseID, frequency int, endDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdateLeaseSchedule(ctx, id, frequency, endDate)
}

func (m *Memory) UpdateDepositCollected(ctx context.Context, id lease.LeaseID, amount generic.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdateDepositCollected(ctx, id, amount)
}

func (m *Memory) ListPayments(ctx context.Context, owner lease.OwnerID) ([]lease.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListPayments(ctx, owner)
}

func (m *Memory) GetPayment(ctx context.Context, id lease.PaymentID) (*lease.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetPayment(ctx, id)
}

func (m *Memory) AppendPayment(ctx context.Context, p lease.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.AppendPayment(ctx, p)
}

func (m *Memory) UpdatePayment(ctx context.Context, p lease.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.UpdatePayment(ctx, p)
}

func (m *Memory) DeletePayment(ctx context.Context, id lease.PaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.DeletePayment(ctx, id)
}

func (m *Memory) ReferenceExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ReferenceExists(ctx, code)
}

func (m *Memory) ListAssets(ctx context.Context, owner lease.OwnerID) ([]lease.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListAssets(ctx, owner)
}

func (m *Memory) GetAsset(ctx context.Context, id lease.AssetID) (*lease.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetAsset(ctx, id)
}

func (m *Memory) SaveAsset(ctx context.Context, a lease.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveAsset(ctx, a)
}

func (m *Memory) ListTenants(ctx context.Context, owner lease.OwnerID) ([]lease.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ListTenants(ctx, owner)
}

func (m *Memory) GetTenant(ctx context.Context, id lease.TenantID) (*lease.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.GetTenant(ctx, id)
}

func (m *Memory) SaveTenant(ctx context.Context, t lease.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SaveTenant(ctx, t)
}

func (m *Memory) SaveSnapshot(_ context.Context, s lease.SummarySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.snapshots = append(m.data.snapshots, s)
	return nil
}

func (m *Memory) LatestSnapshot(_ context.Context, owner lease.OwnerID) (*lease.SummarySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *lease.SummarySnapshot
	for i := range m.data.snapshots {
		s := m.data.snapshots[i]
		if s.OwnerID != owner {
			continue
		}
		if latest == nil || !s.TakenAt.Before(latest.TakenAt) {
			latest = &s
		}
	}
	return latest, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store, this is simulated with a snapshot + rollback on
// error. The write lock is held for the whole of fn.
func (m *Memory) WithTx(_ context.Context, fn func(lease.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(m.data); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = newTables()
	return nil
}

// =============================================================================
// TABLES - unlocked storage shared by Memory and its transaction view
// =============================================================================

type tables struct {
	leases    map[lease.LeaseID]lease.Lease
	payments  []lease.Payment // insertion order
	assets    map[lease.AssetID]lease.Asset
	tenants   map[lease.TenantID]lease.Tenant
	snapshots []lease.SummarySnapshot
}

func newTables() *tables {
	return &tables{
		leases:  make(map[lease.LeaseID]lease.Lease),
		assets:  make(map[lease.AssetID]lease.Asset),
		tenants: make(map[lease.TenantID]lease.Tenant),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.leases {
		c.leases[k] = v
	}
	for k, v := range t.assets {
		c.assets[k] = v
	}
	for k, v := range t.tenants {
		c.tenants[k] = v
	}
	c.payments = append([]lease.Payment(nil), t.payments...)
	c.snapshots = append([]lease.SummarySnapshot(nil), t.snapshots...)
	return c
}

func (t *tables) ListOwners(_ context.Context) ([]lease.OwnerID, error) {
	seen := make(map[lease.OwnerID]bool)
	var out []lease.OwnerID
	for _, l := range t.leases {
		if !seen[l.OwnerID] {
			seen[l.OwnerID] = true
			out = append(out, l.OwnerID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (t *tables) ListLeases(_ context.Context, owner lease.OwnerID) ([]lease.Lease, error) {
	var out []lease.Lease
	for _, l := range t.leases {
		if l.OwnerID == owner {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tables) GetLease(_ context.Context, id lease.LeaseID) (*lease.Lease, error) {
	l, ok := t.leases[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (t *tables) SaveLease(_ context.Context, l lease.Lease) error {
	t.leases[l.ID] = l
	return nil
}

func (t *tables) DeleteLease(_ context.Context, id lease.LeaseID) error {
	if _, ok := t.leases[id]; !ok {
		return fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, id)
	}
	delete(t.leases, id)
	return nil
}

func (t *tables) UpdateLeaseSchedule(_ context.Context, id lease.LeaseID, frequency int, endDate time.Time) error {
	l, ok := t.leases[id]
	if !ok {
		return fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, id)
	}
	l.Frequency = frequency
	l.EndDate = endDate
	t.leases[id] = l
	return nil
}

func (t *tables) UpdateDepositCollected(_ context.Context, id lease.LeaseID, amount generic.Money) error {
	l, ok := t.leases[id]
	if !ok {
		return fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, id)
	}
	l.DepositCollectedAmount = amount
	t.leases[id] = l
	return nil
}

func (t *tables) ListPayments(_ context.Context, owner lease.OwnerID) ([]lease.Payment, error) {
	var out []lease.Payment
	for _, p := range t.payments {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *tables) GetPayment(_ context.Context, id lease.PaymentID) (*lease.Payment, error) {
	for _, p := range t.payments {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *tables) AppendPayment(_ context.Context, p lease.Payment) error {
	if p.ReferenceCode != "" {
		for _, existing := range t.payments {
			if existing.ReferenceCode == p.ReferenceCode {
				return generic.ErrDuplicateReference
			}
		}
	}
	t.payments = append(t.payments, p)
	return nil
}

func (t *tables) UpdatePayment(_ context.Context, p lease.Payment) error {
	for i := range t.payments {
		if t.payments[i].ID == p.ID {
			t.payments[i] = p
			return nil
		}
	}
	return fmt.Errorf("%w: %s", lease.ErrPaymentNotFound, p.ID)
}

func (t *tables) DeletePayment(_ context.Context, id lease.PaymentID) error {
	for i := range t.payments {
		if t.payments[i].ID == id {
			t.payments = append(t.payments[:i], t.payments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", lease.ErrPaymentNotFound, id)
}

func (t *tables) ReferenceExists(_ context.Context, code string) (bool, error) {
	for _, p := range t.payments {
		if p.ReferenceCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (t *tables) ListAssets(_ context.Context, owner lease.OwnerID) ([]lease.Asset, error) {
	var out []lease.Asset
	for _, a := range t.assets {
		if a.OwnerID == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) GetAsset(_ context.Context, id lease.AssetID) (*lease.Asset, error) {
	a, ok := t.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *tables) SaveAsset(_ context.Context, a lease.Asset) error {
	t.assets[a.ID] = a
	return nil
}

func (t *tables) ListTenants(_ context.Context, owner lease.OwnerID) ([]lease.Tenant, error) {
	var out []lease.Tenant
	for _, tn := range t.tenants {
		if tn.OwnerID == owner {
			out = append(out, tn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) GetTenant(_ context.Context, id lease.TenantID) (*lease.Tenant, error) {
	tn, ok := t.tenants[id]
	if !ok {
		return nil, nil
	}
	return &tn, nil
}

func (t *tables) SaveTenant(_ context.Context, tn lease.Tenant) error {
	t.tenants[tn.ID] = tn
	return nil
}
