/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the accounting engine and the database.
  Implementations: store/sqlite (production), store/memory (tests, dev).

KEY INTERFACES:
  LeaseStore:     Lease records, with narrow updates for the schedule and
                  deposit fields
  PaymentStore:   The payment ledger
  DirectoryStore: Assets and tenants (read-mostly enrichment)
  TxStore:        Atomic multi-write unit
  SnapshotStore:  Persisted summary snapshots

LOOKUPS:
  Get* methods return (nil, nil) when the record does not exist. The
  service turns that into ErrLeaseNotFound / ErrPaymentNotFound.

ATOMICITY:
  CollectPayment inserts a payment and updates the lease deposit. Both go
  through one WithTx call: either both commit or neither does. The engine
  relies on the store for isolation between concurrent calls on the same
  lease and takes no locks of its own.
*/
package lease

import (
	"context"
	"time"

	"github.com/warp/lease-engine/generic"
)

type LeaseStore interface {
	// ListOwners returns every owner with at least one lease.
	ListOwners(ctx context.Context) ([]OwnerID, error)
	ListLeases(ctx context.Context, owner OwnerID) ([]Lease, error)
	GetLease(ctx context.Context, id LeaseID) (*Lease, error)

	// SaveLease inserts or fully replaces a lease.
	SaveLease(ctx context.Context, l Lease) error
	DeleteLease(ctx context.Context, id LeaseID) error

	// UpdateLeaseSchedule changes only frequency and end date.
	UpdateLeaseSchedule(ctx context.Context, id LeaseID, frequency int, endDate time.Time) error

	// UpdateDepositCollected changes only the collected deposit.
	UpdateDepositCollected(ctx context.Context, id LeaseID, amount generic.Money) error
}

type PaymentStore interface {
	ListPayments(ctx context.Context, owner OwnerID) ([]Payment, error)
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)
	AppendPayment(ctx context.Context, p Payment) error
	UpdatePayment(ctx context.Context, p Payment) error
	DeletePayment(ctx context.Context, id PaymentID) error

	// ReferenceExists checks if a reference code is already used.
	ReferenceExists(ctx context.Context, code string) (bool, error)
}

type DirectoryStore interface {
	ListAssets(ctx context.Context, owner OwnerID) ([]Asset, error)
	GetAsset(ctx context.Context, id AssetID) (*Asset, error)
	SaveAsset(ctx context.Context, a Asset) error

	ListTenants(ctx context.Context, owner OwnerID) ([]Tenant, error)
	GetTenant(ctx context.Context, id TenantID) (*Tenant, error)
	SaveTenant(ctx context.Context, t Tenant) error
}

type Store interface {
	LeaseStore
	PaymentStore
	DirectoryStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the passed Store is
	// rolled back. If fn returns nil, they are committed together.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// SnapshotStore persists summary snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s SummarySnapshot) error
	LatestSnapshot(ctx context.Context, owner OwnerID) (*SummarySnapshot, error)
}
