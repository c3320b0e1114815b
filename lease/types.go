/*
Package lease implements the lease collection accounting engine.

PURPOSE:
  Given a lease's billing schedule and the payments recorded against it,
  derive which periods have elapsed, which are paid, which are overdue and
  how much is currently owed. Also owns the three mutating operations:
  collecting a payment (with optional deposit), adjusting a period, and
  shrinking a lease's remaining periods.

KEY CONCEPTS IN THIS FILE (types.go):
  - Lease: billing contract (rent per period, charge period, frequency)
  - Payment: immutable signed ledger entry
  - Asset / Tenant: read-only enrichment for display
  - PaymentDraft, PeriodAdjustment: transient inputs

DERIVED, NEVER STORED:
  CollectionInterval, CollectionData and CollectionSummary are recomputed
  on every read from immutable snapshots (see collection.go, summary.go).

SEE ALSO:
  - collection.go: per-lease reconciliation
  - summary.go: portfolio roll-up
  - service.go: transactional operations
  - store.go: persistence interfaces
*/
package lease

import (
	"time"

	"github.com/warp/lease-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type LeaseID string
type PaymentID string
type TenantID string
type AssetID string

// =============================================================================
// ENUMS
// =============================================================================

type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusPending    Status = "pending"
	StatusTerminated Status = "terminated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusPending, StatusTerminated:
		return true
	}
	return false
}

type Type string

const (
	TypeFixedTerm    Type = "fixed_term"
	TypeMonthToMonth Type = "month_to_month"
)

func (t Type) Valid() bool { return t == TypeFixedTerm || t == TypeMonthToMonth }

type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "paid"
	PaymentPending   PaymentStatus = "pending"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentOverdue, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodCheck        PaymentMethod = "check"
	MethodMobile       PaymentMethod = "mobile"
	MethodOther        PaymentMethod = "other"
	MethodAdjustment   PaymentMethod = "adjustment" // Written only by AdjustPeriod
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCard, MethodCheck, MethodMobile, MethodOther, MethodAdjustment:
		return true
	}
	return false
}

type AdjustmentType string

const (
	AdjustRefund AdjustmentType = "refund"
	AdjustCancel AdjustmentType = "cancel"
)

func (a AdjustmentType) Valid() bool { return a == AdjustRefund || a == AdjustCancel }

// PaymentStatus is the ledger status written for this adjustment type.
func (a AdjustmentType) PaymentStatus() PaymentStatus {
	if a == AdjustRefund {
		return PaymentRefunded
	}
	return PaymentCancelled
}

// =============================================================================
// LEASE
// =============================================================================

// Lease is a billing contract between a tenant and an asset.
//
// INVARIANT: EndDate is the end of the last billing interval generated from
// StartDate, ChargePeriodMinutes and Frequency. Any change to those three
// fields must go through RecomputeEndDate.
type Lease struct {
	ID       LeaseID
	OwnerID  OwnerID
	TenantID TenantID
	AssetID  AssetID

	StartDate time.Time
	EndDate   time.Time

	RentAmount          generic.Money // per period
	ChargePeriodMinutes int64
	Frequency           int // number of periods

	Deposit                generic.Money
	DepositCollectedAmount generic.Money

	Status    Status
	LeaseType Type

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// PAYMENT
// =============================================================================

// Payment is a ledger entry. Positive amounts are collections; refunds and
// cancellations are negative. Entries are never edited to change their
// economic meaning: corrections are new entries.
type Payment struct {
	ID       PaymentID
	OwnerID  OwnerID
	TenantID TenantID
	AssetID  AssetID
	LeaseID  LeaseID // empty for payments not tied to a lease

	Amount   generic.Money
	DueDate  time.Time
	PaidDate *time.Time
	Status   PaymentStatus
	Method   PaymentMethod

	Notes         string
	ReferenceCode string // unique when set

	CreatedAt time.Time
}

// PaymentDraft is a payment before it is persisted.
type PaymentDraft struct {
	OwnerID       OwnerID
	TenantID      TenantID
	AssetID       AssetID
	Amount        generic.Money
	DueDate       time.Time
	PaidDate      *time.Time
	Method        PaymentMethod
	Notes         string
	ReferenceCode string
}

// =============================================================================
// ASSET / TENANT
// =============================================================================

type Asset struct {
	ID        AssetID
	OwnerID   OwnerID
	Name      string
	Address   string
	Status    string // "available", "occupied", "maintenance"
	CreatedAt time.Time
}

type Tenant struct {
	ID        TenantID
	OwnerID   OwnerID
	Name      string
	Email     string
	Phone     string
	Status    string // "active", "inactive"
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTION INPUTS / OUTPUTS
// =============================================================================

// CollectPaymentRequest records Payment against a lease. When LeaseID is
// set and DepositAmount is positive, that portion is also added to the
// lease's collected deposit in the same atomic unit.
type CollectPaymentRequest struct {
	Payment       PaymentDraft
	LeaseID       LeaseID
	DepositAmount generic.Money
}

// PaymentCollectionResult tells the caller whether lease state changed and
// needs re-fetching.
type PaymentCollectionResult struct {
	PaymentID                 PaymentID
	PaymentAmount             generic.Money
	PaymentStatus             PaymentStatus
	LeaseUpdated              bool
	NewDepositCollectedAmount generic.Money
}

// PeriodAdjustment is a refund or cancellation against one billing period.
type PeriodAdjustment struct {
	Type          AdjustmentType
	PeriodNumber  int
	Amount        generic.Money // positive; written to the ledger negated
	Reason        string
	ReferenceCode string
}

// ShrinkResult reports a frequency change. AdjustmentApplied is false for
// a no-op (the lease would drop below one period).
type ShrinkResult struct {
	OldFrequency      int
	NewFrequency      int
	NewEndDate        time.Time
	AdjustmentApplied bool
}
