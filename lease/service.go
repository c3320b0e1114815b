/*
service.go - Transactional lease operations

PURPOSE:
  The only entry points that change persisted state. Each operation runs
  as one WithTx unit against the store; the calculator is re-run by the
  caller afterwards against fresh data.

OPERATIONS:
  CollectPayment:     paid ledger entry (+ optional deposit collection)
  AdjustPeriod:       negative refund/cancel entry for one period
  ShrinkLeasePeriods: lower frequency, recompute end date
  SaveLease:          validated insert/replace with end date recomputed
  TerminateLease:     active/pending -> terminated
  ExpireLeases:       active leases past their end date -> expired

READ OPERATIONS:
  CollectionData, Portfolio load snapshots from the store and call the
  pure calculator and aggregator.

ERRORS:
  Input problems return *ValidationError (errors.Is ErrValidation) before
  anything is written. Store errors are wrapped and returned; nothing is
  retried here.

SEE ALSO:
  - collection.go, summary.go: pure derivations
  - store.go: the transactional boundary
*/
package lease

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/lease-engine/generic"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store     TxStore
	Snapshots SnapshotStore // nil disables snapshots
	Logger    *slog.Logger
	Clock     func() time.Time
}

// NewService creates a service over store. If store also implements
// SnapshotStore, snapshots are enabled.
func NewService(store TxStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		Store:  store,
		Logger: logger,
		Clock:  func() time.Time { return time.Now().UTC() },
	}
	if ss, ok := store.(SnapshotStore); ok {
		svc.Snapshots = ss
	}
	return svc
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock()
}

func newID() string { return uuid.NewString() }

func loadLease(ctx context.Context, store LeaseStore, id LeaseID) (*Lease, error) {
	l, err := store.GetLease(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load lease %s: %w", id, err)
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrLeaseNotFound, id)
	}
	return l, nil
}

// =============================================================================
// PAYMENT COLLECTION
// =============================================================================

// CollectPayment persists req.Payment as a paid ledger entry. When
// req.LeaseID is set and req.DepositAmount is positive, the lease's
// collected deposit grows by that amount, clamped to the lease deposit.
//
// The insert and the deposit update commit together or not at all.
func (s *Service) CollectPayment(ctx context.Context, req CollectPaymentRequest) (PaymentCollectionResult, error) {
	if req.DepositAmount.IsNegative() {
		return PaymentCollectionResult{}, invalid("deposit_amount", "must not be negative")
	}

	var result PaymentCollectionResult
	err := s.Store.WithTx(ctx, func(tx Store) error {
		draft := req.Payment

		var l *Lease
		if req.LeaseID != "" {
			var err error
			if l, err = loadLease(ctx, tx, req.LeaseID); err != nil {
				return err
			}
			if err := fillFromLease(&draft, *l); err != nil {
				return err
			}
		}
		if err := draft.Validate(); err != nil {
			return err
		}
		if req.DepositAmount.GreaterThan(draft.Amount) {
			return invalid("deposit_amount", "exceeds payment amount %s", draft.Amount)
		}

		now := s.now()
		paidDate := draft.PaidDate
		if paidDate == nil {
			paidDate = &now
		}
		dueDate := draft.DueDate
		if dueDate.IsZero() {
			dueDate = *paidDate
		}

		p := Payment{
			ID:            PaymentID(newID()),
			OwnerID:       draft.OwnerID,
			TenantID:      draft.TenantID,
			AssetID:       draft.AssetID,
			LeaseID:       req.LeaseID,
			Amount:        draft.Amount,
			DueDate:       dueDate,
			PaidDate:      paidDate,
			Status:        PaymentPaid,
			Method:        draft.Method,
			Notes:         draft.Notes,
			ReferenceCode: draft.ReferenceCode,
			CreatedAt:     now,
		}
		if err := NewPaymentLedger(tx).Append(ctx, p); err != nil {
			return err
		}

		result = PaymentCollectionResult{
			PaymentID:                 p.ID,
			PaymentAmount:             p.Amount,
			PaymentStatus:             p.Status,
			NewDepositCollectedAmount: decimal.Zero,
		}
		if l == nil {
			return nil
		}

		result.NewDepositCollectedAmount = l.DepositCollectedAmount
		if !req.DepositAmount.IsPositive() {
			return nil
		}
		credited := generic.ClampMoney(req.DepositAmount, decimal.Zero, l.DepositOutstanding())
		if credited.IsZero() {
			return nil
		}
		collected := l.DepositCollectedAmount.Add(credited)
		if err := tx.UpdateDepositCollected(ctx, l.ID, collected); err != nil {
			return fmt.Errorf("update deposit for lease %s: %w", l.ID, err)
		}
		result.LeaseUpdated = true
		result.NewDepositCollectedAmount = collected
		return nil
	})
	if err != nil {
		return PaymentCollectionResult{}, err
	}

	s.Logger.Info("payment collected",
		slog.String("payment_id", string(result.PaymentID)),
		slog.String("lease_id", string(req.LeaseID)),
		slog.String("amount", result.PaymentAmount.String()),
		slog.Bool("lease_updated", result.LeaseUpdated),
	)
	return result, nil
}

// fillFromLease defaults the draft's parties from the lease and rejects a
// draft addressed to a different tenant or asset.
func fillFromLease(d *PaymentDraft, l Lease) error {
	if d.OwnerID == "" {
		d.OwnerID = l.OwnerID
	}
	if d.TenantID == "" {
		d.TenantID = l.TenantID
	}
	if d.AssetID == "" {
		d.AssetID = l.AssetID
	}
	if d.TenantID != l.TenantID {
		return invalid("tenant_id", "does not match lease %s", l.ID)
	}
	if d.AssetID != l.AssetID {
		return invalid("asset_id", "does not match lease %s", l.ID)
	}
	return nil
}

// =============================================================================
// PERIOD ADJUSTMENT
// =============================================================================

// AdjustPeriod appends a refund or cancellation for one billing period.
// The entry is negative, uses method adjustment and records period, type
// and reason in its notes. Existing entries and the lease are untouched.
func (s *Service) AdjustPeriod(ctx context.Context, leaseID LeaseID, adj PeriodAdjustment) (*Payment, error) {
	var entry Payment
	err := s.Store.WithTx(ctx, func(tx Store) error {
		l, err := loadLease(ctx, tx, leaseID)
		if err != nil {
			return err
		}
		if err := adj.Validate(*l); err != nil {
			return err
		}

		now := s.now()
		entry = Payment{
			ID:            PaymentID(newID()),
			OwnerID:       l.OwnerID,
			TenantID:      l.TenantID,
			AssetID:       l.AssetID,
			LeaseID:       l.ID,
			Amount:        adj.Amount.Neg(),
			DueDate:       l.Schedule().Boundary(adj.PeriodNumber - 1),
			PaidDate:      &now,
			Status:        adj.Type.PaymentStatus(),
			Method:        MethodAdjustment,
			Notes:         AdjustmentNote(adj),
			ReferenceCode: adj.ReferenceCode,
			CreatedAt:     now,
		}
		return NewPaymentLedger(tx).Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("period adjusted",
		slog.String("lease_id", string(leaseID)),
		slog.Int("period", adj.PeriodNumber),
		slog.String("type", string(adj.Type)),
		slog.String("amount", entry.Amount.String()),
	)
	return &entry, nil
}

// AdjustmentNote is the audit text stored on an adjustment entry.
func AdjustmentNote(adj PeriodAdjustment) string {
	return fmt.Sprintf("Period %d %s: %s", adj.PeriodNumber, adj.Type, strings.TrimSpace(adj.Reason))
}

// =============================================================================
// PERIOD SHRINK
// =============================================================================

// ShrunkFrequency is the frequency left after adjusting periodNumber.
//
//	cancel: the schedule stops before the cancelled period (periodNumber-1)
//	refund: one period is dropped from the tail (frequency-1)
func ShrunkFrequency(frequency, periodNumber int, t AdjustmentType) int {
	if t == AdjustCancel {
		return periodNumber - 1
	}
	return frequency - 1
}

// ShrinkLeasePeriods lowers the lease frequency per ShrunkFrequency and
// recomputes its end date. A result below one period (or no reduction at
// all) is a no-op reported with AdjustmentApplied false, not an error.
func (s *Service) ShrinkLeasePeriods(ctx context.Context, leaseID LeaseID, periodNumber int, t AdjustmentType) (ShrinkResult, error) {
	if !t.Valid() {
		return ShrinkResult{}, invalid("type", "must be refund or cancel")
	}

	var result ShrinkResult
	err := s.Store.WithTx(ctx, func(tx Store) error {
		l, err := loadLease(ctx, tx, leaseID)
		if err != nil {
			return err
		}
		if periodNumber < 1 || periodNumber > l.Frequency {
			return invalid("period_number", "must be between 1 and %d", l.Frequency)
		}

		result = ShrinkResult{
			OldFrequency: l.Frequency,
			NewFrequency: l.Frequency,
			NewEndDate:   l.EndDate,
		}
		next := ShrunkFrequency(l.Frequency, periodNumber, t)
		if next < 1 || next >= l.Frequency {
			return nil
		}

		shrunk := *l
		shrunk.Frequency = next
		if err := shrunk.RecomputeEndDate(); err != nil {
			return err
		}
		if err := tx.UpdateLeaseSchedule(ctx, l.ID, shrunk.Frequency, shrunk.EndDate); err != nil {
			return fmt.Errorf("update schedule for lease %s: %w", l.ID, err)
		}
		result.NewFrequency = shrunk.Frequency
		result.NewEndDate = shrunk.EndDate
		result.AdjustmentApplied = true
		return nil
	})
	if err != nil {
		return ShrinkResult{}, err
	}

	if !result.AdjustmentApplied {
		s.Logger.Info("lease shrink skipped: would leave fewer than 1 period",
			slog.String("lease_id", string(leaseID)),
			slog.Int("frequency", result.OldFrequency),
		)
		return result, nil
	}
	s.Logger.Info("lease periods shrunk",
		slog.String("lease_id", string(leaseID)),
		slog.Int("old_frequency", result.OldFrequency),
		slog.Int("new_frequency", result.NewFrequency),
	)
	return result, nil
}

// =============================================================================
// LEASE LIFECYCLE
// =============================================================================

// SaveLease validates l, recomputes its end date and persists it. New
// leases get an ID; updates must respect the status lifecycle.
func (s *Service) SaveLease(ctx context.Context, l Lease) (Lease, error) {
	now := s.now()
	if l.Status == "" {
		l.Status = StatusActive
	}
	if l.LeaseType == "" {
		l.LeaseType = TypeFixedTerm
	}
	if err := l.Validate(); err != nil {
		return Lease{}, err
	}
	if err := l.RecomputeEndDate(); err != nil {
		return Lease{}, err
	}

	err := s.Store.WithTx(ctx, func(tx Store) error {
		if l.ID == "" {
			l.ID = LeaseID(newID())
			l.CreatedAt = now
		} else {
			existing, err := tx.GetLease(ctx, l.ID)
			if err != nil {
				return fmt.Errorf("load lease %s: %w", l.ID, err)
			}
			if existing != nil {
				if !CanTransition(existing.Status, l.Status) {
					return &TransitionError{LeaseID: l.ID, From: existing.Status, To: l.Status}
				}
				l.CreatedAt = existing.CreatedAt
			} else {
				l.CreatedAt = now
			}
		}
		l.UpdatedAt = now
		return tx.SaveLease(ctx, l)
	})
	if err != nil {
		return Lease{}, err
	}
	return l, nil
}

// TerminateLease moves a lease to terminated.
func (s *Service) TerminateLease(ctx context.Context, id LeaseID) (Lease, error) {
	var out Lease
	err := s.Store.WithTx(ctx, func(tx Store) error {
		l, err := loadLease(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := l.Transition(StatusTerminated); err != nil {
			return err
		}
		l.UpdatedAt = s.now()
		out = *l
		return tx.SaveLease(ctx, out)
	})
	return out, err
}

// ExpireLeases marks the owner's active leases whose end date is at or
// before now as expired. Returns the IDs it changed.
func (s *Service) ExpireLeases(ctx context.Context, owner OwnerID, now time.Time) ([]LeaseID, error) {
	var expired []LeaseID
	err := s.Store.WithTx(ctx, func(tx Store) error {
		leases, err := tx.ListLeases(ctx, owner)
		if err != nil {
			return err
		}
		for _, l := range leases {
			if l.Status != StatusActive || l.EndDate.After(now) {
				continue
			}
			if err := l.Transition(StatusExpired); err != nil {
				return err
			}
			l.UpdatedAt = now
			if err := tx.SaveLease(ctx, l); err != nil {
				return fmt.Errorf("expire lease %s: %w", l.ID, err)
			}
			expired = append(expired, l.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		s.Logger.Info("leases expired", slog.String("owner_id", string(owner)), slog.Int("count", len(expired)))
	}
	return expired, nil
}

// =============================================================================
// READS
// =============================================================================

// CollectionData loads one lease with its payments and computes its state.
func (s *Service) CollectionData(ctx context.Context, id LeaseID, now time.Time) (CollectionData, error) {
	l, err := loadLease(ctx, s.Store, id)
	if err != nil {
		return CollectionData{}, err
	}
	payments, err := s.Store.ListPayments(ctx, l.OwnerID)
	if err != nil {
		return CollectionData{}, fmt.Errorf("list payments: %w", err)
	}
	asset, err := s.Store.GetAsset(ctx, l.AssetID)
	if err != nil {
		return CollectionData{}, fmt.Errorf("get asset: %w", err)
	}
	tenant, err := s.Store.GetTenant(ctx, l.TenantID)
	if err != nil {
		return CollectionData{}, fmt.Errorf("get tenant: %w", err)
	}
	return ComputeCollectionData(*l, payments, asset, tenant, now), nil
}

// Portfolio is every lease of an owner with its collection state.
type Portfolio struct {
	OwnerID     OwnerID
	AsOf        time.Time
	Collections []CollectionData
	Summary     CollectionSummary
}

// Portfolio loads the owner's leases, payments, assets and tenants
// concurrently and derives collection data and the summary.
func (s *Service) Portfolio(ctx context.Context, owner OwnerID, now time.Time) (Portfolio, error) {
	var (
		leases   []Lease
		payments []Payment
		assets   []Asset
		tenants  []Tenant
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		leases, err = s.Store.ListLeases(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.Store.ListPayments(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		assets, err = s.Store.ListAssets(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		tenants, err = s.Store.ListTenants(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return Portfolio{}, fmt.Errorf("load portfolio %s: %w", owner, err)
	}

	assetByID := make(map[AssetID]*Asset, len(assets))
	for i := range assets {
		assetByID[assets[i].ID] = &assets[i]
	}
	tenantByID := make(map[TenantID]*Tenant, len(tenants))
	for i := range tenants {
		tenantByID[tenants[i].ID] = &tenants[i]
	}

	collections := make([]CollectionData, len(leases))
	for i, l := range leases {
		collections[i] = ComputeCollectionData(l, payments, assetByID[l.AssetID], tenantByID[l.TenantID], now)
	}

	return Portfolio{
		OwnerID:     owner,
		AsOf:        now,
		Collections: collections,
		Summary:     ComputeSummary(collections),
	}, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// RecordSnapshot computes the owner's summary at now and persists it.
func (s *Service) RecordSnapshot(ctx context.Context, owner OwnerID, now time.Time, reason SnapshotReason) (*SummarySnapshot, error) {
	if s.Snapshots == nil {
		return nil, fmt.Errorf("snapshots: %w", generic.ErrNotFound)
	}
	p, err := s.Portfolio(ctx, owner, now)
	if err != nil {
		return nil, err
	}
	snap := SummarySnapshot{
		ID:      newID(),
		OwnerID: owner,
		TakenAt: now,
		Summary: p.Summary,
		Reason:  reason,
	}
	if err := s.Snapshots.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return &snap, nil
}

// LatestSnapshot returns the most recent snapshot, or nil if none.
func (s *Service) LatestSnapshot(ctx context.Context, owner OwnerID) (*SummarySnapshot, error) {
	if s.Snapshots == nil {
		return nil, nil
	}
	return s.Snapshots.LatestSnapshot(ctx, owner)
}
