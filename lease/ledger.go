/*
ledger.go - Append-only payment ledger

PURPOSE:
  Payments are the source of truth for what has been collected. Amounts
  owed are always derived by replaying the ledger; there is no "balance"
  column that can drift out of sync.

CRITICAL INVARIANTS:
  1. Entries are never edited to change their economic meaning
  2. Corrections are new signed entries (refund / cancel, negative amount)
  3. A non-empty reference code identifies one entry (idempotent retries)

EXAMPLE FLOW:
  1. Rent collected for period 2:     +1000 paid
  2. Period 2 partially refunded:      -300 refunded  (method adjustment)

  Both entries remain; the refund carries the period number and reason in
  its notes.

SEE ALSO:
  - store.go: PaymentStore persistence interface
  - service.go: The operations that append entries
*/
package lease

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/generic"
)

// PaymentLedger guards appends with reference-code uniqueness.
type PaymentLedger struct {
	Store PaymentStore
}

func NewPaymentLedger(store PaymentStore) *PaymentLedger {
	return &PaymentLedger{Store: store}
}

// Append adds an entry. Fails with ErrDuplicateReference if the reference
// code is already used.
func (l *PaymentLedger) Append(ctx context.Context, p Payment) error {
	if p.ReferenceCode != "" {
		exists, err := l.Store.ReferenceExists(ctx, p.ReferenceCode)
		if err != nil {
			return err
		}
		if exists {
			return generic.ErrDuplicateReference
		}
	}
	return l.Store.AppendPayment(ctx, p)
}

// Payments returns every entry of an owner.
func (l *PaymentLedger) Payments(ctx context.Context, owner OwnerID) ([]Payment, error) {
	return l.Store.ListPayments(ctx, owner)
}

// =============================================================================
// PURE HELPERS
// =============================================================================

// ForTenantAsset filters entries to one tenant and asset.
func ForTenantAsset(payments []Payment, tenant TenantID, asset AssetID) []Payment {
	var out []Payment
	for _, p := range payments {
		if p.TenantID == tenant && p.AssetID == asset {
			out = append(out, p)
		}
	}
	return out
}

// PaidTotal sums paid entries for tenant and asset. Refunds, cancellations
// and pending entries are excluded.
func PaidTotal(payments []Payment, tenant TenantID, asset AssetID) generic.Money {
	total := decimal.Zero
	for _, p := range ForTenantAsset(payments, tenant, asset) {
		if p.Status == PaymentPaid {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// NetTotal sums settled entries (paid, refunded, cancelled) for tenant and
// asset, giving the net cash position after corrections. Pending and
// overdue entries are excluded.
func NetTotal(payments []Payment, tenant TenantID, asset AssetID) generic.Money {
	total := decimal.Zero
	for _, p := range ForTenantAsset(payments, tenant, asset) {
		if p.Status == PaymentPaid || p.Status == PaymentRefunded || p.Status == PaymentCancelled {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Adjustments returns correcting entries, oldest first as stored.
func Adjustments(payments []Payment) []Payment {
	var out []Payment
	for _, p := range payments {
		if p.Method == MethodAdjustment {
			out = append(out, p)
		}
	}
	return out
}
