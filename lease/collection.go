/*
collection.go - Per-lease collection reconciliation

PURPOSE:
  Combines a lease, its generated billing intervals and the recorded
  payments into per-period status and the amount currently owed.

KEY INSIGHT:
  Payments are not tagged to periods. Only the running total of cleared
  payments matters, and it fills periods sequentially from period 1:

    totalPeriodsPaid = totalPayments / rentAmount     (fixed-point)
    period n is paid  <=> n <= totalPeriodsPaid

  A partial payment never marks a period paid until the cumulative total
  reaches that period's threshold.

INCURRED:
  A period is incurred from its start instant. A "now" in the middle of a
  period makes it incurred immediately; there is no proration.

ZERO RENT:
  rentAmount == 0 covers zero periods (no division). Nothing is owed
  because amountToCollect = periodsToCollect * 0.

EXAMPLE:
  rent 1000, 3 periods of 730h from 2024-01-01, now 2024-03-15,
  payments 1000:
    currentPeriod    = 3
    totalPeriodsPaid = 1
    periodsToCollect = 2
    amountToCollect  = 2000

SEE ALSO:
  - summary.go: Rolls CollectionData up to portfolio totals
  - generic/period.go: Interval generation
*/
package lease

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/generic"
)

// =============================================================================
// COLLECTION INTERVAL
// =============================================================================

// CollectionInterval is one billing period with its derived status.
type CollectionInterval struct {
	PeriodNumber int // 1-based
	StartDate    time.Time
	EndDate      time.Time // exclusive
	IsIncurred   bool
	IsPaid       bool
	Amount       generic.Money
}

// IsOverdue reports an incurred, unpaid period with something to pay.
func (ci CollectionInterval) IsOverdue() bool {
	return ci.IsIncurred && !ci.IsPaid && ci.Amount.IsPositive()
}

// =============================================================================
// COLLECTION DATA
// =============================================================================

// CollectionData is the derived collection state of one lease.
type CollectionData struct {
	Lease  Lease
	Tenant *Tenant
	Asset  *Asset

	Intervals []CollectionInterval

	TotalPayments    generic.Money
	NetPayments      generic.Money // paid plus signed refunds and cancellations
	TotalPeriodsPaid decimal.Decimal
	CurrentPeriod    int // highest started period, 0 if none
	PeriodsToCollect decimal.Decimal
	AmountToCollect  generic.Money
	IsActive         bool
}

// Interval returns period n.
func (d CollectionData) Interval(n int) (CollectionInterval, bool) {
	if n < 1 || n > len(d.Intervals) {
		return CollectionInterval{}, false
	}
	return d.Intervals[n-1], true
}

// OverdueIntervals returns incurred, unpaid periods.
func (d CollectionData) OverdueIntervals() []CollectionInterval {
	var out []CollectionInterval
	for _, iv := range d.Intervals {
		if iv.IsOverdue() {
			out = append(out, iv)
		}
	}
	return out
}

// OverdueAmount sums the amounts of overdue periods.
func (d CollectionData) OverdueAmount() generic.Money {
	total := decimal.Zero
	for _, iv := range d.OverdueIntervals() {
		total = total.Add(iv.Amount)
	}
	return total
}

// =============================================================================
// CALCULATOR
// =============================================================================

// ComputeCollectionData derives the collection state of l at now.
//
// Pure: no I/O, no wall clock. Payments for other tenants or assets and
// payments not in paid status are ignored. A lease whose schedule cannot be
// generated yields no intervals and nothing to collect.
func ComputeCollectionData(l Lease, payments []Payment, asset *Asset, tenant *Tenant, now time.Time) CollectionData {
	data := CollectionData{
		Lease:    l,
		Tenant:   tenant,
		Asset:    asset,
		IsActive: l.IsActiveAt(now),
	}

	intervals, _ := l.Schedule().Intervals()

	data.TotalPayments = PaidTotal(payments, l.TenantID, l.AssetID)
	data.NetPayments = NetTotal(payments, l.TenantID, l.AssetID)
	data.TotalPeriodsPaid = generic.PeriodsCovered(data.TotalPayments, l.RentAmount)
	data.CurrentPeriod = generic.CountStarted(intervals, now)

	data.Intervals = make([]CollectionInterval, len(intervals))
	for i, iv := range intervals {
		n := i + 1
		data.Intervals[i] = CollectionInterval{
			PeriodNumber: n,
			StartDate:    iv.Start,
			EndDate:      iv.End,
			IsIncurred:   iv.HasStarted(now),
			IsPaid:       decimal.NewFromInt(int64(n)).LessThanOrEqual(data.TotalPeriodsPaid),
			Amount:       l.RentAmount,
		}
	}

	incurred := decimal.NewFromInt(int64(data.CurrentPeriod))
	data.PeriodsToCollect = generic.NonNegative(incurred.Sub(data.TotalPeriodsPaid))

	// periodsToCollect * rent, computed as incurred rent minus payments so a
	// repeating ratio (1000/3) does not leak rounding into the amount.
	data.AmountToCollect = decimal.Zero
	if l.RentAmount.IsPositive() {
		data.AmountToCollect = generic.NonNegative(incurred.Mul(l.RentAmount).Sub(data.TotalPayments))
	}

	return data
}
