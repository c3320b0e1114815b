package lease

import (
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/generic"
)

// CollectionSummary is the portfolio roll-up of active leases.
type CollectionSummary struct {
	TotalLeases    int // every entry passed in
	ActiveLeases   int
	TotalToCollect generic.Money
	OverdueAmount  generic.Money
	OverdueLeases  int // active leases with at least one overdue period
}

// ComputeSummary aggregates collection data. Only active entries
// contribute to the money totals and the overdue count; each lease is
// counted once however many periods it has overdue.
func ComputeSummary(dataList []CollectionData) CollectionSummary {
	summary := CollectionSummary{
		TotalLeases:    len(dataList),
		TotalToCollect: decimal.Zero,
		OverdueAmount:  decimal.Zero,
	}

	for _, d := range dataList {
		if !d.IsActive {
			continue
		}
		summary.ActiveLeases++
		summary.TotalToCollect = summary.TotalToCollect.Add(d.AmountToCollect)

		overdue := d.OverdueAmount()
		summary.OverdueAmount = summary.OverdueAmount.Add(overdue)
		if overdue.IsPositive() {
			summary.OverdueLeases++
		}
	}
	return summary
}
