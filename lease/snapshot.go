package lease

import "time"

// SummarySnapshot freezes a portfolio summary at a point in time, for
// trend display. Snapshots are never read back into the calculator.
type SummarySnapshot struct {
	ID      string
	OwnerID OwnerID
	TakenAt time.Time
	Summary CollectionSummary
	Reason  SnapshotReason
}

type SnapshotReason string

const (
	SnapshotScheduled SnapshotReason = "scheduled" // Periodic scheduler run
	SnapshotManual    SnapshotReason = "manual"    // Operator triggered
)
