/*
scheduler.go - Lease lifecycle scheduler

PURPOSE:
  The engine never polls on its own. This scheduler is the periodic caller:
  on each tick it expires active leases whose end date has passed and, when
  the store supports it, records a summary snapshot per owner.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - A failure for one owner is logged and does not stop the others

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewLifecycleScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerSweep endpoint (manual run)
  - lease/service.go: ExpireLeases, RecordSnapshot
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/lease-engine/lease"
)

// SweepResult reports one scheduler pass.
type SweepResult struct {
	Owners    int
	Expired   []lease.LeaseID
	Snapshots int
	Errors    []error
}

// LifecycleScheduler handles automated lease expiry and snapshots.
type LifecycleScheduler struct {
	Service       *lease.Service
	Logger        *slog.Logger
	Clock         func() time.Time
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLifecycleScheduler creates a new scheduler.
func NewLifecycleScheduler(svc *lease.Service, logger *slog.Logger) *LifecycleScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleScheduler{
		Service:       svc,
		Logger:        logger.With(slog.String("component", "scheduler")),
		Clock:         func() time.Time { return time.Now().UTC() },
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (ls *LifecycleScheduler) Start() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.Enabled {
		ls.Logger.Info("disabled, not starting")
		return
	}
	if ls.ticker != nil {
		return
	}

	ls.ticker = time.NewTicker(ls.CheckInterval)
	ls.stop = make(chan struct{})
	ls.wg.Add(1)

	go ls.run()

	ls.Logger.Info("started", slog.Duration("interval", ls.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
func (ls *LifecycleScheduler) Stop() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ticker != nil {
		ls.ticker.Stop()
		close(ls.stop)
		ls.wg.Wait()
		ls.ticker = nil
		ls.Logger.Info("stopped")
	}
}

func (ls *LifecycleScheduler) run() {
	defer ls.wg.Done()

	ls.RunNow(context.Background())

	for {
		select {
		case <-ls.ticker.C:
			ls.RunNow(context.Background())
		case <-ls.stop:
			return
		}
	}
}

// RunNow performs one pass over every owner (for testing/admin).
func (ls *LifecycleScheduler) RunNow(ctx context.Context) SweepResult {
	now := ls.Clock()
	var res SweepResult

	owners, err := ls.Service.Store.ListOwners(ctx)
	if err != nil {
		ls.Logger.Error("list owners failed", slog.Any("error", err))
		res.Errors = append(res.Errors, err)
		return res
	}
	res.Owners = len(owners)

	for _, owner := range owners {
		expired, err := ls.Service.ExpireLeases(ctx, owner, now)
		if err != nil {
			ls.Logger.Error("expire leases failed", slog.String("owner_id", string(owner)), slog.Any("error", err))
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Expired = append(res.Expired, expired...)

		if ls.Service.Snapshots == nil {
			continue
		}
		if _, err := ls.Service.RecordSnapshot(ctx, owner, now, lease.SnapshotScheduled); err != nil {
			ls.Logger.Error("snapshot failed", slog.String("owner_id", string(owner)), slog.Any("error", err))
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Snapshots++
	}

	if len(res.Expired) > 0 || res.Snapshots > 0 {
		ls.Logger.Info("pass completed",
			slog.Int("owners", res.Owners),
			slog.Int("expired", len(res.Expired)),
			slog.Int("snapshots", res.Snapshots),
		)
	}
	return res
}

// NextRunTime returns when the next scheduled check will occur.
func (ls *LifecycleScheduler) NextRunTime() time.Time {
	return ls.Clock().Add(ls.CheckInterval)
}
