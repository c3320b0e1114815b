/*
Package sqlite provides a SQLite-backed implementation of the lease store.

PURPOSE:
  Implements lease.TxStore and lease.SnapshotStore on SQLite. The same
  schema ports to PostgreSQL with minor dialect changes.

KEY TABLES:
  leases:            Lease terms, status, deposit state
  payments:          Append-only payment ledger (signed amounts)
  assets, tenants:   Directory records used for enrichment
  summary_snapshots: Portfolio summaries taken by the scheduler

ENCODING:
  Money is stored as decimal TEXT, never REAL, so amounts survive a round
  trip exactly. Instants are stored as fixed-width UTC text (timeLayout),
  which sorts chronologically.

INDEXES:
  - idx_payments_owner:     Portfolio loads (hot path)
  - idx_payments_reference: Reference-code idempotency (UNIQUE, non-null)
  - idx_leases_owner_start: Ordered lease listing

CONCURRENCY:
  The pool is capped at one connection. Every statement, and every
  transaction as a whole, runs on that connection in turn, which also keeps
  ":memory:" databases shared across calls. Inside WithTx only the passed
  store may be used; calling the parent Store from fn blocks.

WAL MODE:
  Opened with WAL for crash recovery and readers that don't block the
  writer when the pool is widened.

USAGE:
  store, err := sqlite.New("./data/leases.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := lease.NewService(store, logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - lease/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// timeLayout is RFC3339 with fixed nanosecond width, always UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements lease.TxStore and lease.SnapshotStore using SQLite.
type Store struct {
	ops
	db *sql.DB
}

var (
	_ lease.TxStore       = (*Store)(nil)
	_ lease.SnapshotStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{ops: ops{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		rent_amount TEXT NOT NULL,
		charge_period_minutes INTEGER NOT NULL,
		frequency INTEGER NOT NULL,
		deposit TEXT NOT NULL DEFAULT '0',
		deposit_collected_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		lease_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leases_owner_start
		ON leases(owner_id, start_date);

	-- Payments (append-only ledger; corrections are negative entries)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		lease_id TEXT,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		paid_date TEXT,
		status TEXT NOT NULL,
		method TEXT NOT NULL,
		notes TEXT,
		reference_code TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_owner
		ON payments(owner_id);
	CREATE INDEX IF NOT EXISTS idx_payments_tenant_asset
		ON payments(tenant_id, asset_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_reference
		ON payments(reference_code) WHERE reference_code IS NOT NULL;

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		status TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		status TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summary_snapshots (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		total_leases INTEGER NOT NULL,
		active_leases INTEGER NOT NULL,
		total_to_collect TEXT NOT NULL,
		overdue_amount TEXT NOT NULL,
		overdue_leases INTEGER NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_summary_snapshots_owner
		ON summary_snapshots(owner_id, taken_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (lease.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store lease.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txError("begin", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&ops{q: sqlTx}); err != nil {
		if isBusyError(err) {
			return fmt.Errorf("%w: %w", generic.ErrConcurrentModification, err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return txError("commit", err)
	}
	return nil
}

// txError marks lock contention as retryable; anything else failed outright.
func txError(stage string, err error) error {
	if isBusyError(err) {
		return fmt.Errorf("%w: %s: %v", generic.ErrConcurrentModification, stage, err)
	}
	return fmt.Errorf("%w: %s: %v", generic.ErrTransactionFailed, stage, err)
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

// SaveSnapshot persists a portfolio summary snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap lease.SummarySnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summary_snapshots
		(id, owner_id, taken_at, total_leases, active_leases, total_to_collect,
		 overdue_amount, overdue_leases, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.OwnerID, formatTime(snap.TakenAt),
		snap.Summary.TotalLeases, snap.Summary.ActiveLeases,
		snap.Summary.TotalToCollect.String(), snap.Summary.OverdueAmount.String(),
		snap.Summary.OverdueLeases, snap.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for owner, or nil.
func (s *Store) LatestSnapshot(ctx context.Context, owner lease.OwnerID) (*lease.SummarySnapshot, error) {
	var (
		snap          lease.SummarySnapshot
		takenAt       string
		toCollect     string
		overdueAmount string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, taken_at, total_leases, active_leases, total_to_collect,
		       overdue_amount, overdue_leases, reason
		FROM summary_snapshots
		WHERE owner_id = ?
		ORDER BY taken_at DESC
		LIMIT 1`, owner,
	).Scan(&snap.ID, &snap.OwnerID, &takenAt,
		&snap.Summary.TotalLeases, &snap.Summary.ActiveLeases, &toCollect,
		&overdueAmount, &snap.Summary.OverdueLeases, &snap.Reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap.TakenAt = parseTime(takenAt)
	snap.Summary.TotalToCollect = parseMoney(toCollect)
	snap.Summary.OverdueAmount = parseMoney(overdueAmount)
	return &snap, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"payments", "leases", "assets", "tenants", "summary_snapshots"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// OPS - statements shared by the pooled store and open transactions
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ops struct {
	q querier
}

const leaseColumns = `id, owner_id, tenant_id, asset_id, start_date, end_date, rent_amount,
	charge_period_minutes, frequency, deposit, deposit_collected_amount, status,
	lease_type, created_at, updated_at`

func (o *ops) ListOwners(ctx context.Context) ([]lease.OwnerID, error) {
	rows, err := o.q.QueryContext(ctx, `SELECT DISTINCT owner_id FROM leases ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query owners: %w", err)
	}
	defer rows.Close()

	var out []lease.OwnerID
	for rows.Next() {
		var id lease.OwnerID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (o *ops) ListLeases(ctx context.Context, owner lease.OwnerID) ([]lease.Lease, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT `+leaseColumns+` FROM leases WHERE owner_id = ? ORDER BY start_date ASC, id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query leases: %w", err)
	}
	defer rows.Close()

	var out []lease.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (o *ops) GetLease(ctx context.Context, id lease.LeaseID) (*lease.Lease, error) {
	row := o.q.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = ?`, id)
	l, err := scanLease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (o *ops) SaveLease(ctx context.Context, l lease.Lease) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO leases (`+leaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			tenant_id = excluded.tenant_id,
			asset_id = excluded.asset_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			rent_amount = excluded.rent_amount,
			charge_period_minutes = excluded.charge_period_minutes,
			frequency = excluded.frequency,
			deposit = excluded.deposit,
			deposit_collected_amount = excluded.deposit_collected_amount,
			status = excluded.status,
			lease_type = excluded.lease_type,
			updated_at = excluded.updated_at`,
		l.ID, l.OwnerID, l.TenantID, l.AssetID,
		formatTime(l.StartDate), formatTime(l.EndDate),
		l.RentAmount.String(), l.ChargePeriodMinutes, l.Frequency,
		l.Deposit.String(), l.DepositCollectedAmount.String(),
		l.Status, l.LeaseType,
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save lease: %w", err)
	}
	return nil
}

func (o *ops) DeleteLease(ctx context.Context, id lease.LeaseID) error {
	res, err := o.q.ExecContext(ctx, `DELETE FROM leases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lease: %w", err)
	}
	return expectRow(res, lease.ErrLeaseNotFound, string(id))
}

func (o *ops) UpdateLeaseSchedule(ctx context.Context, id lease.LeaseID, frequency int, endDate time.Time) error {
	res, err := o.q.ExecContext(ctx,
		`UPDATE leases SET frequency = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		frequency, formatTime(endDate), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update lease schedule: %w", err)
	}
	return expectRow(res, lease.ErrLeaseNotFound, string(id))
}

func (o *ops) UpdateDepositCollected(ctx context.Context, id lease.LeaseID, amount generic.Money) error {
	res, err := o.q.ExecContext(ctx,
		`UPDATE leases SET deposit_collected_amount = ?, updated_at = ? WHERE id = ?`,
		amount.String(), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	return expectRow(res, lease.ErrLeaseNotFound, string(id))
}

const paymentColumns = `id, owner_id, tenant_id, asset_id, lease_id, amount, due_date, paid_date,
	status, method, notes, reference_code, created_at`

func (o *ops) ListPayments(ctx context.Context, owner lease.OwnerID) ([]lease.Payment, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE owner_id = ? ORDER BY rowid ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []lease.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (o *ops) GetPayment(ctx context.Context, id lease.PaymentID) (*lease.Payment, error) {
	row := o.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (o *ops) AppendPayment(ctx context.Context, p lease.Payment) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.TenantID, p.AssetID, nullString(string(p.LeaseID)),
		p.Amount.String(), formatTime(p.DueDate), nullTime(p.PaidDate),
		p.Status, p.Method, nullString(p.Notes), nullString(p.ReferenceCode),
		formatTime(p.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateReference
		}
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

func (o *ops) UpdatePayment(ctx context.Context, p lease.Payment) error {
	res, err := o.q.ExecContext(ctx, `
		UPDATE payments SET amount = ?, due_date = ?, paid_date = ?, status = ?,
			method = ?, notes = ?, reference_code = ?
		WHERE id = ?`,
		p.Amount.String(), formatTime(p.DueDate), nullTime(p.PaidDate), p.Status,
		p.Method, nullString(p.Notes), nullString(p.ReferenceCode), p.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateReference
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return expectRow(res, lease.ErrPaymentNotFound, string(p.ID))
}

func (o *ops) DeletePayment(ctx context.Context, id lease.PaymentID) error {
	res, err := o.q.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return expectRow(res, lease.ErrPaymentNotFound, string(id))
}

func (o *ops) ReferenceExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := o.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE reference_code = ?", code,
	).Scan(&count)
	return count > 0, err
}

func (o *ops) ListAssets(ctx context.Context, owner lease.OwnerID) ([]lease.Asset, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT id, owner_id, name, address, status, created_at FROM assets WHERE owner_id = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var out []lease.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (o *ops) GetAsset(ctx context.Context, id lease.AssetID) (*lease.Asset, error) {
	a, err := scanAsset(o.q.QueryRowContext(ctx,
		`SELECT id, owner_id, name, address, status, created_at FROM assets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (o *ops) SaveAsset(ctx context.Context, a lease.Asset) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO assets (id, owner_id, name, address, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			status = excluded.status`,
		a.ID, a.OwnerID, a.Name, nullString(a.Address), nullString(a.Status), formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func (o *ops) ListTenants(ctx context.Context, owner lease.OwnerID) ([]lease.Tenant, error) {
	rows, err := o.q.QueryContext(ctx,
		`SELECT id, owner_id, name, email, phone, status, created_at FROM tenants WHERE owner_id = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var out []lease.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (o *ops) GetTenant(ctx context.Context, id lease.TenantID) (*lease.Tenant, error) {
	t, err := scanTenant(o.q.QueryRowContext(ctx,
		`SELECT id, owner_id, name, email, phone, status, created_at FROM tenants WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (o *ops) SaveTenant(ctx context.Context, t lease.Tenant) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO tenants (id, owner_id, name, email, phone, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			status = excluded.status`,
		t.ID, t.OwnerID, t.Name, nullString(t.Email), nullString(t.Phone), nullString(t.Status), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}

// =============================================================================
// SCANNING
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanLease(row scanner) (lease.Lease, error) {
	var (
		l                                lease.Lease
		start, end, createdAt, updatedAt string
		rent, deposit, depositCollected  string
	)
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.TenantID, &l.AssetID, &start, &end, &rent,
		&l.ChargePeriodMinutes, &l.Frequency, &deposit, &depositCollected,
		&l.Status, &l.LeaseType, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return l, err
		}
		return l, fmt.Errorf("failed to scan lease: %w", err)
	}
	l.StartDate = parseTime(start)
	l.EndDate = parseTime(end)
	l.RentAmount = parseMoney(rent)
	l.Deposit = parseMoney(deposit)
	l.DepositCollectedAmount = parseMoney(depositCollected)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return l, nil
}

func scanPayment(row scanner) (lease.Payment, error) {
	var (
		p                    lease.Payment
		leaseID              sql.NullString
		amount, due, created string
		paid                 sql.NullString
		notes, reference     sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.TenantID, &p.AssetID, &leaseID, &amount, &due, &paid,
		&p.Status, &p.Method, &notes, &reference, &created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan payment: %w", err)
	}
	p.LeaseID = lease.LeaseID(leaseID.String)
	p.Amount = parseMoney(amount)
	p.DueDate = parseTime(due)
	if paid.Valid {
		t := parseTime(paid.String)
		p.PaidDate = &t
	}
	p.Notes = notes.String
	p.ReferenceCode = reference.String
	p.CreatedAt = parseTime(created)
	return p, nil
}

func scanAsset(row scanner) (lease.Asset, error) {
	var (
		a               lease.Asset
		address, status sql.NullString
		createdAt       string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &address, &status, &createdAt); err != nil {
		return a, err
	}
	a.Address = address.String
	a.Status = status.String
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func scanTenant(row scanner) (lease.Tenant, error) {
	var (
		t                    lease.Tenant
		email, phone, status sql.NullString
		createdAt            string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &email, &phone, &status, &createdAt); err != nil {
		return t, err
	}
	t.Email = email.String
	t.Phone = phone.String
	t.Status = status.String
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseMoney(s string) generic.Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func expectRow(res sql.Result, notFound error, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

// isBusyError reports SQLITE_BUSY or SQLITE_LOCKED, raised when another
// connection holds the write lock past the busy timeout.
func isBusyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
