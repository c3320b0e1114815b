/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built portfolios that populate the store with realistic
	data. Each scenario creates assets, tenants, leases and payments that
	demonstrate one behavior of the collection engine. Every scenario has a
	fixed "now" so its numbers are reproducible: query with ?now=<Now>.

AVAILABLE SCENARIOS:

	quarter-behind:    3 x ~1 month lease, one period paid, two owed
	deposit-split:     Payment with part of it applied to the deposit
	single-period:     One-period lease; shrinking it is a no-op
	mixed-portfolio:   Several leases: partial payments, refund, expired,
	                   terminated, zero-rent

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Create assets and tenants
 3. Create leases from JSON via the lease factory
 4. Record payments and adjustments through the service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "quarter-behind"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - factory/lease.go: Lease JSON definitions
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// DemoOwner owns every scenario record.
const DemoOwner lease.OwnerID = "demo-owner"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "quarter-behind",
		Name:        "Quarter Behind",
		Description: "Three ~1 month periods from Jan 1, one paid: 2 periods (2000) to collect",
		Category:    "collection",
		Now:         "2024-03-15T00:00:00Z",
	},
	{
		ID:          "deposit-split",
		Name:        "Deposit Split",
		Description: "Payment of 500 with 200 applied to a 1000 deposit",
		Category:    "deposit",
		Now:         "2024-03-15T00:00:00Z",
	},
	{
		ID:          "single-period",
		Name:        "Single Period",
		Description: "One-period lease; shrinking it leaves frequency unchanged",
		Category:    "adjustment",
		Now:         "2024-01-15T00:00:00Z",
	},
	{
		ID:          "mixed-portfolio",
		Name:        "Mixed Portfolio",
		Description: "Partial payments, a refund, expired and terminated leases, zero rent",
		Category:    "portfolio",
		Now:         "2024-06-10T00:00:00Z",
	},
}

type resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		h.writeServiceError(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

var errUnknownScenario = errors.New("unknown scenario")

// LoadScenarioByID resets the store and loads scenario id.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case "quarter-behind":
		load = h.loadQuarterBehindScenario
	case "deposit-split":
		load = h.loadDepositSplitScenario
	case "single-period":
		load = h.loadSinglePeriodScenario
	case "mixed-portfolio":
		load = h.loadMixedPortfolioScenario
	default:
		return fmt.Errorf("%w: %q", errUnknownScenario, id)
	}

	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	if err := rs.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	if err := load(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadQuarterBehindScenario(ctx context.Context) error {
	if err := h.seedParties(ctx, "unit-101", "tenant-ana"); err != nil {
		return err
	}
	if _, err := h.createLeaseFromJSON(ctx, leaseJSON("lease-q1", "tenant-ana", "unit-101",
		"2024-01-01T00:00:00Z", "1000", 43800, 3, "0")); err != nil {
		return err
	}
	return h.collect(ctx, "lease-q1", "1000", "0", "2024-01-03T10:00:00Z", "Q1-JAN")
}

func (h *Handler) loadDepositSplitScenario(ctx context.Context) error {
	if err := h.seedParties(ctx, "unit-102", "tenant-ben"); err != nil {
		return err
	}
	if _, err := h.createLeaseFromJSON(ctx, leaseJSON("lease-dep", "tenant-ben", "unit-102",
		"2024-01-01T00:00:00Z", "1000", 43800, 3, "1000")); err != nil {
		return err
	}
	return h.collect(ctx, "lease-dep", "500", "200", "2024-01-02T09:00:00Z", "DEP-1")
}

func (h *Handler) loadSinglePeriodScenario(ctx context.Context) error {
	if err := h.seedParties(ctx, "unit-103", "tenant-cara"); err != nil {
		return err
	}
	_, err := h.createLeaseFromJSON(ctx, fmt.Sprintf(`{
		"id": "lease-single",
		"owner_id": %q,
		"tenant_id": "tenant-cara",
		"asset_id": "unit-103",
		"start_date": "2024-01-01T00:00:00Z",
		"rent_amount": "750",
		"charge_period": {"value": 1, "unit": "months"},
		"frequency": 1
	}`, DemoOwner))
	return err
}

func (h *Handler) loadMixedPortfolioScenario(ctx context.Context) error {
	parties := [][2]string{
		{"unit-201", "tenant-dev"},
		{"unit-202", "tenant-eli"},
		{"unit-203", "tenant-fay"},
		{"unit-204", "tenant-gus"},
		{"unit-205", "tenant-hal"},
	}
	for _, p := range parties {
		if err := h.seedParties(ctx, lease.AssetID(p[0]), lease.TenantID(p[1])); err != nil {
			return err
		}
	}

	// Monthly lease, 12 periods, 2.5 periods paid.
	if _, err := h.createLeaseFromJSON(ctx, fmt.Sprintf(`{
		"id": "lease-monthly",
		"owner_id": %q,
		"tenant_id": "tenant-dev",
		"asset_id": "unit-201",
		"start_date": "2024-01-31T00:00:00Z",
		"rent_amount": "1200",
		"charge_period": {"value": 1, "unit": "months"},
		"frequency": 12,
		"deposit": "2400",
		"lease_type": "month_to_month"
	}`, DemoOwner)); err != nil {
		return err
	}
	for i, amt := range []string{"1200", "1200", "600"} {
		paid := fmt.Sprintf("2024-0%d-05T12:00:00Z", i+2)
		if err := h.collect(ctx, "lease-monthly", amt, "0", paid, fmt.Sprintf("MON-%d", i+1)); err != nil {
			return err
		}
	}

	// Weekly lease fully paid up to now, with period 2 partly refunded.
	if _, err := h.createLeaseFromJSON(ctx, fmt.Sprintf(`{
		"id": "lease-weekly",
		"owner_id": %q,
		"tenant_id": "tenant-eli",
		"asset_id": "unit-202",
		"start_date": "2024-05-20T00:00:00Z",
		"rent_amount": "300",
		"charge_period": {"value": 1, "unit": "weeks"},
		"frequency": 8
	}`, DemoOwner)); err != nil {
		return err
	}
	if err := h.collect(ctx, "lease-weekly", "1200", "0", "2024-05-20T08:00:00Z", "WK-1"); err != nil {
		return err
	}
	if _, err := h.Service.AdjustPeriod(ctx, "lease-weekly", lease.PeriodAdjustment{
		Type:          lease.AdjustRefund,
		PeriodNumber:  2,
		Amount:        generic.MustParseMoney("150"),
		Reason:        "Water outage for three days",
		ReferenceCode: "WK-ADJ-2",
	}); err != nil {
		return err
	}

	// Ended last year: expired by the sweep, excluded from totals.
	if _, err := h.createLeaseFromJSON(ctx, leaseJSON("lease-old", "tenant-fay", "unit-203",
		"2023-01-01T00:00:00Z", "900", 43800, 6, "0")); err != nil {
		return err
	}
	if _, err := h.Service.ExpireLeases(ctx, DemoOwner, mustTime("2024-06-10T00:00:00Z")); err != nil {
		return err
	}

	// Terminated early.
	if _, err := h.createLeaseFromJSON(ctx, leaseJSON("lease-term", "tenant-gus", "unit-204",
		"2024-03-01T00:00:00Z", "1100", 43800, 12, "0")); err != nil {
		return err
	}
	if _, err := h.Service.TerminateLease(ctx, "lease-term"); err != nil {
		return err
	}

	// Zero rent caretaker unit: active but never owes anything.
	_, err := h.createLeaseFromJSON(ctx, leaseJSON("lease-caretaker", "tenant-hal", "unit-205",
		"2024-01-01T00:00:00Z", "0", 43800, 24, "0"))
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

// leaseJSON renders a fixed-term lease definition with the charge period
// in raw minutes.
func leaseJSON(id, tenant, asset, start, rent string, periodMinutes int64, frequency int, deposit string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"owner_id": %q,
		"tenant_id": %q,
		"asset_id": %q,
		"start_date": %q,
		"rent_amount": %q,
		"charge_period_minutes": %d,
		"frequency": %d,
		"deposit": %q
	}`, id, DemoOwner, tenant, asset, start, rent, periodMinutes, frequency, deposit)
}

func (h *Handler) createLeaseFromJSON(ctx context.Context, jsonStr string) (lease.Lease, error) {
	l, err := h.LeaseFactory.ParseLease([]byte(jsonStr))
	if err != nil {
		return lease.Lease{}, err
	}
	return h.Service.SaveLease(ctx, l)
}

func (h *Handler) seedParties(ctx context.Context, asset lease.AssetID, tenant lease.TenantID) error {
	created := mustTime("2023-12-01T00:00:00Z")
	if err := h.Store.SaveAsset(ctx, lease.Asset{
		ID:        asset,
		OwnerID:   DemoOwner,
		Name:      "Unit " + string(asset),
		Address:   "12 Harbor Street",
		Status:    "occupied",
		CreatedAt: created,
	}); err != nil {
		return err
	}
	return h.Store.SaveTenant(ctx, lease.Tenant{
		ID:        tenant,
		OwnerID:   DemoOwner,
		Name:      "Tenant " + string(tenant),
		Email:     string(tenant) + "@example.com",
		Status:    "active",
		CreatedAt: created,
	})
}

func (h *Handler) collect(ctx context.Context, leaseID lease.LeaseID, amount, deposit, paidAt, ref string) error {
	paid := mustTime(paidAt)
	_, err := h.Service.CollectPayment(ctx, lease.CollectPaymentRequest{
		Payment: lease.PaymentDraft{
			Amount:        generic.MustParseMoney(amount),
			DueDate:       paid,
			PaidDate:      &paid,
			Method:        lease.MethodBankTransfer,
			ReferenceCode: ref,
		},
		LeaseID:       leaseID,
		DepositAmount: generic.MustParseMoney(deposit),
	})
	return err
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
