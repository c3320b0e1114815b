/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Lease create/get/update and lifecycle errors
- Payment collection with deposit, duplicate references
- Period adjustments and shrink
- Owner collections and summary with ?now=
- Error status mapping
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestRouter(t *testing.T) (*Handler, *chi.Mux) {
	t.Helper()
	h := setupTestHandler(t)
	return h, NewRouter(h, DefaultRouterOptions())
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const quarterLeaseJSON = `{
	"id": "lease-1",
	"owner_id": "owner-1",
	"tenant_id": "tenant-1",
	"asset_id": "asset-1",
	"start_date": "2024-01-01T00:00:00Z",
	"rent_amount": "1000",
	"charge_period_minutes": 43800,
	"frequency": 3,
	"deposit": "1000"
}`

func createQuarterLease(t *testing.T, router http.Handler) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/leases", quarterLeaseJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// LEASES
// =============================================================================

func TestCreateLease(t *testing.T) {
	_, router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/leases", quarterLeaseJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decode[LeaseDTO](t, rec)
	assert.Equal(t, "lease-1", dto.ID)
	assert.Equal(t, "active", dto.Status)
	assert.Equal(t, "730 hours", dto.ChargePeriodLabel)
	require.NotNil(t, dto.EndDate)

	rec = do(t, router, http.MethodGet, "/api/leases/lease-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/leases", quarterLeaseJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateLease_Invalid(t *testing.T) {
	_, router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/leases", `{"owner_id":"o","asset_id":"a","frequency":1,"charge_period_minutes":60}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "tenant_id")

	rec = do(t, router, http.MethodPost, "/api/leases", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLease_NotFound(t *testing.T) {
	_, router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/leases/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/leases/missing/collection", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateLease_KeepsStatusAndRejectsReactivation(t *testing.T) {
	_, router := newTestRouter(t)
	createQuarterLease(t, router)

	rec := do(t, router, http.MethodPost, "/api/leases/lease-1/terminate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "terminated", decode[LeaseDTO](t, rec).Status)

	// Status omitted: existing status kept, other fields replaced
	rec = do(t, router, http.MethodPut, "/api/leases/lease-1", `{
		"owner_id": "owner-1", "tenant_id": "tenant-1", "asset_id": "asset-1",
		"start_date": "2024-01-01T00:00:00Z", "rent_amount": "1100",
		"charge_period_minutes": 43800, "frequency": 3
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "terminated", decode[LeaseDTO](t, rec).Status)

	rec = do(t, router, http.MethodPut, "/api/leases/lease-1", `{
		"owner_id": "owner-1", "tenant_id": "tenant-1", "asset_id": "asset-1",
		"start_date": "2024-01-01T00:00:00Z", "rent_amount": "1100",
		"charge_period_minutes": 43800, "frequency": 3, "status": "active"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/leases/other", quarterLeaseJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// COLLECTIONS
// =============================================================================

func TestGetLeaseCollection_AsOf(t *testing.T) {
	// GIVEN: The quarter lease with 1000 collected
	// WHEN: Reading its collection at 2024-03-15
	// THEN: 2000 to collect, two overdue periods

	_, router := newTestRouter(t)
	createQuarterLease(t, router)

	rec := do(t, router, http.MethodPost, "/api/payments/collect", CollectPaymentRequest{
		LeaseID: "lease-1",
		Payment: PaymentDraftRequest{Amount: decimal.NewFromInt(1000), Method: "cash"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/leases/lease-1/collection?now=2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[LeaseCollectionDTO](t, rec)
	assert.Equal(t, 3, dto.CurrentPeriod)
	assert.True(t, dto.AmountToCollect.Equal(decimal.NewFromInt(2000)))
	assert.True(t, dto.PeriodsToCollect.Equal(decimal.NewFromInt(2)))
	require.Len(t, dto.Intervals, 3)
	assert.True(t, dto.Intervals[0].IsPaid)
	assert.True(t, dto.Intervals[1].IsOverdue)
	assert.Equal(t, "2024-03-15T00:00:00Z", dto.AsOf)

	rec = do(t, router, http.MethodGet, "/api/leases/lease-1/collection?now=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerEndpoints(t *testing.T) {
	_, router := newTestRouter(t)
	createQuarterLease(t, router)

	rec := do(t, router, http.MethodGet, "/api/owners/owner-1/summary?now=2024-03-15T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[SummaryDTO](t, rec)
	assert.Equal(t, 1, summary.TotalLeases)
	assert.Equal(t, 1, summary.ActiveLeases)
	assert.True(t, summary.TotalToCollect.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 1, summary.OverdueLeases)

	rec = do(t, router, http.MethodGet, "/api/owners/owner-1/collections?now=2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]LeaseCollectionDTO](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/owners/nobody/collections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]LeaseCollectionDTO](t, rec))

	rec = do(t, router, http.MethodGet, "/api/owners/owner-1/snapshots/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestCollectPayment_DepositSplit(t *testing.T) {
	// GIVEN: Lease with deposit 1000, none collected
	// WHEN: Collecting 500 with 200 toward the deposit
	// THEN: lease_updated and new deposit 200 in the response

	_, router := newTestRouter(t)
	createQuarterLease(t, router)

	rec := do(t, router, http.MethodPost, "/api/payments/collect", `{
		"lease_id": "lease-1",
		"payment": {"amount": "500", "method": "bank_transfer", "reference_code": "DEP-1"},
		"deposit_amount": "200"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[PaymentCollectionResultDTO](t, rec)
	assert.True(t, res.LeaseUpdated)
	assert.True(t, res.NewDepositCollectedAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, res.PaymentAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "paid", res.PaymentStatus)

	// Same reference again
	rec = do(t, router, http.MethodPost, "/api/payments/collect", `{
		"lease_id": "lease-1",
		"payment": {"amount": "500", "method": "bank_transfer", "reference_code": "DEP-1"},
		"deposit_amount": "200"
	}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/owners/owner-1/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payments := decode[[]PaymentDTO](t, rec)
	require.Len(t, payments, 1)
	assert.Equal(t, "tenant-1", payments[0].TenantID)
}

func TestCollectPayment_Rejected(t *testing.T) {
	_, router := newTestRouter(t)
	createQuarterLease(t, router)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing method", `{"lease_id":"lease-1","payment":{"amount":"10"}}`, http.StatusBadRequest},
		{"adjustment method", `{"lease_id":"lease-1","payment":{"amount":"10","method":"adjustment"}}`, http.StatusBadRequest},
		{"zero amount", `{"lease_id":"lease-1","payment":{"amount":"0","method":"cash"}}`, http.StatusBadRequest},
		{"deposit above amount", `{"lease_id":"lease-1","payment":{"amount":"10","method":"cash"},"deposit_amount":"20"}`, http.StatusBadRequest},
		{"unknown lease", `{"lease_id":"nope","payment":{"amount":"10","method":"cash"}}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/payments/collect", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// ADJUSTMENTS / SHRINK
// =============================================================================

func TestAdjustPeriodAndShrink(t *testing.T) {
	_, router := newTestRouter(t)
	createQuarterLease(t, router)

	rec := do(t, router, http.MethodPost, "/api/leases/lease-1/adjustments", AdjustPeriodRequest{
		Type:         "cancel",
		PeriodNumber: 3,
		Amount:       decimal.NewFromInt(1000),
		Reason:       "tenant moved out",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[PaymentDTO](t, rec)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(-1000)))
	assert.Equal(t, "cancelled", entry.Status)
	assert.Equal(t, "adjustment", entry.Method)

	rec = do(t, router, http.MethodPost, "/api/leases/lease-1/shrink", ShrinkRequest{PeriodNumber: 3, Type: "cancel"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	shrink := decode[ShrinkResultDTO](t, rec)
	assert.True(t, shrink.AdjustmentApplied)
	assert.Equal(t, 3, shrink.OldFrequency)
	assert.Equal(t, 2, shrink.NewFrequency)

	rec = do(t, router, http.MethodGet, "/api/leases/lease-1/collection?now=2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	collection := decode[LeaseCollectionDTO](t, rec)
	assert.True(t, collection.TotalPayments.IsZero())
	assert.True(t, collection.NetPayments.Equal(decimal.NewFromInt(-1000)))

	rec = do(t, router, http.MethodPost, "/api/leases/lease-1/adjustments", AdjustPeriodRequest{
		Type:         "refund",
		PeriodNumber: 3,
		Amount:       decimal.NewFromInt(10),
		Reason:       "after shrink period 3 no longer exists",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/leases/lease-1/shrink", `{"period_number":1,"type":"void"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// DIRECTORY / ADMIN / SCENARIOS
// =============================================================================

func TestCreateAssetAndTenant(t *testing.T) {
	h, router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/assets", CreateAssetRequest{OwnerID: "owner-1", Name: "Flat 2B"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	asset := decode[AssetDTO](t, rec)
	assert.NotEmpty(t, asset.ID)
	assert.Equal(t, "available", asset.Status)

	rec = do(t, router, http.MethodPost, "/api/tenants", CreateTenantRequest{ID: "tenant-1", OwnerID: "owner-1", Name: "Ada", Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/tenants", CreateTenantRequest{ID: "tenant-1", OwnerID: "owner-1", Name: "Ada", Email: "ada@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tenant, err := h.Store.GetTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, "active", tenant.Status)
}

func TestTriggerSweep(t *testing.T) {
	h, router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/admin/sweep", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	createQuarterLease(t, router)
	scheduler := NewLifecycleScheduler(h.Service, h.Logger)
	scheduler.Clock = func() time.Time { return mustTime("2024-06-01T00:00:00Z") }
	h.Sweep = scheduler.RunNow

	rec = do(t, router, http.MethodPost, "/api/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[SweepResultDTO](t, rec)
	assert.Equal(t, 1, res.Owners)
	assert.Equal(t, []string{"lease-1"}, res.Expired)
	assert.Equal(t, 1, res.Snapshots)

	rec = do(t, router, http.MethodGet, "/api/owners/owner-1/snapshots/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scheduled", decode[SnapshotDTO](t, rec).Reason)
}

func TestScenarioEndpoints(t *testing.T) {
	_, router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "quarter-behind"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quarter-behind", decode[ScenarioDTO](t, rec).ID)

	path := fmt.Sprintf("/api/owners/%s/summary?now=2024-03-15", DemoOwner)
	rec = do(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[SummaryDTO](t, rec).TotalToCollect.Equal(decimal.NewFromInt(2000)))
}

func TestHealthz(t *testing.T) {
	_, router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(generic.ErrDuplicateReference))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("wrap: %w", lease.ErrLeaseNotFound)))
	assert.Equal(t, http.StatusBadRequest, statusFor(&lease.ValidationError{Field: "amount", Message: "must be positive"}))
	assert.Equal(t, http.StatusBadRequest, statusFor(&lease.TransitionError{From: lease.StatusExpired, To: lease.StatusActive}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(fmt.Errorf("commit: %w", generic.ErrConcurrentModification)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk full")))
}
