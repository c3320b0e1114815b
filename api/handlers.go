/*
handlers.go - HTTP API handlers for the lease collection engine

PURPOSE:
  Exposes the collection engine via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to lease.Service.

ENDPOINTS:
  Owners:
    GET    /api/owners/{owner}/collections      Collection data for every lease
    GET    /api/owners/{owner}/summary          Portfolio summary
    GET    /api/owners/{owner}/snapshots/latest Last persisted summary
    GET    /api/owners/{owner}/payments         Payment ledger

  Leases:
    POST   /api/leases                          Create lease
    GET    /api/leases/{id}                     Get lease
    PUT    /api/leases/{id}                     Replace lease
    GET    /api/leases/{id}/collection          Collection data
    POST   /api/leases/{id}/terminate           Terminate
    POST   /api/leases/{id}/adjustments         Refund/cancel a period
    POST   /api/leases/{id}/shrink              Drop periods

  Payments:
    POST   /api/payments/collect                Record a payment

  Directory:
    POST   /api/assets, POST /api/tenants

  Admin:
    POST   /api/admin/sweep                     Expire leases + snapshot now

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario

AS-OF TIME:
  Read endpoints accept ?now=<RFC3339 or YYYY-MM-DD>. Without it the
  handler clock is used.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Lease or payment not found
  - 409: Duplicate reference code
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service      *lease.Service
	Store        lease.TxStore
	LeaseFactory *factory.LeaseFactory
	Logger       *slog.Logger
	Clock        func() time.Time

	// Sweep is set when a scheduler is running; nil disables /admin/sweep.
	Sweep func(ctx context.Context) SweepResult

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over svc.
func NewHandler(svc *lease.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service:      svc,
		Store:        svc.Store,
		LeaseFactory: factory.NewLeaseFactory(),
		Logger:       logger,
		Clock:        func() time.Time { return time.Now().UTC() },
		validate:     validator.New(),
	}
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now().UTC()
	}
	return h.Clock()
}

// asOf reads ?now= or falls back to the handler clock.
func (h *Handler) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return h.now(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("now must be RFC3339 or YYYY-MM-DD: %q", raw)
	}
	return t, nil
}

// =============================================================================
// OWNER HANDLERS
// =============================================================================

// ListCollections returns collection data for every lease of an owner.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	owner := lease.OwnerID(chi.URLParam(r, "owner"))
	now, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid now parameter", err)
		return
	}

	p, err := h.Service.Portfolio(r.Context(), owner, now)
	if err != nil {
		h.writeServiceError(w, "Failed to load collections", err)
		return
	}

	dtos := make([]LeaseCollectionDTO, len(p.Collections))
	for i, d := range p.Collections {
		dtos[i] = toCollectionDTO(h.LeaseFactory, d, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSummary returns the portfolio summary of an owner.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	owner := lease.OwnerID(chi.URLParam(r, "owner"))
	now, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid now parameter", err)
		return
	}

	p, err := h.Service.Portfolio(r.Context(), owner, now)
	if err != nil {
		h.writeServiceError(w, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(owner, p.Summary, now))
}

// GetLatestSnapshot returns the last persisted summary of an owner.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := lease.OwnerID(chi.URLParam(r, "owner"))

	snap, err := h.Service.LatestSnapshot(r.Context(), owner)
	if err != nil {
		h.writeServiceError(w, "Failed to load snapshot", err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "No snapshot recorded", nil)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotDTO{
		ID:      snap.ID,
		TakenAt: formatTime(snap.TakenAt),
		Reason:  string(snap.Reason),
		Summary: toSummaryDTO(snap.OwnerID, snap.Summary, snap.TakenAt),
	})
}

// ListPayments returns the payment ledger of an owner.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	owner := lease.OwnerID(chi.URLParam(r, "owner"))

	payments, err := lease.NewPaymentLedger(h.Store).Payments(r.Context(), owner)
	if err != nil {
		h.writeServiceError(w, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEASE HANDLERS
// =============================================================================

// CreateLease creates a lease from a factory.LeaseJSON body.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var req factory.LeaseJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	l, err := h.LeaseFactory.FromJSON(req)
	if err != nil {
		h.writeServiceError(w, "Invalid lease", err)
		return
	}
	if l.ID != "" {
		existing, err := h.Store.GetLease(r.Context(), l.ID)
		if err != nil {
			h.writeServiceError(w, "Failed to create lease", err)
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Lease already exists", nil)
			return
		}
	}

	saved, err := h.Service.SaveLease(r.Context(), l)
	if err != nil {
		h.writeServiceError(w, "Failed to create lease", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaseDTO(h.LeaseFactory, saved))
}

// GetLease returns a single lease.
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	l, err := h.Store.GetLease(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "Failed to get lease", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTO(h.LeaseFactory, *l))
}

// UpdateLease replaces a lease. The path id wins over any id in the body.
func (h *Handler) UpdateLease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req factory.LeaseJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = id

	existing, err := h.Store.GetLease(r.Context(), lease.LeaseID(id))
	if err != nil {
		h.writeServiceError(w, "Failed to update lease", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}
	if req.Status == "" {
		req.Status = string(existing.Status)
	}

	l, err := h.LeaseFactory.FromJSON(req)
	if err != nil {
		h.writeServiceError(w, "Invalid lease", err)
		return
	}

	saved, err := h.Service.SaveLease(r.Context(), l)
	if err != nil {
		h.writeServiceError(w, "Failed to update lease", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTO(h.LeaseFactory, saved))
}

// GetLeaseCollection returns collection data for one lease.
func (h *Handler) GetLeaseCollection(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))
	now, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid now parameter", err)
		return
	}

	data, err := h.Service.CollectionData(r.Context(), id, now)
	if err != nil {
		h.writeServiceError(w, "Failed to compute collection", err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDTO(h.LeaseFactory, data, now))
}

// TerminateLease moves a lease to terminated.
func (h *Handler) TerminateLease(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	l, err := h.Service.TerminateLease(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "Failed to terminate lease", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTO(h.LeaseFactory, l))
}

// AdjustPeriod records a refund or cancellation for one period.
func (h *Handler) AdjustPeriod(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	var req AdjustPeriodRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.Service.AdjustPeriod(r.Context(), id, lease.PeriodAdjustment{
		Type:          lease.AdjustmentType(req.Type),
		PeriodNumber:  req.PeriodNumber,
		Amount:        req.Amount,
		Reason:        req.Reason,
		ReferenceCode: req.ReferenceCode,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to adjust period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(*entry))
}

// ShrinkLease drops periods from a lease.
func (h *Handler) ShrinkLease(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	var req ShrinkRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.Service.ShrinkLeasePeriods(r.Context(), id, req.PeriodNumber, lease.AdjustmentType(req.Type))
	if err != nil {
		h.writeServiceError(w, "Failed to shrink lease", err)
		return
	}
	writeJSON(w, http.StatusOK, ShrinkResultDTO{
		OldFrequency:      res.OldFrequency,
		NewFrequency:      res.NewFrequency,
		NewEndDate:        formatTime(res.NewEndDate),
		AdjustmentApplied: res.AdjustmentApplied,
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CollectPayment records a payment and optional deposit collection.
func (h *Handler) CollectPayment(w http.ResponseWriter, r *http.Request) {
	var req CollectPaymentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.Service.CollectPayment(r.Context(), lease.CollectPaymentRequest{
		Payment:       req.Payment.toDraft(),
		LeaseID:       lease.LeaseID(req.LeaseID),
		DepositAmount: req.DepositAmount,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to collect payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, PaymentCollectionResultDTO{
		PaymentID:                 string(res.PaymentID),
		PaymentAmount:             res.PaymentAmount,
		PaymentStatus:             string(res.PaymentStatus),
		LeaseUpdated:              res.LeaseUpdated,
		NewDepositCollectedAmount: res.NewDepositCollectedAmount,
	})
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// CreateAsset creates or replaces an asset.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = "available"
	}

	a := lease.Asset{
		ID:        lease.AssetID(req.ID),
		OwnerID:   lease.OwnerID(req.OwnerID),
		Name:      req.Name,
		Address:   req.Address,
		Status:    req.Status,
		CreatedAt: h.now(),
	}
	if err := h.Store.SaveAsset(r.Context(), a); err != nil {
		h.writeServiceError(w, "Failed to create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetDTO(a))
}

// CreateTenant creates or replaces a tenant.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = "active"
	}

	t := lease.Tenant{
		ID:        lease.TenantID(req.ID),
		OwnerID:   lease.OwnerID(req.OwnerID),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Status:    req.Status,
		CreatedAt: h.now(),
	}
	if err := h.Store.SaveTenant(r.Context(), t); err != nil {
		h.writeServiceError(w, "Failed to create tenant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantDTO(t))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerSweep runs the lifecycle sweep immediately.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if h.Sweep == nil {
		writeError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return
	}
	res := h.Sweep(r.Context())

	dto := SweepResultDTO{Owners: res.Owners, Snapshots: res.Snapshots, Expired: []string{}}
	for _, id := range res.Expired {
		dto.Expired = append(dto.Expired, string(id))
	}
	for _, err := range res.Errors {
		dto.Errors = append(dto.Errors, err.Error())
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeAndValidate decodes the JSON body into dst and runs struct-tag
// validation. It writes a 400 and returns false on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
			writeError(w, http.StatusBadRequest, "Validation failed", errors.New(strings.Join(msgs, "; ")))
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrDuplicateReference):
		return http.StatusConflict
	case generic.IsRetryable(err):
		return http.StatusServiceUnavailable
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case lease.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, slog.Any("error", err))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
