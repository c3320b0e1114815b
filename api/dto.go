/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the lease domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are decimal strings ("1000.50") in both directions. Requests also
  accept JSON numbers.

VALIDATION:
  Request types carry go-playground/validator tags, checked in the handler
  before the service is called. The service repeats the domain checks.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/lease.go: LeaseJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// LEASES
// =============================================================================

// LeaseDTO is a lease in API responses.
type LeaseDTO struct {
	factory.LeaseJSON
	ChargePeriodLabel string `json:"charge_period_label"`
	CreatedAt         string `json:"created_at,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}

// =============================================================================
// COLLECTION
// =============================================================================

// CollectionIntervalDTO is one billing period with its status.
type CollectionIntervalDTO struct {
	PeriodNumber int             `json:"period_number"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	IsIncurred   bool            `json:"is_incurred"`
	IsPaid       bool            `json:"is_paid"`
	IsOverdue    bool            `json:"is_overdue"`
	Amount       decimal.Decimal `json:"amount"`
}

// LeaseCollectionDTO is the collection state of one lease.
type LeaseCollectionDTO struct {
	Lease            LeaseDTO                `json:"lease"`
	Tenant           *TenantDTO              `json:"tenant,omitempty"`
	Asset            *AssetDTO               `json:"asset,omitempty"`
	Intervals        []CollectionIntervalDTO `json:"intervals"`
	TotalPayments    decimal.Decimal         `json:"total_payments"`
	NetPayments      decimal.Decimal         `json:"net_payments"`
	TotalPeriodsPaid decimal.Decimal         `json:"total_periods_paid"`
	CurrentPeriod    int                     `json:"current_period"`
	PeriodsToCollect decimal.Decimal         `json:"periods_to_collect"`
	AmountToCollect  decimal.Decimal         `json:"amount_to_collect"`
	OverdueAmount    decimal.Decimal         `json:"overdue_amount"`
	IsActive         bool                    `json:"is_active"`
	AsOf             string                  `json:"as_of"`
}

// SummaryDTO is the portfolio roll-up.
type SummaryDTO struct {
	OwnerID        string          `json:"owner_id"`
	TotalLeases    int             `json:"total_leases"`
	ActiveLeases   int             `json:"active_leases"`
	TotalToCollect decimal.Decimal `json:"total_to_collect"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	OverdueLeases  int             `json:"overdue_leases"`
	AsOf           string          `json:"as_of"`
}

// SnapshotDTO is a persisted summary.
type SnapshotDTO struct {
	ID      string     `json:"id"`
	TakenAt string     `json:"taken_at"`
	Reason  string     `json:"reason"`
	Summary SummaryDTO `json:"summary"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDTO is a ledger entry in API responses.
type PaymentDTO struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	TenantID      string          `json:"tenant_id"`
	AssetID       string          `json:"asset_id"`
	LeaseID       string          `json:"lease_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"due_date"`
	PaidDate      *string         `json:"paid_date,omitempty"`
	Status        string          `json:"status"`
	Method        string          `json:"method"`
	Notes         string          `json:"notes,omitempty"`
	ReferenceCode string          `json:"reference_code,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// PaymentDraftRequest is the payment part of a collect request.
type PaymentDraftRequest struct {
	OwnerID       string          `json:"owner_id"`
	TenantID      string          `json:"tenant_id"`
	AssetID       string          `json:"asset_id"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Method        string          `json:"method" validate:"required,oneof=cash bank_transfer card check mobile other"`
	Notes         string          `json:"notes,omitempty"`
	ReferenceCode string          `json:"reference_code,omitempty" validate:"omitempty,max=128"`
}

// CollectPaymentRequest is the request to record a payment.
type CollectPaymentRequest struct {
	Payment       PaymentDraftRequest `json:"payment"`
	LeaseID       string              `json:"lease_id,omitempty"`
	DepositAmount decimal.Decimal     `json:"deposit_amount"`
}

// PaymentCollectionResultDTO reports what CollectPayment persisted.
type PaymentCollectionResultDTO struct {
	PaymentID                 string          `json:"payment_id"`
	PaymentAmount             decimal.Decimal `json:"payment_amount"`
	PaymentStatus             string          `json:"payment_status"`
	LeaseUpdated              bool            `json:"lease_updated"`
	NewDepositCollectedAmount decimal.Decimal `json:"new_deposit_collected_amount"`
}

// AdjustPeriodRequest is a refund or cancellation of one period.
type AdjustPeriodRequest struct {
	Type          string          `json:"type" validate:"required,oneof=refund cancel"`
	PeriodNumber  int             `json:"period_number" validate:"gte=1"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason" validate:"required"`
	ReferenceCode string          `json:"reference_code,omitempty" validate:"omitempty,max=128"`
}

// ShrinkRequest asks to drop periods from a lease.
type ShrinkRequest struct {
	PeriodNumber int    `json:"period_number" validate:"gte=1"`
	Type         string `json:"type" validate:"required,oneof=refund cancel"`
}

// ShrinkResultDTO reports a frequency change.
type ShrinkResultDTO struct {
	OldFrequency      int    `json:"old_frequency"`
	NewFrequency      int    `json:"new_frequency"`
	NewEndDate        string `json:"new_end_date"`
	AdjustmentApplied bool   `json:"adjustment_applied"`
}

// =============================================================================
// DIRECTORY
// =============================================================================

// AssetDTO is an asset in API responses.
type AssetDTO struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateAssetRequest is the request to create an asset.
type CreateAssetRequest struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Status  string `json:"status" validate:"omitempty,oneof=available occupied maintenance"`
}

// TenantDTO is a tenant in API responses.
type TenantDTO struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateTenantRequest is the request to create a tenant.
type CreateTenantRequest struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Status  string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// =============================================================================
// SCENARIOS / ADMIN
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Now         string `json:"now"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// SweepResultDTO reports a lifecycle sweep.
type SweepResultDTO struct {
	Owners    int      `json:"owners"`
	Expired   []string `json:"expired"`
	Snapshots int      `json:"snapshots"`
	Errors    []string `json:"errors,omitempty"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

const dateTimeFormat = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}

func toLeaseDTO(f *factory.LeaseFactory, l lease.Lease) LeaseDTO {
	return LeaseDTO{
		LeaseJSON:         f.ToJSON(l),
		ChargePeriodLabel: generic.FormatDuration(l.ChargePeriodMinutes),
		CreatedAt:         formatTime(l.CreatedAt),
		UpdatedAt:         formatTime(l.UpdatedAt),
	}
}

func toCollectionDTO(f *factory.LeaseFactory, d lease.CollectionData, now time.Time) LeaseCollectionDTO {
	intervals := make([]CollectionIntervalDTO, len(d.Intervals))
	for i, iv := range d.Intervals {
		intervals[i] = CollectionIntervalDTO{
			PeriodNumber: iv.PeriodNumber,
			StartDate:    formatTime(iv.StartDate),
			EndDate:      formatTime(iv.EndDate),
			IsIncurred:   iv.IsIncurred,
			IsPaid:       iv.IsPaid,
			IsOverdue:    iv.IsOverdue(),
			Amount:       iv.Amount,
		}
	}

	dto := LeaseCollectionDTO{
		Lease:            toLeaseDTO(f, d.Lease),
		Intervals:        intervals,
		TotalPayments:    d.TotalPayments,
		NetPayments:      d.NetPayments,
		TotalPeriodsPaid: d.TotalPeriodsPaid,
		CurrentPeriod:    d.CurrentPeriod,
		PeriodsToCollect: d.PeriodsToCollect,
		AmountToCollect:  d.AmountToCollect,
		OverdueAmount:    d.OverdueAmount(),
		IsActive:         d.IsActive,
		AsOf:             formatTime(now),
	}
	if d.Tenant != nil {
		t := toTenantDTO(*d.Tenant)
		dto.Tenant = &t
	}
	if d.Asset != nil {
		a := toAssetDTO(*d.Asset)
		dto.Asset = &a
	}
	return dto
}

func toSummaryDTO(owner lease.OwnerID, s lease.CollectionSummary, asOf time.Time) SummaryDTO {
	return SummaryDTO{
		OwnerID:        string(owner),
		TotalLeases:    s.TotalLeases,
		ActiveLeases:   s.ActiveLeases,
		TotalToCollect: s.TotalToCollect,
		OverdueAmount:  s.OverdueAmount,
		OverdueLeases:  s.OverdueLeases,
		AsOf:           formatTime(asOf),
	}
}

func toPaymentDTO(p lease.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            string(p.ID),
		OwnerID:       string(p.OwnerID),
		TenantID:      string(p.TenantID),
		AssetID:       string(p.AssetID),
		LeaseID:       string(p.LeaseID),
		Amount:        p.Amount,
		DueDate:       formatTime(p.DueDate),
		Status:        string(p.Status),
		Method:        string(p.Method),
		Notes:         p.Notes,
		ReferenceCode: p.ReferenceCode,
		CreatedAt:     formatTime(p.CreatedAt),
	}
	if p.PaidDate != nil {
		s := formatTime(*p.PaidDate)
		dto.PaidDate = &s
	}
	return dto
}

func toAssetDTO(a lease.Asset) AssetDTO {
	return AssetDTO{
		ID:        string(a.ID),
		OwnerID:   string(a.OwnerID),
		Name:      a.Name,
		Address:   a.Address,
		Status:    a.Status,
		CreatedAt: formatTime(a.CreatedAt),
	}
}

func toTenantDTO(t lease.Tenant) TenantDTO {
	return TenantDTO{
		ID:        string(t.ID),
		OwnerID:   string(t.OwnerID),
		Name:      t.Name,
		Email:     t.Email,
		Phone:     t.Phone,
		Status:    t.Status,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

func (r PaymentDraftRequest) toDraft() lease.PaymentDraft {
	d := lease.PaymentDraft{
		OwnerID:       lease.OwnerID(r.OwnerID),
		TenantID:      lease.TenantID(r.TenantID),
		AssetID:       lease.AssetID(r.AssetID),
		Amount:        r.Amount,
		PaidDate:      r.PaidDate,
		Method:        lease.PaymentMethod(r.Method),
		Notes:         r.Notes,
		ReferenceCode: r.ReferenceCode,
	}
	if r.DueDate != nil {
		d.DueDate = *r.DueDate
	}
	return d
}
