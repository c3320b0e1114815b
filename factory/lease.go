/*
Package factory provides JSON to Go lease conversion.

PURPOSE:
  Converts JSON lease definitions into lease.Lease values. Used by the API
  for lease create/update bodies and by the demo scenarios, so both paths
  share one set of defaults and checks.

JSON SCHEMA:
  {
    "id": "lease-1",
    "owner_id": "owner-1",
    "tenant_id": "tenant-1",
    "asset_id": "asset-1",
    "start_date": "2024-01-01T00:00:00Z",
    "rent_amount": "1000",
    "charge_period": {"value": 1, "unit": "months"},
    "frequency": 12,
    "deposit": "2000",
    "status": "active",
    "lease_type": "fixed_term"
  }

  Money fields accept JSON strings or numbers. charge_period may be given
  as charge_period_minutes instead.

KEY FEATURES:
  - Struct-tag validation (go-playground/validator)
  - Defaults: status active, lease_type fixed_term
  - End date always derived from the schedule; any end_date in the input
    is ignored

USAGE:
  f := NewLeaseFactory()
  l, err := f.ParseLease([]byte(jsonStr))

SEE ALSO:
  - lease/lifecycle.go: Lease.Validate, RecomputeEndDate
  - api/scenarios.go: Demo leases defined as JSON
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaseJSON is the JSON representation of a lease.
type LeaseJSON struct {
	ID                     string            `json:"id,omitempty"`
	OwnerID                string            `json:"owner_id" validate:"required"`
	TenantID               string            `json:"tenant_id" validate:"required"`
	AssetID                string            `json:"asset_id" validate:"required"`
	StartDate              time.Time         `json:"start_date"`
	EndDate                *time.Time        `json:"end_date,omitempty"` // Output only
	RentAmount             decimal.Decimal   `json:"rent_amount"`
	ChargePeriod           *ChargePeriodJSON `json:"charge_period,omitempty" validate:"required_without=ChargePeriodMinutes"`
	ChargePeriodMinutes    int64             `json:"charge_period_minutes,omitempty" validate:"omitempty,gt=0"`
	Frequency              int               `json:"frequency" validate:"gte=1"`
	Deposit                decimal.Decimal   `json:"deposit"`
	DepositCollectedAmount decimal.Decimal   `json:"deposit_collected_amount"`
	Status                 string            `json:"status,omitempty" validate:"omitempty,oneof=active expired pending terminated"`
	LeaseType              string            `json:"lease_type,omitempty" validate:"omitempty,oneof=fixed_term month_to_month"`
}

// ChargePeriodJSON is a charge period in a human unit.
type ChargePeriodJSON struct {
	Value int64  `json:"value" validate:"gt=0"`
	Unit  string `json:"unit" validate:"required,oneof=minutes hours days weeks months years"`
}

// =============================================================================
// LEASE FACTORY
// =============================================================================

// LeaseFactory converts JSON leases to Go structs.
type LeaseFactory struct {
	validate *validator.Validate
}

// NewLeaseFactory creates a new lease factory.
func NewLeaseFactory() *LeaseFactory {
	return &LeaseFactory{validate: validator.New()}
}

// ParseLease parses a JSON document into a Lease.
func (f *LeaseFactory) ParseLease(data []byte) (lease.Lease, error) {
	var lj LeaseJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		return lease.Lease{}, fmt.Errorf("failed to parse lease JSON: %w", err)
	}
	return f.FromJSON(lj)
}

// FromJSON converts LeaseJSON to lease.Lease. The result has its end date
// computed and has passed Lease.Validate.
func (f *LeaseFactory) FromJSON(lj LeaseJSON) (lease.Lease, error) {
	if err := f.Validate(lj); err != nil {
		return lease.Lease{}, err
	}

	minutes := lj.ChargePeriodMinutes
	if lj.ChargePeriod != nil {
		minutes = generic.ToMinutes(float64(lj.ChargePeriod.Value), generic.Unit(lj.ChargePeriod.Unit))
	}

	l := lease.Lease{
		ID:                     lease.LeaseID(lj.ID),
		OwnerID:                lease.OwnerID(lj.OwnerID),
		TenantID:               lease.TenantID(lj.TenantID),
		AssetID:                lease.AssetID(lj.AssetID),
		StartDate:              lj.StartDate,
		RentAmount:             lj.RentAmount,
		ChargePeriodMinutes:    minutes,
		Frequency:              lj.Frequency,
		Deposit:                lj.Deposit,
		DepositCollectedAmount: lj.DepositCollectedAmount,
		Status:                 lease.Status(lj.Status),
		LeaseType:              lease.Type(lj.LeaseType),
	}
	if l.Status == "" {
		l.Status = lease.StatusActive
	}
	if l.LeaseType == "" {
		l.LeaseType = lease.TypeFixedTerm
	}

	if err := l.Validate(); err != nil {
		return lease.Lease{}, err
	}
	if err := l.RecomputeEndDate(); err != nil {
		return lease.Lease{}, err
	}
	return l, nil
}

// Validate runs the struct-tag checks and reports the first failure as a
// *lease.ValidationError.
func (f *LeaseFactory) Validate(v any) error {
	err := f.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &lease.ValidationError{Field: jsonName(fe.Field()), Message: describe(fe)}
	}
	return err
}

// ToJSON converts a Lease to LeaseJSON, expressing the charge period in
// its largest exact unit.
func (f *LeaseFactory) ToJSON(l lease.Lease) LeaseJSON {
	d := generic.FromMinutes(l.ChargePeriodMinutes)
	end := l.EndDate
	return LeaseJSON{
		ID:                     string(l.ID),
		OwnerID:                string(l.OwnerID),
		TenantID:               string(l.TenantID),
		AssetID:                string(l.AssetID),
		StartDate:              l.StartDate,
		EndDate:                &end,
		RentAmount:             l.RentAmount,
		ChargePeriod:           &ChargePeriodJSON{Value: d.Value, Unit: string(d.Unit)},
		ChargePeriodMinutes:    l.ChargePeriodMinutes,
		Frequency:              l.Frequency,
		Deposit:                l.Deposit,
		DepositCollectedAmount: l.DepositCollectedAmount,
		Status:                 string(l.Status),
		LeaseType:              string(l.LeaseType),
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

var fieldNames = map[string]string{
	"ID":                  "id",
	"OwnerID":             "owner_id",
	"TenantID":            "tenant_id",
	"AssetID":             "asset_id",
	"ChargePeriod":        "charge_period",
	"ChargePeriodMinutes": "charge_period_minutes",
	"Frequency":           "frequency",
	"Status":              "status",
	"LeaseType":           "lease_type",
	"Value":               "charge_period.value",
	"Unit":                "charge_period.unit",
}

func jsonName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
