package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

func TestParseLease_ChargePeriodInUnits(t *testing.T) {
	// GIVEN: A lease with a 1-month charge period, money as strings
	// WHEN: Parsing
	// THEN: Minutes, defaults and end date are filled in

	f := NewLeaseFactory()
	l, err := f.ParseLease([]byte(`{
		"id": "lease-1",
		"owner_id": "owner-1",
		"tenant_id": "tenant-1",
		"asset_id": "asset-1",
		"start_date": "2024-01-31T00:00:00Z",
		"rent_amount": "1000.25",
		"charge_period": {"value": 1, "unit": "months"},
		"frequency": 3,
		"deposit": 2000,
		"end_date": "1999-01-01T00:00:00Z"
	}`))
	require.NoError(t, err)

	assert.Equal(t, lease.LeaseID("lease-1"), l.ID)
	assert.Equal(t, generic.ToMinutes(1, generic.UnitMonths), l.ChargePeriodMinutes)
	assert.True(t, l.RentAmount.Equal(generic.MustParseMoney("1000.25")))
	assert.True(t, l.Deposit.Equal(generic.NewMoneyFromInt(2000)))
	assert.Equal(t, lease.StatusActive, l.Status)
	assert.Equal(t, lease.TypeFixedTerm, l.LeaseType)
	assert.True(t, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC).Equal(l.EndDate), "end date derived, input ignored")
}

func TestParseLease_ChargePeriodMinutes(t *testing.T) {
	f := NewLeaseFactory()
	l, err := f.ParseLease([]byte(`{
		"owner_id": "o", "tenant_id": "t", "asset_id": "a",
		"start_date": "2024-01-01T00:00:00Z",
		"rent_amount": 1000,
		"charge_period_minutes": 43800,
		"frequency": 3,
		"status": "pending",
		"lease_type": "month_to_month"
	}`))
	require.NoError(t, err)

	assert.Equal(t, int64(43800), l.ChargePeriodMinutes)
	assert.Equal(t, lease.StatusPending, l.Status)
	assert.Equal(t, lease.TypeMonthToMonth, l.LeaseType)
	assert.True(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Add(2190*time.Hour).Equal(l.EndDate))
}

func TestParseLease_ValidationErrors(t *testing.T) {
	f := NewLeaseFactory()

	tests := []struct {
		name  string
		json  string
		field string
	}{
		{
			"missing tenant",
			`{"owner_id":"o","asset_id":"a","start_date":"2024-01-01T00:00:00Z","charge_period_minutes":60,"frequency":1}`,
			"tenant_id",
		},
		{
			"missing charge period",
			`{"owner_id":"o","tenant_id":"t","asset_id":"a","start_date":"2024-01-01T00:00:00Z","frequency":1}`,
			"charge_period",
		},
		{
			"unknown unit",
			`{"owner_id":"o","tenant_id":"t","asset_id":"a","start_date":"2024-01-01T00:00:00Z","charge_period":{"value":1,"unit":"fortnights"},"frequency":1}`,
			"charge_period.unit",
		},
		{
			"zero frequency",
			`{"owner_id":"o","tenant_id":"t","asset_id":"a","start_date":"2024-01-01T00:00:00Z","charge_period_minutes":60,"frequency":0}`,
			"frequency",
		},
		{
			"unknown status",
			`{"owner_id":"o","tenant_id":"t","asset_id":"a","start_date":"2024-01-01T00:00:00Z","charge_period_minutes":60,"frequency":1,"status":"archived"}`,
			"status",
		},
		{
			"missing start",
			`{"owner_id":"o","tenant_id":"t","asset_id":"a","charge_period_minutes":60,"frequency":1}`,
			"start_date",
		},
		{
			"negative rent",
			`{"owner_id":"o","tenant_id":"t","asset_id":"a","start_date":"2024-01-01T00:00:00Z","rent_amount":"-1","charge_period_minutes":60,"frequency":1}`,
			"rent_amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseLease([]byte(tt.json))
			require.Error(t, err)
			assert.ErrorIs(t, err, lease.ErrValidation)

			var ve *lease.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseLease_MalformedJSON(t *testing.T) {
	_, err := NewLeaseFactory().ParseLease([]byte(`{"owner_id":`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, lease.ErrValidation)
}

func TestToJSON_LargestExactUnit(t *testing.T) {
	f := NewLeaseFactory()
	l, err := f.ParseLease([]byte(`{
		"owner_id": "o", "tenant_id": "t", "asset_id": "a",
		"start_date": "2024-01-01T00:00:00Z",
		"rent_amount": "500",
		"charge_period": {"value": 3, "unit": "months"},
		"frequency": 4
	}`))
	require.NoError(t, err)

	lj := f.ToJSON(l)
	require.NotNil(t, lj.ChargePeriod)
	assert.Equal(t, ChargePeriodJSON{Value: 3, Unit: "months"}, *lj.ChargePeriod)
	require.NotNil(t, lj.EndDate)
	assert.True(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC).Equal(*lj.EndDate))

	again, err := f.FromJSON(lj)
	require.NoError(t, err)
	assert.Equal(t, l.ChargePeriodMinutes, again.ChargePeriodMinutes)
	assert.True(t, l.EndDate.Equal(again.EndDate))
}
