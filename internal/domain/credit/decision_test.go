package credit

import (
	"errors"
	"math"
	"testing"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkRequest(p *CreditProfile, amount int64) CheckRequest {
	orderID := uuid.New()
	return CheckRequest{CustomerID: p.CustomerID, OrderID: &orderID, OrderAmount: usd(amount)}
}

func TestNoProfileDecision(t *testing.T) {
	d := NoProfileDecision(CheckRequest{CustomerID: uuid.New(), OrderAmount: usd(50_00)})

	assert.Equal(t, CheckResultApproved, d.Result)
	assert.Equal(t, NoProfileReason, d.Reason)
	assert.Equal(t, int64(math.MaxInt64), d.AvailableCredit.Amount())
	assert.False(t, d.PlaceAutoHold)
}

func TestDecide(t *testing.T) {
	t.Run("approved well under threshold", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 10_000)
		d, err := Decide(p, nil, checkRequest(p, 5_000))
		require.NoError(t, err)

		assert.Equal(t, CheckResultApproved, d.Result)
		assert.Empty(t, d.Warnings)
		assert.Equal(t, int64(85_000), d.ProjectedAvailable.Amount())
		assert.Equal(t, int64(15_000), d.ProjectedUsed.Amount())
	})

	t.Run("warning above utilization threshold", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 70_000)
		p.HoldThresholdPercent = 80

		d, err := Decide(p, nil, checkRequest(p, 15_000))
		require.NoError(t, err)

		assert.Equal(t, CheckResultWarning, d.Result)
		require.Len(t, d.Warnings, 1)
		assert.Contains(t, d.Warnings[0], "85.0%")
		assert.False(t, d.PlaceAutoHold)
		assert.Equal(t, int64(70_000), p.CreditUsed.Amount())
	})

	t.Run("projected used equal to threshold is approved", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 70_000)
		p.HoldThresholdPercent = 80

		d, err := Decide(p, nil, checkRequest(p, 10_000))
		require.NoError(t, err)
		assert.Equal(t, CheckResultApproved, d.Result)
	})

	t.Run("blocked over limit requests auto hold", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 95_000)

		d, err := Decide(p, nil, checkRequest(p, 10_000))
		require.NoError(t, err)

		assert.Equal(t, CheckResultBlocked, d.Result)
		assert.True(t, d.PlaceAutoHold)
		assert.Equal(t, int64(5_000), d.AmountOverLimit.Amount())
		assert.Equal(t, int64(-5_000), d.ProjectedAvailable.Amount())
		assert.NotEmpty(t, d.Reason)
	})

	t.Run("blocked without auto hold when disabled", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 95_000)
		p.AutoHoldEnabled = false

		d, err := Decide(p, nil, checkRequest(p, 10_000))
		require.NoError(t, err)
		assert.Equal(t, CheckResultBlocked, d.Result)
		assert.False(t, d.PlaceAutoHold)
	})

	t.Run("active hold blocks without a new hold", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 0)
		actor := uuid.New()
		hold, err := NewCreditHold(p, HoldTypeManualHold, "risk", usd(0), &actor)
		require.NoError(t, err)

		d, err := Decide(p, hold, checkRequest(p, 1))
		require.NoError(t, err)

		assert.Equal(t, CheckResultBlocked, d.Result)
		require.NotNil(t, d.HoldID)
		assert.Equal(t, hold.ID, *d.HoldID)
		assert.Equal(t, "Customer on credit hold: risk", d.Reason)
		assert.False(t, d.PlaceAutoHold)
	})

	t.Run("zero amount is approved even on hold", func(t *testing.T) {
		p := newTestProfile(t, 100, 500)
		hold, err := NewLimitExceededHold(p, usd(400), nil)
		require.NoError(t, err)

		d, err := Decide(p, hold, checkRequest(p, 0))
		require.NoError(t, err)
		assert.Equal(t, CheckResultApproved, d.Result)
		assert.Nil(t, d.HoldID)
	})

	t.Run("large overdue demotes approval to warning", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 0)
		_, err := p.RecordOverdue(usd(30_000), 20)
		require.NoError(t, err)

		d, err := Decide(p, nil, checkRequest(p, 1_000))
		require.NoError(t, err)
		assert.Equal(t, CheckResultWarning, d.Result)
		require.Len(t, d.Warnings, 1)
		assert.Contains(t, d.Warnings[0], "overdue")
	})

	t.Run("small overdue only adds a warning", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 0)
		_, err := p.RecordOverdue(usd(20_000), 5)
		require.NoError(t, err)

		d, err := Decide(p, nil, checkRequest(p, 1_000))
		require.NoError(t, err)
		assert.Equal(t, CheckResultApproved, d.Result)
		assert.Len(t, d.Warnings, 1)
	})

	t.Run("overdue never downgrades a block", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 95_000)
		_, err := p.RecordOverdue(usd(90_000), 60)
		require.NoError(t, err)

		d, err := Decide(p, nil, checkRequest(p, 10_000))
		require.NoError(t, err)
		assert.Equal(t, CheckResultBlocked, d.Result)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 0)
		_, err := Decide(p, nil, CheckRequest{CustomerID: p.CustomerID, OrderAmount: valueobject.MustNewMoney(1, valueobject.EUR)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidCurrency))
	})

	t.Run("order beyond the amount range is blocked", func(t *testing.T) {
		tests := []struct {
			name  string
			limit int64
			used  int64
		}{
			{"within limit", 100_000, 10_000},
			{"already over limit", 100_000, 150_000},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := newTestProfile(t, tt.limit, tt.used)

				d, err := Decide(p, nil, checkRequest(p, math.MaxInt64))
				require.NoError(t, err)

				assert.Equal(t, CheckResultBlocked, d.Result)
				assert.True(t, d.ProjectedAvailable.IsNegative())
				assert.True(t, d.AmountOverLimit.IsPositive())
				assert.Equal(t, int64(math.MaxInt64), d.ProjectedUsed.Amount())
				assert.Equal(t, p.AutoHoldEnabled, d.PlaceAutoHold)
			})
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		p := newTestProfile(t, 100_000, 0)
		_, err := Decide(p, nil, checkRequest(p, -1))
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryValidation))
	})
}
