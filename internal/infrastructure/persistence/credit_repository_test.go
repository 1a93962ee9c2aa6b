package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCreditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, MigrateCreditSchema(db))
	return db
}

func usd(amount int64) valueobject.Money {
	return valueobject.MustNewMoney(amount, valueobject.USD)
}

func createTestProfile(t *testing.T, db *gorm.DB, limit int64) *credit.CreditProfile {
	t.Helper()
	profile, err := credit.NewCreditProfile(uuid.New(), usd(limit), credit.DefaultHoldThresholdPercent)
	require.NoError(t, err)
	require.NoError(t, NewGormCreditProfileRepository(db).Create(context.Background(), profile))
	return profile
}

func TestGormCreditProfileRepository_CreateAndFind(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditProfileRepository(db)
	ctx := context.Background()

	profile := createTestProfile(t, db, 100000)

	t.Run("round trips every field", func(t *testing.T) {
		found, err := repo.FindByCustomerID(ctx, profile.CustomerID)
		require.NoError(t, err)

		assert.Equal(t, profile.ID, found.ID)
		assert.Equal(t, profile.CustomerID, found.CustomerID)
		assert.Equal(t, valueobject.USD, found.Currency)
		assert.True(t, found.CreditLimit.Equals(usd(100000)))
		assert.True(t, found.AvailableCredit.Equals(usd(100000)))
		assert.True(t, found.CreditUsed.IsZero())
		assert.Equal(t, credit.RiskLevelLow, found.RiskLevel)
		assert.Equal(t, credit.ProfileStatusActive, found.Status)
		assert.True(t, found.AutoHoldEnabled)
		assert.Equal(t, 90, found.HoldThresholdPercent)
		assert.Equal(t, 1, found.Version)
	})

	t.Run("for update reads the same row on sqlite", func(t *testing.T) {
		found, err := repo.FindByCustomerIDForUpdate(ctx, profile.CustomerID)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, found.ID)
	})

	t.Run("unknown customer is not found", func(t *testing.T) {
		_, err := repo.FindByCustomerID(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryNotFound))
	})

	t.Run("second profile for a customer conflicts", func(t *testing.T) {
		dup, err := credit.NewCreditProfile(profile.CustomerID, usd(5000), 90)
		require.NoError(t, err)

		err = repo.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryConflict))
	})
}

func TestGormCreditProfileRepository_SaveWithLock(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditProfileRepository(db)
	ctx := context.Background()

	profile := createTestProfile(t, db, 100000)

	t.Run("saves and advances the version", func(t *testing.T) {
		_, err := profile.RecordInvoice(usd(30000), credit.Reference{Type: credit.ReferenceTypeInvoice, Number: "INV-1"})
		require.NoError(t, err)

		require.NoError(t, repo.SaveWithLock(ctx, profile))
		assert.Equal(t, 2, profile.Version)

		found, err := repo.FindByCustomerID(ctx, profile.CustomerID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Version)
		assert.True(t, found.CreditUsed.Equals(usd(30000)))
		assert.True(t, found.AvailableCredit.Equals(usd(70000)))
		assert.Equal(t, int64(1), found.LedgerSequence)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		stale, err := repo.FindByCustomerID(ctx, profile.CustomerID)
		require.NoError(t, err)
		stale.Version = 1

		err = repo.SaveWithLock(ctx, stale)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 1, stale.Version)
	})
}

func TestGormCreditProfileRepository_RejectsCorruptRows(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditProfileRepository(db)
	ctx := context.Background()

	t.Run("unknown risk level", func(t *testing.T) {
		profile := createTestProfile(t, db, 1000)
		require.NoError(t, db.Exec("UPDATE credit_profiles SET risk_level = ? WHERE id = ?", "EXTREME", profile.ID).Error)

		_, err := repo.FindByCustomerID(ctx, profile.CustomerID)
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryInternal))
	})

	t.Run("available credit out of balance", func(t *testing.T) {
		profile := createTestProfile(t, db, 1000)
		require.NoError(t, db.Exec("UPDATE credit_profiles SET available_credit = ? WHERE id = ?", 1, profile.ID).Error)

		_, err := repo.FindByCustomerID(ctx, profile.CustomerID)
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryInternal))
	})
}

func TestGormCreditProfileRepository_Queries(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditProfileRepository(db)
	holds := NewGormCreditHoldRepository(db)
	ctx := context.Background()

	createTestProfile(t, db, 100000)

	high := createTestProfile(t, db, 100000)
	_, err := high.RecordInvoice(usd(85000), credit.Reference{})
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, high))

	held := createTestProfile(t, db, 100000)
	hold, err := credit.NewCreditHold(held, credit.HoldTypeManualHold, "Disputed invoices", usd(0), nil)
	require.NoError(t, err)
	require.NoError(t, holds.Create(ctx, hold))

	t.Run("list pages in creation order", func(t *testing.T) {
		page, total, err := repo.List(ctx, shared.Pagination{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, page, 2)

		rest, _, err := repo.List(ctx, shared.Pagination{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("list on hold", func(t *testing.T) {
		onHold, err := repo.ListOnHold(ctx)
		require.NoError(t, err)
		require.Len(t, onHold, 1)
		assert.Equal(t, held.CustomerID, onHold[0].CustomerID)
	})

	t.Run("list by risk level", func(t *testing.T) {
		risky, err := repo.ListByRiskLevels(ctx, credit.RiskLevelHigh, credit.RiskLevelCritical)
		require.NoError(t, err)
		require.Len(t, risky, 1)
		assert.Equal(t, high.CustomerID, risky[0].CustomerID)

		none, err := repo.ListByRiskLevels(ctx)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("summary in profile currency", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, valueobject.USD)
		require.NoError(t, err)

		assert.Equal(t, int64(3), summary.TotalCustomers)
		assert.Equal(t, int64(300000), summary.TotalCreditLimit.Amount())
		assert.Equal(t, int64(85000), summary.TotalCreditUsed.Amount())
		assert.Equal(t, int64(215000), summary.TotalAvailableCredit.Amount())
		assert.Equal(t, int64(0), summary.TotalOverdue.Amount())
		assert.Equal(t, int64(1), summary.CustomersOnHold)
		assert.Equal(t, int64(1), summary.HighRiskCustomers)
		assert.True(t, summary.AvgUtilizationPercent.Equal(decimal.RequireFromString("28.33")),
			"got %s", summary.AvgUtilizationPercent)
	})

	t.Run("summary of an unused currency is empty", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, valueobject.EUR)
		require.NoError(t, err)
		assert.Equal(t, int64(0), summary.TotalCustomers)
		assert.True(t, summary.AvgUtilizationPercent.IsZero())
	})

}

func TestGormCreditTransactionRepository(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditTransactionRepository(db)
	ctx := context.Background()

	profile := createTestProfile(t, db, 100000)
	invoiceID := uuid.New()

	invoice, err := profile.RecordInvoice(usd(40000), credit.Reference{Type: credit.ReferenceTypeInvoice, ID: &invoiceID, Number: "INV-7"})
	require.NoError(t, err)
	order, err := profile.RecordOrder(usd(5000), credit.Reference{Type: credit.ReferenceTypeOrder, Number: "SO-1"})
	require.NoError(t, err)
	payment, err := profile.RecordPayment(usd(15000), credit.Reference{Type: credit.ReferenceTypePayment})
	require.NoError(t, err)

	for _, entry := range []*credit.CreditTransaction{invoice, order, payment} {
		require.NoError(t, repo.Create(ctx, entry))
	}

	t.Run("most recent first with limit", func(t *testing.T) {
		entries, err := repo.ListByCustomer(ctx, profile.CustomerID, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(3), entries[0].Sequence)
		assert.Equal(t, int64(2), entries[1].Sequence)
	})

	t.Run("full ledger ascending keeps references", func(t *testing.T) {
		entries, err := repo.ListAllByCustomer(ctx, profile.CustomerID)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		first := entries[0]
		assert.Equal(t, credit.TransactionKindInvoiceCreated, first.Kind)
		require.NotNil(t, first.ReferenceType)
		assert.Equal(t, credit.ReferenceTypeInvoice, *first.ReferenceType)
		assert.Equal(t, &invoiceID, first.ReferenceID)
		require.NotNil(t, first.ReferenceNumber)
		assert.Equal(t, "INV-7", *first.ReferenceNumber)

		report := credit.ReplayLedger(profile, entries)
		assert.True(t, report.Consistent(), report.FirstViolation)
	})

	t.Run("sums only kinds that move credit used", func(t *testing.T) {
		sum, err := repo.SumCreditUsedDeltas(ctx, profile.CustomerID)
		require.NoError(t, err)
		assert.Equal(t, int64(25000), sum)
		assert.Equal(t, profile.CreditUsed.Amount(), sum)
	})

	t.Run("duplicate sequence conflicts", func(t *testing.T) {
		dup := *payment
		dup.ID = uuid.New()

		err := repo.Create(ctx, &dup)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}

func TestGormCreditHoldRepository(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditHoldRepository(db)
	ctx := context.Background()

	profile := createTestProfile(t, db, 100000)
	actor := uuid.New()

	t.Run("no active hold returns nil", func(t *testing.T) {
		hold, err := repo.FindActiveByCustomer(ctx, profile.CustomerID)
		require.NoError(t, err)
		assert.Nil(t, hold)
	})

	first, err := credit.NewCreditHold(profile, credit.HoldTypeManualHold, "Collections review", usd(0), &actor)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first.WithNotes("called twice")))

	t.Run("second active hold is rejected by the index", func(t *testing.T) {
		second, err := credit.NewCreditHold(profile, credit.HoldTypeRiskReview, "Risk review", usd(0), &actor)
		require.NoError(t, err)

		err = repo.Create(ctx, second)
		require.Error(t, err)
		assert.True(t, errors.Is(err, credit.ErrHoldAlreadyActive))
	})

	t.Run("release then place again", func(t *testing.T) {
		active, err := repo.FindActiveByCustomer(ctx, profile.CustomerID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, first.ID, active.ID)
		require.NotNil(t, active.Notes)
		assert.Equal(t, "called twice", *active.Notes)

		require.NoError(t, active.Release(&actor, "Paid in full"))
		require.NoError(t, repo.Save(ctx, active))

		none, err := repo.FindActiveByCustomer(ctx, profile.CustomerID)
		require.NoError(t, err)
		assert.Nil(t, none)

		again, err := credit.NewCreditHold(profile, credit.HoldTypeOverdueInvoices, "Overdue again", usd(0), &actor)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, again))

		all, err := repo.ListByCustomer(ctx, profile.CustomerID)
		require.NoError(t, err)
		require.Len(t, all, 2)

		var released *credit.CreditHold
		for _, h := range all {
			if h.ID == first.ID {
				released = h
			}
		}
		require.NotNil(t, released)
		assert.Equal(t, credit.HoldStatusReleased, released.Status)
		require.NotNil(t, released.OverrideReason)
		assert.Equal(t, "Paid in full", *released.OverrideReason)
		assert.NotNil(t, released.ReleasedAt)
	})

	t.Run("saving an unknown hold is not found", func(t *testing.T) {
		ghost, err := credit.NewCreditHold(profile, credit.HoldTypeOther, "ghost", usd(0), nil)
		require.NoError(t, err)

		err = repo.Save(ctx, ghost)
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryNotFound))
	})
}

func TestGormCreditLimitChangeRepository(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditLimitChangeRepository(db)
	ctx := context.Background()

	profile := createTestProfile(t, db, 100000)
	actor := uuid.New()

	change, err := credit.NewCreditLimitChange(profile, usd(100000), usd(150000), "Annual review", actor)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, change))

	changes, err := repo.ListByCustomer(ctx, profile.CustomerID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].PreviousLimit.Equals(usd(100000)))
	assert.True(t, changes[0].NewLimit.Equals(usd(150000)))
	assert.Equal(t, "Annual review", changes[0].ChangeReason)
	assert.Equal(t, actor, changes[0].CreatedBy)
	require.NotNil(t, changes[0].ApprovedBy)
	assert.Equal(t, actor, *changes[0].ApprovedBy)
}

func TestGormCreditAlertRepository(t *testing.T) {
	db := setupCreditTestDB(t)
	repo := NewGormCreditAlertRepository(db)
	ctx := context.Background()

	profile := createTestProfile(t, db, 100000)
	first := credit.NewLimitExceededAlert(profile, usd(120000))
	second := credit.NewApproachingLimitAlert(profile, 10)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	t.Run("find by id keeps decimals", func(t *testing.T) {
		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, credit.AlertTypeLimitExceeded, found.Type)
		assert.Equal(t, credit.AlertSeverityCritical, found.Severity)
		assert.True(t, found.ThresholdValue.Equal(decimal.NewFromInt(100000)))
		assert.True(t, found.ActualValue.Equal(decimal.NewFromInt(120000)))
		assert.False(t, found.IsRead)
	})

	t.Run("acknowledged alerts leave the unread list", func(t *testing.T) {
		unread, err := repo.ListUnread(ctx)
		require.NoError(t, err)
		assert.Len(t, unread, 2)

		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		require.True(t, found.Acknowledge(uuid.New()))
		require.NoError(t, repo.Save(ctx, found))

		unread, err = repo.ListUnread(ctx)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, second.ID, unread[0].ID)

		all, err := repo.ListByCustomer(ctx, profile.CustomerID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.False(t, all[0].IsRead)
		assert.True(t, all[1].IsRead)
		assert.NotNil(t, all[1].AcknowledgedAt)
	})

	t.Run("second acknowledgement of a stale copy is a conflict", func(t *testing.T) {
		a, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		firstActor := uuid.New()

		require.True(t, a.Acknowledge(firstActor))
		require.NoError(t, repo.Save(ctx, a))
		require.True(t, b.Acknowledge(uuid.New()))
		err = repo.Save(ctx, b)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		stored, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, &firstActor, stored.AcknowledgedBy)
	})

	t.Run("unknown alert is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryNotFound))

		ghost := credit.NewApproachingLimitAlert(profile, 10)
		ghost.Acknowledge(uuid.New())
		err = repo.Save(ctx, ghost)
		assert.True(t, shared.IsCategory(err, shared.CategoryNotFound))
	})
}
