package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/credit/internal/domain/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnsavedProfile(t *testing.T) *credit.CreditProfile {
	t.Helper()
	profile, err := credit.NewCreditProfile(uuid.New(), usd(100000), credit.DefaultHoldThresholdPercent)
	require.NoError(t, err)
	return profile
}

// TestFindByCustomerIDForUpdate_RowLock checks the PostgreSQL read takes a row lock
func TestFindByCustomerIDForUpdate_RowLock(t *testing.T) {
	t.Run("postgres appends FOR UPDATE", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormCreditProfileRepository(db.DB)
		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "credit_profiles" WHERE customer_id = \$1 .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByCustomerIDForUpdate(context.Background(), customerID)

		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("plain read takes no lock", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormCreditProfileRepository(db.DB)

		mock.ExpectQuery(`SELECT \* FROM "credit_profiles" WHERE customer_id = \$1 ORDER BY "credit_profiles"."id" LIMIT \S+$`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByCustomerID(context.Background(), uuid.New())

		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is a storage error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormCreditProfileRepository(db.DB)

		mock.ExpectQuery(`SELECT .* FROM "credit_profiles"`).WillReturnError(assert.AnError)

		_, err := repo.FindByCustomerIDForUpdate(context.Background(), uuid.New())

		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryStorage))
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestSaveWithLock_OptimisticLocking tests that SaveWithLock guards on the stored version
func TestSaveWithLock_OptimisticLocking(t *testing.T) {
	const updateSQL = `UPDATE "credit_profiles" SET .* WHERE \(?id = \$\d+ AND version = \$\d+\)?`

	t.Run("successful save with current version", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormCreditProfileRepository(db.DB)

		profile := newUnsavedProfile(t)
		profile.Version = 4

		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), profile)

		assert.NoError(t, err)
		assert.Equal(t, 5, profile.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row matched is a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormCreditProfileRepository(db.DB)

		profile := newUnsavedProfile(t)
		profile.Version = 4

		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), profile)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 4, profile.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error keeps its cause", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormCreditProfileRepository(db.DB)

		profile := newUnsavedProfile(t)

		mock.ExpectExec(updateSQL).WillReturnError(assert.AnError)

		err := repo.SaveWithLock(context.Background(), profile)

		require.Error(t, err)
		assert.True(t, shared.IsCategory(err, shared.CategoryStorage))
		assert.False(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, profile.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
