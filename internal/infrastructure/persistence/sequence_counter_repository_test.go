package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSequenceCounterRepository_IncrementAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing counter and consumes 1", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
		tenantID := uuid.New()

		counter, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(2), counter.NextNumber)
		assert.Equal(t, int64(1), counter.LastAllocated())
		assert.Equal(t, "INV", counter.Prefix)

		stored, err := repo.FindByKey(ctx, tenantID, sales.DocumentTypeInvoice)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(2), stored.NextNumber)
	})

	t.Run("advances existing counter by one and keeps stored prefix", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
		tenantID := uuid.New()

		_, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeDepositReceipt, "DEP")
		require.NoError(t, err)

		counter, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeDepositReceipt, "OTHER")
		require.NoError(t, err)
		assert.Equal(t, int64(3), counter.NextNumber)
		assert.Equal(t, "DEP", counter.Prefix)
	})

	t.Run("keeps tenants and types independent", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
		tenantA, tenantB := uuid.New(), uuid.New()

		for i := 0; i < 3; i++ {
			_, err := repo.IncrementAndGet(ctx, tenantA, sales.DocumentTypeInvoice, "INV")
			require.NoError(t, err)
		}

		b, err := repo.IncrementAndGet(ctx, tenantB, sales.DocumentTypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(2), b.NextNumber)

		cn, err := repo.IncrementAndGet(ctx, tenantA, sales.DocumentTypeCreditNote, "CN")
		require.NoError(t, err)
		assert.Equal(t, int64(2), cn.NextNumber)
	})

	t.Run("concurrent callers never observe the same value", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
		tenantID := uuid.New()

		const workers = 40
		var wg sync.WaitGroup
		results := make(chan int64, workers)
		errs := make(chan error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				counter, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
				if err != nil {
					errs <- err
					return
				}
				results <- counter.NextNumber
			}()
		}
		wg.Wait()
		close(results)
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		seen := make(map[int64]bool, workers)
		for n := range results {
			assert.False(t, seen[n], "duplicate value %d", n)
			seen[n] = true
		}
		assert.Len(t, seen, workers)
		for n := int64(2); n <= workers+1; n++ {
			assert.True(t, seen[n], "missing value %d", n)
		}
	})
}

func TestGormSequenceCounterRepository_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("creates counter at start number", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
		tenantID := uuid.New()

		created, err := repo.Initialize(ctx, tenantID, sales.DocumentTypeInvoice, 8, "INV")
		require.NoError(t, err)
		assert.True(t, created)

		counter, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(9), counter.NextNumber)
		assert.Equal(t, int64(8), counter.LastAllocated())
	})

	t.Run("leaves existing counter untouched", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
		tenantID := uuid.New()

		_, err := repo.Initialize(ctx, tenantID, sales.DocumentTypeInvoice, 100, "INV")
		require.NoError(t, err)

		created, err := repo.Initialize(ctx, tenantID, sales.DocumentTypeInvoice, 5, "X")
		require.NoError(t, err)
		assert.False(t, created)

		counter, err := repo.FindByKey(ctx, tenantID, sales.DocumentTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(100), counter.NextNumber)
		assert.Equal(t, "INV", counter.Prefix)
	})

	t.Run("rejects start below one", func(t *testing.T) {
		repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))

		_, err := repo.Initialize(ctx, uuid.New(), sales.DocumentTypeInvoice, 0, "INV")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestGormSequenceCounterRepository_FindAndUpdatePrefix(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSequenceCounterRepository(setupSQLiteDB(t))
	tenantID := uuid.New()

	t.Run("missing counter is nil without error", func(t *testing.T) {
		counter, err := repo.FindByKey(ctx, tenantID, sales.DocumentTypeCreditNote)
		require.NoError(t, err)
		assert.Nil(t, counter)
	})

	_, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
	require.NoError(t, err)
	_, err = repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeCreditNote, "CN")
	require.NoError(t, err)
	_, err = repo.IncrementAndGet(ctx, uuid.New(), sales.DocumentTypeInvoice, "INV")
	require.NoError(t, err)

	t.Run("lists only the tenant's counters ordered by type", func(t *testing.T) {
		counters, err := repo.FindAllForTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, counters, 2)
		assert.Equal(t, sales.DocumentTypeCreditNote, counters[0].DocumentType)
		assert.Equal(t, sales.DocumentTypeInvoice, counters[1].DocumentType)
	})

	t.Run("updates prefix without moving the number", func(t *testing.T) {
		counter, err := repo.UpdatePrefix(ctx, tenantID, sales.DocumentTypeInvoice, "SI-")
		require.NoError(t, err)
		assert.Equal(t, "SI-", counter.Prefix)
		assert.Equal(t, int64(2), counter.NextNumber)

		next, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, "SI-", next.Prefix)
		assert.Equal(t, int64(3), next.NextNumber)
	})

	t.Run("update of unknown counter is not found", func(t *testing.T) {
		_, err := repo.UpdatePrefix(ctx, tenantID, sales.DocumentTypeDepositReceipt, "DEP")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormSequenceCounterRepository_IncrementSQL(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("issues a single upsert returning the counter", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormSequenceCounterRepository(db)

		mock.ExpectQuery(`(?s)INSERT INTO sequence_counters .*ON CONFLICT \(tenant_id, document_type\) DO UPDATE\s+SET next_number = sequence_counters.next_number \+ 1.*RETURNING next_number, prefix`).
			WithArgs(tenantID.String(), "INVOICE", "INV", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"next_number", "prefix"}).AddRow(43, "INV"))

		counter, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
		require.NoError(t, err)
		assert.Equal(t, int64(43), counter.NextNumber)
		assert.Equal(t, int64(42), counter.LastAllocated())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates store failures", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormSequenceCounterRepository(db)

		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WillReturnError(errors.New("connection reset by peer"))

		counter, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
		require.Error(t, err)
		assert.Nil(t, counter)
		assert.Contains(t, err.Error(), "connection reset by peer")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when no row comes back", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormSequenceCounterRepository(db)

		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WillReturnRows(sqlmock.NewRows([]string{"next_number", "prefix"}))

		_, err := repo.IncrementAndGet(ctx, tenantID, sales.DocumentTypeInvoice, "INV")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no sequence value returned")
	})
}
