package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/dealerflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// incrementCounterSQL advances a counter in one statement. A missing row is created with
// next_number=2, which hands out 1; an existing row is bumped under the row lock the
// upsert takes, so concurrent callers never observe the same value.
const incrementCounterSQL = `INSERT INTO sequence_counters (tenant_id, document_type, next_number, prefix, created_at, updated_at)
VALUES (?, ?, 2, ?, ?, ?)
ON CONFLICT (tenant_id, document_type) DO UPDATE
SET next_number = sequence_counters.next_number + 1, updated_at = excluded.updated_at
RETURNING next_number, prefix`

// GormSequenceCounterRepository implements sales.SequenceCounterRepository using GORM
type GormSequenceCounterRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormSequenceCounterRepository creates a new GormSequenceCounterRepository
func NewGormSequenceCounterRepository(db *gorm.DB) *GormSequenceCounterRepository {
	return &GormSequenceCounterRepository{db: db, now: time.Now}
}

// WithTx returns a repository bound to the given transaction
func (r *GormSequenceCounterRepository) WithTx(tx *gorm.DB) *GormSequenceCounterRepository {
	return &GormSequenceCounterRepository{db: tx, now: r.now}
}

// FindByKey returns the counter for (tenant, type), or nil when the tenant has never
// allocated a number of that type.
func (r *GormSequenceCounterRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) (*sales.SequenceCounter, error) {
	var model models.SequenceCounterModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_type = ?", tenantID, docType).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load sequence counter: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns all counters of a tenant ordered by document type
func (r *GormSequenceCounterRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]sales.SequenceCounter, error) {
	var rows []models.SequenceCounterModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("document_type ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sequence counters: %w", err)
	}

	counters := make([]sales.SequenceCounter, len(rows))
	for i := range rows {
		counters[i] = *rows[i].ToDomain()
	}
	return counters, nil
}

// IncrementAndGet atomically advances the counter and returns its post-increment state
func (r *GormSequenceCounterRepository) IncrementAndGet(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, defaultPrefix string) (*sales.SequenceCounter, error) {
	now := r.now()

	var row struct {
		NextNumber int64
		Prefix     string
	}
	if err := r.db.WithContext(ctx).
		Raw(incrementCounterSQL, tenantID, docType, defaultPrefix, now, now).
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to increment sequence counter: %w", err)
	}
	if row.NextNumber == 0 {
		return nil, fmt.Errorf("failed to increment sequence counter: no sequence value returned")
	}

	return &sales.SequenceCounter{
		TenantID:     tenantID,
		DocumentType: docType,
		NextNumber:   row.NextNumber,
		Prefix:       row.Prefix,
		UpdatedAt:    now,
	}, nil
}

// Initialize creates the counter with the given starting value if it does not exist.
// An existing counter is left untouched and false is returned.
func (r *GormSequenceCounterRepository) Initialize(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, startNumber int64, prefix string) (bool, error) {
	if startNumber < 1 {
		return false, shared.NewDomainError("INVALID_INPUT", "Start number must be at least 1")
	}

	now := r.now()
	model := models.SequenceCounterModel{
		TenantID:     tenantID,
		DocumentType: docType,
		NextNumber:   startNumber,
		Prefix:       prefix,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "document_type"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to initialize sequence counter: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdatePrefix changes the display prefix of an existing counter without touching its number
func (r *GormSequenceCounterRepository) UpdatePrefix(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, prefix string) (*sales.SequenceCounter, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SequenceCounterModel{}).
		Where("tenant_id = ? AND document_type = ?", tenantID, docType).
		Updates(map[string]any{
			"prefix":     prefix,
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update sequence counter prefix: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}

	counter, err := r.FindByKey(ctx, tenantID, docType)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, shared.ErrNotFound
	}
	return counter, nil
}

// Ensure GormSequenceCounterRepository implements SequenceCounterRepository
var _ sales.SequenceCounterRepository = (*GormSequenceCounterRepository)(nil)
