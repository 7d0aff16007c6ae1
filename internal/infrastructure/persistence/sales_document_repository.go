package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/dealerflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormSalesDocumentRepository implements sales.SalesDocumentRepository using GORM
type GormSalesDocumentRepository struct {
	db *gorm.DB
}

// NewGormSalesDocumentRepository creates a new GormSalesDocumentRepository
func NewGormSalesDocumentRepository(db *gorm.DB) *GormSalesDocumentRepository {
	return &GormSalesDocumentRepository{db: db}
}

// FindByIDForTenant finds a sales document by ID within a tenant
func (r *GormSalesDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesDocument, error) {
	var model models.SalesDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a document by its number. A live document wins over voided ones that
// carried the same number earlier; among voided documents the most recent is returned.
// Two types can share a prefix after UpdatePrefix, so callers pass docType to disambiguate.
func (r *GormSalesDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string, docType sales.DocumentType) (*sales.SalesDocument, error) {
	var model models.SalesDocumentModel
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND document_number = ?", tenantID, documentNumber)
	if docType != "" {
		query = query.Where("document_type = ?", docType)
	}
	if err := query.
		Order(fmt.Sprintf("CASE WHEN status = '%s' THEN 0 ELSE 1 END", sales.DocumentStatusIssued)).
		Order("issued_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all sales documents for a tenant with filtering
func (r *GormSalesDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.SalesDocument, error) {
	var rows []models.SalesDocumentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SalesDocumentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return lo.Map(rows, func(m models.SalesDocumentModel, _ int) sales.SalesDocument {
		return *m.ToDomain()
	}), nil
}

// CountForTenant counts sales documents for a tenant with filters
func (r *GormSalesDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SalesDocumentModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsActiveNumber reports whether a non-voided document of the type already carries the number
func (r *GormSalesDocumentRepository) ExistsActiveNumber(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, documentNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesDocumentModel{}).
		Where("tenant_id = ? AND document_type = ? AND document_number = ? AND status <> ?",
			tenantID, docType, documentNumber, sales.DocumentStatusVoided).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check document number: %w", err)
	}
	return count > 0, nil
}

// ListNumbers returns every number ever issued for (tenant, type), voided documents included
func (r *GormSalesDocumentRepository) ListNumbers(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) ([]string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&models.SalesDocumentModel{}).
		Where("tenant_id = ? AND document_type = ?", tenantID, docType).
		Pluck("document_number", &numbers).Error; err != nil {
		return nil, fmt.Errorf("failed to list document numbers: %w", err)
	}
	return numbers, nil
}

// Save creates a new sales document or updates an existing one.
// A second live document with the same number is rejected by the partial unique index.
// Updates use optimistic locking: doc.Version already carries the bump from Touch, so the
// stored row must still hold doc.Version-1 or the save fails with ErrConcurrentModification.
func (r *GormSalesDocumentRepository) Save(ctx context.Context, doc *sales.SalesDocument) error {
	model := models.SalesDocumentModelFromDomain(doc)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var versions []int
		if err := tx.Model(&models.SalesDocumentModel{}).
			Where("tenant_id = ? AND id = ?", doc.TenantID, doc.ID).
			Pluck("version", &versions).Error; err != nil {
			return err
		}
		if len(versions) == 0 {
			return tx.Create(model).Error
		}

		expected := doc.Version - 1
		if versions[0] != expected {
			return shared.ErrConcurrentModification
		}

		result := tx.Model(&models.SalesDocumentModel{}).
			Where("tenant_id = ? AND id = ? AND version = ?", doc.TenantID, doc.ID, expected).
			Updates(map[string]interface{}{
				"status":        model.Status,
				"customer_name": model.CustomerName,
				"vehicle_vrm":   model.VehicleVRM,
				"amount":        model.Amount,
				"notes":         model.Notes,
				"voided_at":     model.VoidedAt,
				"void_reason":   model.VoidReason,
				"version":       model.Version,
				"updated_at":    model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("Document number %s is already in use", doc.DocumentNumber))
		}
		if errors.Is(err, shared.ErrConcurrentModification) {
			return shared.NewDomainError("CONCURRENT_MODIFICATION",
				fmt.Sprintf("Document %s has been modified by another request", doc.DocumentNumber))
		}
		return err
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormSalesDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, SalesDocumentSortFields, "issued_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSalesDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(document_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(vehicle_vrm) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "document_type":
			query = query.Where("document_type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "vehicle_vrm":
			query = query.Where("vehicle_vrm = ?", value)
		case "issued_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("issued_at >= ?", t)
			}
		case "issued_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("issued_at <= ?", t)
			}
		}
	}

	return query
}

// Ensure GormSalesDocumentRepository implements SalesDocumentRepository
var _ sales.SalesDocumentRepository = (*GormSalesDocumentRepository)(nil)
