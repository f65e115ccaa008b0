package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/domain/shared"
	"github.com/partnerhub/backend/internal/infrastructure/persistence/models"
)

// GormRemoteInvoiceRepository implements billingsync.RemoteInvoiceRepository using GORM
type GormRemoteInvoiceRepository struct {
	db *gorm.DB
}

// NewGormRemoteInvoiceRepository creates a new GormRemoteInvoiceRepository
func NewGormRemoteInvoiceRepository(db *gorm.DB) *GormRemoteInvoiceRepository {
	return &GormRemoteInvoiceRepository{db: db}
}

// FindByID finds a mirrored invoice by its local id
func (r *GormRemoteInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billingsync.RemoteInvoice, error) {
	var model models.RemoteInvoiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRemoteID finds a mirrored invoice by its (connection, remote id) pair
func (r *GormRemoteInvoiceRepository) FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*billingsync.RemoteInvoice, error) {
	var model models.RemoteInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ? AND remote_id = ?", connectionID, remoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new mirrored invoice row
func (r *GormRemoteInvoiceRepository) Create(ctx context.Context, invoice *billingsync.RemoteInvoice) error {
	var model models.RemoteInvoiceModel
	model.FromDomain(invoice)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update rewrites all mapped fields of an existing mirrored invoice row
func (r *GormRemoteInvoiceRepository) Update(ctx context.Context, invoice *billingsync.RemoteInvoice) error {
	var model models.RemoteInvoiceModel
	model.FromDomain(invoice)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SetContractLink applies the tri-state contract linkage on an invoice.
// A map update is used deliberately: NULL and false must be written even
// though they are zero values.
func (r *GormRemoteInvoiceRepository) SetContractLink(ctx context.Context, id uuid.UUID, contractID *uuid.UUID, noContract bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.RemoteInvoiceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"contract_id": contractID,
			"no_contract": noContract,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByConnection returns how many invoices are stored for the connection
func (r *GormRemoteInvoiceRepository) CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RemoteInvoiceModel{}).
		Where("connection_id = ?", connectionID).
		Count(&count).Error
	return count, err
}
