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

// GormRemoteCustomerRepository implements billingsync.RemoteCustomerRepository using GORM
type GormRemoteCustomerRepository struct {
	db *gorm.DB
}

// NewGormRemoteCustomerRepository creates a new GormRemoteCustomerRepository
func NewGormRemoteCustomerRepository(db *gorm.DB) *GormRemoteCustomerRepository {
	return &GormRemoteCustomerRepository{db: db}
}

// FindByRemoteID finds a mirrored customer by its (connection, remote id) pair
func (r *GormRemoteCustomerRepository) FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*billingsync.RemoteCustomer, error) {
	var model models.RemoteCustomerModel
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

// Create inserts a new mirrored customer row
func (r *GormRemoteCustomerRepository) Create(ctx context.Context, customer *billingsync.RemoteCustomer) error {
	var model models.RemoteCustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update rewrites all mapped fields of an existing mirrored customer row
func (r *GormRemoteCustomerRepository) Update(ctx context.Context, customer *billingsync.RemoteCustomer) error {
	var model models.RemoteCustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).Save(&model).Error
}

// NamesByConnection returns remote-id to display-name for every customer
// stored under the connection, not only the ones touched by the current run
func (r *GormRemoteCustomerRepository) NamesByConnection(ctx context.Context, connectionID uuid.UUID) (map[string]string, error) {
	var rows []struct {
		RemoteID string
		Name     string
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RemoteCustomerModel{}).
		Select("remote_id", "name").
		Where("connection_id = ?", connectionID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.RemoteID] = row.Name
	}
	return names, nil
}

// CountByConnection returns how many customers are stored for the connection
func (r *GormRemoteCustomerRepository) CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RemoteCustomerModel{}).
		Where("connection_id = ?", connectionID).
		Count(&count).Error
	return count, err
}
