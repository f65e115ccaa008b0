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

// GormRemoteSubscriptionRepository implements billingsync.RemoteSubscriptionRepository using GORM
type GormRemoteSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormRemoteSubscriptionRepository creates a new GormRemoteSubscriptionRepository
func NewGormRemoteSubscriptionRepository(db *gorm.DB) *GormRemoteSubscriptionRepository {
	return &GormRemoteSubscriptionRepository{db: db}
}

// FindByRemoteID finds a mirrored subscription by its (connection, remote id) pair
func (r *GormRemoteSubscriptionRepository) FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*billingsync.RemoteSubscription, error) {
	var model models.RemoteSubscriptionModel
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

// Create inserts a new mirrored subscription row
func (r *GormRemoteSubscriptionRepository) Create(ctx context.Context, sub *billingsync.RemoteSubscription) error {
	var model models.RemoteSubscriptionModel
	model.FromDomain(sub)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update rewrites all mapped fields of an existing mirrored subscription row
func (r *GormRemoteSubscriptionRepository) Update(ctx context.Context, sub *billingsync.RemoteSubscription) error {
	var model models.RemoteSubscriptionModel
	model.FromDomain(sub)
	return r.db.WithContext(ctx).Save(&model).Error
}

// CountByConnection returns how many subscriptions are stored for the connection
func (r *GormRemoteSubscriptionRepository) CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RemoteSubscriptionModel{}).
		Where("connection_id = ?", connectionID).
		Count(&count).Error
	return count, err
}
