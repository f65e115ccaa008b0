package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/domain/shared"
	"github.com/partnerhub/backend/internal/infrastructure/persistence/models"
)

// GormBillingConnectionRepository implements billingsync.ConnectionRepository using GORM
type GormBillingConnectionRepository struct {
	db *gorm.DB
}

// NewGormBillingConnectionRepository creates a new GormBillingConnectionRepository
func NewGormBillingConnectionRepository(db *gorm.DB) *GormBillingConnectionRepository {
	return &GormBillingConnectionRepository{db: db}
}

// Create persists a new billing connection
func (r *GormBillingConnectionRepository) Create(ctx context.Context, conn *billingsync.Connection) error {
	var model models.BillingConnectionModel
	model.FromDomain(conn)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists all fields of an existing billing connection
func (r *GormBillingConnectionRepository) Update(ctx context.Context, conn *billingsync.Connection) error {
	var model models.BillingConnectionModel
	model.FromDomain(conn)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a billing connection and is expected to cascade to its
// mirrored rows at the schema level
func (r *GormBillingConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BillingConnectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a billing connection by its ID
func (r *GormBillingConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billingsync.Connection, error) {
	var model models.BillingConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a billing connection by its unique name
func (r *GormBillingConnectionRepository) FindByName(ctx context.Context, name string) (*billingsync.Connection, error) {
	var model models.BillingConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every billing connection ordered by creation time
func (r *GormBillingConnectionRepository) FindAll(ctx context.Context) ([]billingsync.Connection, error) {
	var connectionModels []models.BillingConnectionModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	connections := make([]billingsync.Connection, len(connectionModels))
	for i, model := range connectionModels {
		connections[i] = *model.ToDomain()
	}
	return connections, nil
}

// FindActive returns every connection flagged active, in creation order.
// The scheduler syncs these on each tick.
func (r *GormBillingConnectionRepository) FindActive(ctx context.Context) ([]billingsync.Connection, error) {
	var connectionModels []models.BillingConnectionModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	connections := make([]billingsync.Connection, len(connectionModels))
	for i, model := range connectionModels {
		connections[i] = *model.ToDomain()
	}
	return connections, nil
}

// RecordSyncOutcome updates only the last-sync status fields of a connection
func (r *GormBillingConnectionRepository) RecordSyncOutcome(ctx context.Context, id uuid.UUID, at time.Time, status billingsync.SyncStatus, errText string) error {
	result := r.db.WithContext(ctx).Model(&models.BillingConnectionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_sync_at":     at,
			"last_sync_status": status.String(),
			"last_sync_error":  errText,
			"updated_at":       at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
