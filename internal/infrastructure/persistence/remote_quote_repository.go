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

// GormRemoteQuoteRepository implements billingsync.RemoteQuoteRepository using GORM
type GormRemoteQuoteRepository struct {
	db *gorm.DB
}

// NewGormRemoteQuoteRepository creates a new GormRemoteQuoteRepository
func NewGormRemoteQuoteRepository(db *gorm.DB) *GormRemoteQuoteRepository {
	return &GormRemoteQuoteRepository{db: db}
}

// FindByRemoteID finds a mirrored quote by its (connection, remote id) pair
func (r *GormRemoteQuoteRepository) FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*billingsync.RemoteQuote, error) {
	var model models.RemoteQuoteModel
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

// Create inserts a new mirrored quote row
func (r *GormRemoteQuoteRepository) Create(ctx context.Context, quote *billingsync.RemoteQuote) error {
	var model models.RemoteQuoteModel
	model.FromDomain(quote)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update rewrites all mapped fields of an existing mirrored quote row
func (r *GormRemoteQuoteRepository) Update(ctx context.Context, quote *billingsync.RemoteQuote) error {
	var model models.RemoteQuoteModel
	model.FromDomain(quote)
	return r.db.WithContext(ctx).Save(&model).Error
}

// CountByConnection returns how many quotes are stored for the connection
func (r *GormRemoteQuoteRepository) CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RemoteQuoteModel{}).
		Where("connection_id = ?", connectionID).
		Count(&count).Error
	return count, err
}
