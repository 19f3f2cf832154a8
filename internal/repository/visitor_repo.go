package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/voicedesk/openmic-bridge/internal/domain"
	"gorm.io/gorm"
)

// GormVisitorRepository handles database operations for visitors
type GormVisitorRepository struct {
	db *gorm.DB
}

// NewGormVisitorRepository creates a new visitor repository
func NewGormVisitorRepository(db *gorm.DB) *GormVisitorRepository {
	return &GormVisitorRepository{db: db}
}

// GetByPhone retrieves a visitor by its phone correlation key
func (r *GormVisitorRepository) GetByPhone(ctx context.Context, phone string) (*domain.Visitor, error) {
	if phone == "" {
		return nil, nil
	}

	var visitor domain.Visitor
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&visitor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get visitor by phone: %w", err)
	}
	return &visitor, nil
}

// FirstOrCreate returns the visitor owning visitor.Phone, creating it with visitor.Name when absent
func (r *GormVisitorRepository) FirstOrCreate(ctx context.Context, visitor *domain.Visitor) (*domain.Visitor, error) {
	if visitor == nil || visitor.Phone == "" {
		return nil, fmt.Errorf("visitor phone cannot be empty")
	}

	var out domain.Visitor
	err := r.db.WithContext(ctx).
		Where(domain.Visitor{Phone: visitor.Phone}).
		Attrs(domain.Visitor{Name: visitor.Name}).
		FirstOrCreate(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert visitor: %w", err)
	}
	return &out, nil
}
