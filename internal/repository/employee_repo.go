package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/voicedesk/openmic-bridge/internal/domain"
	"gorm.io/gorm"
)

// GormEmployeeRepository handles read-only employee lookups
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new employee repository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// GetByID retrieves the speakable fields of an employee
func (r *GormEmployeeRepository) GetByID(ctx context.Context, id uint) (*domain.Employee, error) {
	if id == 0 {
		return nil, nil
	}

	var employee domain.Employee
	err := r.db.WithContext(ctx).
		Select("id", "name", "department", "location").
		First(&employee, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &employee, nil
}
