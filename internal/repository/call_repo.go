package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voicedesk/openmic-bridge/internal/domain"
	"gorm.io/gorm"
)

// ErrDuplicateCall is returned by Append when the external call id was already recorded
var ErrDuplicateCall = errors.New("call already recorded")

// GormCallRepository handles the append-only call log
type GormCallRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCallRepository creates a new call repository
func NewGormCallRepository(db *gorm.DB) *GormCallRepository {
	return newGormCallRepository(db, time.Now)
}

func newGormCallRepository(db *gorm.DB, now func() time.Time) *GormCallRepository {
	return &GormCallRepository{db: db, now: now}
}

// Append inserts a new call. ID and CreatedAt are always assigned here,
// whatever the caller put in them.
func (r *GormCallRepository) Append(ctx context.Context, call *domain.Call) error {
	if call == nil {
		return fmt.Errorf("call cannot be nil")
	}
	if call.VisitorID == 0 {
		return fmt.Errorf("visitor ID cannot be empty")
	}

	call.ID = 0
	call.CreatedAt = r.now().UTC()
	call.Visitor = nil

	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicateCall, err)
		}
		return fmt.Errorf("failed to append call: %w", err)
	}
	return nil
}

// LatestForVisitor retrieves summary and arrival time of the visitor's most recently inserted call
func (r *GormCallRepository) LatestForVisitor(ctx context.Context, visitorID uint) (*domain.CallSnapshot, error) {
	var snapshots []domain.CallSnapshot
	err := r.db.WithContext(ctx).
		Model(&domain.Call{}).
		Select("summary", "arrival_time").
		Where("visitor_id = ?", visitorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest call: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

// ExistsByExternalID checks whether a call with the platform call id was already recorded
func (r *GormCallRepository) ExistsByExternalID(ctx context.Context, externalCallID string) (bool, error) {
	if externalCallID == "" {
		return false, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Call{}).Where("external_call_id = ?", externalCallID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check call existence: %w", err)
	}
	return count > 0, nil
}
