package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rateview/domain"
)

type ExposureSlotRepository struct {
	DB *gorm.DB
}

func NewExposureSlotRepository(db *gorm.DB) *ExposureSlotRepository {
	return &ExposureSlotRepository{DB: db}
}

// Get returns the slot for (slotContext, userID), or nil when none exists.
// userID is empty for anonymous traffic.
func (r *ExposureSlotRepository) Get(ctx context.Context, slotContext, userID string) (*domain.ExposureSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var slot domain.ExposureSlot
	err := r.DB.WithContext(ctx).
		Where("context = ? AND user_id = ?", slotContext, userID).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query exposure slot: %w", err)
	}

	return &slot, nil
}

// Upsert writes the slot keyed by (context, user_id); at most one active slot
// exists per key.
func (r *ExposureSlotRepository) Upsert(ctx context.Context, slot *domain.ExposureSlot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "context"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload_json", "generated_at", "expires_at"}),
		},
	).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to upsert exposure slot: %w", err)
	}

	return nil
}

func (r *ExposureSlotRepository) Delete(ctx context.Context, slotContext, userID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).
		Where("context = ? AND user_id = ?", slotContext, userID).
		Delete(&domain.ExposureSlot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete exposure slot: %w", err)
	}

	return nil
}

func (r *ExposureSlotRepository) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Where("1 = 1").Delete(&domain.ExposureSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete exposure slots: %w", err)
	}

	return nil
}
