package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rateview/domain"
	"rateview/pkg/logger"
)

type PromotionRepository struct {
	DB *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{DB: db}
}

// ListActive returns active promotions with criteria/benefits parsed and
// product scopes attached, in stable creation order. A row whose JSON blobs
// fail validation is skipped and logged rather than failing the call.
func (r *PromotionRepository) ListActive(ctx context.Context) ([]domain.Promotion, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var promos []domain.Promotion
	err := r.DB.WithContext(ctx).
		Where("status = ?", domain.PromotionStatusActive).
		Order("created_at ASC").
		Order("id ASC").
		Find(&promos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active promotions: %w", err)
	}
	if len(promos) == 0 {
		return promos, nil
	}

	promoIDs := make([]uuid.UUID, 0, len(promos))
	for _, p := range promos {
		promoIDs = append(promoIDs, p.ID)
	}

	var links []domain.PromotionProduct
	err = r.DB.WithContext(ctx).
		Where("promotion_id IN ?", promoIDs).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list promotion products: %w", err)
	}

	productsByPromo := make(map[uuid.UUID][]uuid.UUID, len(promos))
	for _, link := range links {
		productsByPromo[link.PromotionID] = append(productsByPromo[link.PromotionID], link.ProductID)
	}

	valid := promos[:0]
	for i := range promos {
		promo := promos[i]
		promo.ProductIDs = productsByPromo[promo.ID]
		if err := promo.ParseBlobs(); err != nil {
			logger.Warn("skipping malformed promotion", "promotion_id", promo.ID, "error", err)
			continue
		}
		valid = append(valid, promo)
	}

	return valid, nil
}
