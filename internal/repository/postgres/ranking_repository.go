package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rateview/domain"
)

type RankingRepository struct {
	DB *gorm.DB
}

func NewRankingRepository(db *gorm.DB) *RankingRepository {
	return &RankingRepository{DB: db}
}

// Upsert writes one ranking row, replacing any previous scores for the product.
func (r *RankingRepository) Upsert(ctx context.Context, ranking *domain.ProductRanking) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			UpdateAll: true,
		},
	).Create(ranking).Error; err != nil {
		return fmt.Errorf("failed to upsert product ranking: %w", err)
	}

	return nil
}

// TopByExposure returns the top-N rankings ordered by exposure_score DESC.
func (r *RankingRepository) TopByExposure(ctx context.Context, limit int) ([]domain.ProductRanking, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.ProductRanking
	err := r.DB.WithContext(ctx).
		Order("exposure_score DESC").
		Order("product_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}

	return rows, nil
}

// TopCandidates returns rankings joined with product category metadata,
// ordered by exposure_score DESC with product_id as the stable tiebreak. A
// non-nil categoryID filters to that category.
func (r *RankingRepository) TopCandidates(ctx context.Context, categoryID *uuid.UUID, limit int) ([]domain.RankedCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	type joinedRow struct {
		domain.ProductRanking
		CategoryID uuid.UUID `gorm:"column:category_id"`
	}

	query := r.DB.WithContext(ctx).
		Table("product_rankings").
		Select("product_rankings.*, products.category_id").
		Joins("JOIN products ON products.id = product_rankings.product_id").
		Order("product_rankings.exposure_score DESC").
		Order("product_rankings.product_id ASC").
		Limit(limit)
	if categoryID != nil {
		query = query.Where("products.category_id = ?", *categoryID)
	}

	var rows []joinedRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ranking candidates: %w", err)
	}

	candidates := make([]domain.RankedCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, domain.RankedCandidate{
			Ranking:    row.ProductRanking,
			CategoryID: row.CategoryID,
		})
	}

	return candidates, nil
}
