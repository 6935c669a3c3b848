package domain

import (
	"time"

	"github.com/google/uuid"
)

// CREATE TABLE public.product_rankings (
//     product_id        UUID PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
//     popularity_score  NUMERIC(5,4) NOT NULL DEFAULT 0,
//     cold_score        NUMERIC(5,4) NOT NULL DEFAULT 0,
//     profit_score      NUMERIC(5,4) NOT NULL DEFAULT 0,
//     freshness_score   NUMERIC(5,4) NOT NULL DEFAULT 0,
//     exposure_score    NUMERIC(5,4) NOT NULL DEFAULT 0,
//     updated_at        TIMESTAMPTZ NOT NULL
// );

// ProductRanking is the one-row-per-product output of a scoring run. All five
// scores live in [0,1] and are rounded to four decimals. Only the scoring
// engine writes these rows.
type ProductRanking struct {
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	PopularityScore float64   `gorm:"column:popularity_score;type:numeric(5,4);not null;default:0" json:"popularity_score"`
	ColdScore       float64   `gorm:"column:cold_score;type:numeric(5,4);not null;default:0" json:"cold_score"`
	ProfitScore     float64   `gorm:"column:profit_score;type:numeric(5,4);not null;default:0" json:"profit_score"`
	FreshnessScore  float64   `gorm:"column:freshness_score;type:numeric(5,4);not null;default:0" json:"freshness_score"`
	ExposureScore   float64   `gorm:"column:exposure_score;type:numeric(5,4);not null;default:0" json:"exposure_score"`
	UpdatedAt       time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (ProductRanking) TableName() string {
	return "product_rankings"
}

// RankedCandidate pairs a ranking row with the product metadata the exposure
// builder needs for category capping.
type RankedCandidate struct {
	Ranking    ProductRanking
	CategoryID uuid.UUID
}
