package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rateview/domain"
)

// marginRate approximates gross margin as a share of sale price until the
// inventory subsystem exposes real unit costs.
var marginRate = decimal.NewFromFloat(0.35)

// CatalogClient answers the narrow financial-metrics reads the scoring engine
// and exposure builder need from the catalog. A missing product yields zero
// metrics, never an error.
type CatalogClient struct {
	DB *gorm.DB
}

func NewCatalogClient(db *gorm.DB) *CatalogClient {
	return &CatalogClient{DB: db}
}

func (c *CatalogClient) GetFinancialMetrics(ctx context.Context, productID uuid.UUID) (domain.FinancialMetrics, error) {
	if err := ctx.Err(); err != nil {
		return domain.FinancialMetrics{}, fmt.Errorf("context error: %w", err)
	}

	var product domain.Product
	err := c.DB.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.FinancialMetrics{Margin: decimal.Zero}, nil
	}
	if err != nil {
		return domain.FinancialMetrics{}, fmt.Errorf("failed to load product: %w", err)
	}

	return domain.FinancialMetrics{
		Margin:      product.Price.Mul(marginRate),
		StockOnHand: product.Stock,
		CategoryID:  product.CategoryID,
	}, nil
}
