package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rateview/domain"
)

type EngagementRepository struct {
	DB *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{DB: db}
}

// ListProductDailySince returns every per-product daily row with date >= start.
func (r *EngagementRepository) ListProductDailySince(ctx context.Context, start time.Time) ([]domain.ProductEngagementDaily, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.ProductEngagementDaily
	err := r.DB.WithContext(ctx).
		Where("date >= ?", start.Format("2006-01-02")).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product engagement: %w", err)
	}

	return rows, nil
}

// AddProductDaily increments the daily counters for (productID, date),
// creating the row when absent. Increments are non-negative so counters never
// move downward within a day.
func (r *EngagementRepository) AddProductDaily(
	ctx context.Context,
	productID uuid.UUID,
	date time.Time,
	views, clicks, carts, purchases int,
	revenue decimal.Decimal,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row := domain.ProductEngagementDaily{
		ID:        uuid.New(),
		ProductID: productID,
		Date:      date,
		Views:     views,
		Clicks:    clicks,
		Carts:     carts,
		Purchases: purchases,
		Revenue:   revenue,
	}

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"views":      gorm.Expr("product_engagement_daily.views + ?", views),
			"clicks":     gorm.Expr("product_engagement_daily.clicks + ?", clicks),
			"carts":      gorm.Expr("product_engagement_daily.carts + ?", carts),
			"purchases":  gorm.Expr("product_engagement_daily.purchases + ?", purchases),
			"revenue":    gorm.Expr("product_engagement_daily.revenue + ?", revenue),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product engagement: %w", err)
	}

	return nil
}

// AddCustomerDaily increments the daily counters for (customerID, date).
func (r *EngagementRepository) AddCustomerDaily(
	ctx context.Context,
	customerID string,
	date time.Time,
	views, clicks, carts, purchases, points int,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row := domain.CustomerEngagementDaily{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Date:         date,
		Views:        views,
		Clicks:       clicks,
		Carts:        carts,
		Purchases:    purchases,
		PointsEarned: points,
	}

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"views":         gorm.Expr("customer_engagement_daily.views + ?", views),
			"clicks":        gorm.Expr("customer_engagement_daily.clicks + ?", clicks),
			"carts":         gorm.Expr("customer_engagement_daily.carts + ?", carts),
			"purchases":     gorm.Expr("customer_engagement_daily.purchases + ?", purchases),
			"points_earned": gorm.Expr("customer_engagement_daily.points_earned + ?", points),
			"updated_at":    time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert customer engagement: %w", err)
	}

	return nil
}

// ListProductDaily returns daily rows for one product, optionally for one day.
func (r *EngagementRepository) ListProductDaily(ctx context.Context, productID uuid.UUID, day *time.Time) ([]domain.ProductEngagementDaily, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).Where("product_id = ?", productID)
	if day != nil {
		query = query.Where("date = ?", day.Format("2006-01-02"))
	}

	var rows []domain.ProductEngagementDaily
	if err := query.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list product engagement: %w", err)
	}

	return rows, nil
}

// ListCustomerDaily returns daily rows for one customer, optionally for one day.
func (r *EngagementRepository) ListCustomerDaily(ctx context.Context, customerID string, day *time.Time) ([]domain.CustomerEngagementDaily, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).Where("customer_id = ?", customerID)
	if day != nil {
		query = query.Where("date = ?", day.Format("2006-01-02"))
	}

	var rows []domain.CustomerEngagementDaily
	if err := query.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list customer engagement: %w", err)
	}

	return rows, nil
}
