package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rateview/domain"
	"rateview/pkg/logger"
)

// pointsPerPurchase is the loyalty points earned per purchased unit.
const pointsPerPurchase = 10

// ---- Repository interfaces ----

type EngagementRepository interface {
	AddProductDaily(ctx context.Context, productID uuid.UUID, date time.Time, views, clicks, carts, purchases int, revenue decimal.Decimal) error
	AddCustomerDaily(ctx context.Context, customerID string, date time.Time, views, clicks, carts, purchases, points int) error
	ListProductDaily(ctx context.Context, productID uuid.UUID, day *time.Time) ([]domain.ProductEngagementDaily, error)
	ListCustomerDaily(ctx context.Context, customerID string, day *time.Time) ([]domain.CustomerEngagementDaily, error)
}

// ---- Service ----

// EngagementService folds raw tracker events into the daily aggregate rows
// the scoring engine reads. Events pass through an owned bounded buffer with
// hourly bucketing and LRU dedup.
type EngagementService struct {
	repo   EngagementRepository
	buffer *EventBuffer
}

func NewEngagementService(repo EngagementRepository, buffer *EventBuffer) *EngagementService {
	return &EngagementService{
		repo:   repo,
		buffer: buffer,
	}
}

type productTotals struct {
	views     int
	clicks    int
	carts     int
	purchases int
	revenue   decimal.Decimal
}

type customerTotals struct {
	views     int
	clicks    int
	carts     int
	purchases int
	points    int
}

// RecordEvent buffers one event and flushes its hourly bucket into the daily
// aggregates. Duplicates within a bucket are acknowledged but not counted;
// accepted=false marks them.
func (s *EngagementService) RecordEvent(ctx context.Context, event domain.EngagementEvent) (accepted bool, err error) {
	switch event.EventType {
	case domain.EventTypeView, domain.EventTypeClick, domain.EventTypeAddToCart, domain.EventTypePurchase:
	default:
		return false, fmt.Errorf("unknown event type: %s", event.EventType)
	}
	if event.ProductID == uuid.Nil {
		return false, fmt.Errorf("product_id is required")
	}

	bucket, accepted := s.buffer.Enqueue(event)
	if !accepted {
		return false, nil
	}

	if err := s.flushBucket(ctx, bucket); err != nil {
		return true, err
	}

	return true, nil
}

// FlushPending drains every buffered bucket. Periodic-worker entry point.
func (s *EngagementService) FlushPending(ctx context.Context) error {
	for _, bucket := range s.buffer.Buckets() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context error: %w", err)
		}
		if err := s.flushBucket(ctx, bucket); err != nil {
			return err
		}
	}

	return nil
}

func (s *EngagementService) GetProductEngagement(ctx context.Context, productID uuid.UUID, day *time.Time) ([]domain.ProductEngagementDaily, error) {
	return s.repo.ListProductDaily(ctx, productID, day)
}

func (s *EngagementService) GetCustomerEngagement(ctx context.Context, customerID string, day *time.Time) ([]domain.CustomerEngagementDaily, error) {
	return s.repo.ListCustomerDaily(ctx, customerID, day)
}

// flushBucket reduces one hourly bucket into per-product and per-customer
// totals and applies them as monotonic increments on the daily rows.
func (s *EngagementService) flushBucket(ctx context.Context, bucket time.Time) error {
	events := s.buffer.DrainBucket(bucket)
	if len(events) == 0 {
		return nil
	}

	byProduct := make(map[uuid.UUID]*productTotals)
	byCustomer := make(map[string]*customerTotals)

	for _, event := range events {
		product, ok := byProduct[event.ProductID]
		if !ok {
			product = &productTotals{revenue: decimal.Zero}
			byProduct[event.ProductID] = product
		}

		var customer *customerTotals
		if event.UserID != "" {
			customer, ok = byCustomer[event.UserID]
			if !ok {
				customer = &customerTotals{}
				byCustomer[event.UserID] = customer
			}
		}

		quantity := event.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		switch event.EventType {
		case domain.EventTypeView:
			product.views++
			if customer != nil {
				customer.views++
			}
		case domain.EventTypeClick:
			product.clicks++
			if customer != nil {
				customer.clicks++
			}
		case domain.EventTypeAddToCart:
			product.carts += quantity
			if customer != nil {
				customer.carts += quantity
			}
		case domain.EventTypePurchase:
			product.purchases += quantity
			if event.Price != nil {
				product.revenue = product.revenue.Add(event.Price.Mul(decimal.NewFromInt(int64(quantity))))
			}
			if customer != nil {
				customer.purchases += quantity
				customer.points += quantity * pointsPerPurchase
			}
		}
	}

	date := time.Date(bucket.Year(), bucket.Month(), bucket.Day(), 0, 0, 0, 0, time.UTC)

	for productID, totals := range byProduct {
		err := s.repo.AddProductDaily(ctx, productID, date,
			totals.views, totals.clicks, totals.carts, totals.purchases, totals.revenue)
		if err != nil {
			return fmt.Errorf("apply product aggregate: %w", err)
		}
	}

	for customerID, totals := range byCustomer {
		err := s.repo.AddCustomerDaily(ctx, customerID, date,
			totals.views, totals.clicks, totals.carts, totals.purchases, totals.points)
		if err != nil {
			return fmt.Errorf("apply customer aggregate: %w", err)
		}
	}

	logger.Debug("engagement_flush",
		"bucket", bucket,
		"events", len(events),
		"products", len(byProduct),
		"customers", len(byCustomer),
	)

	return nil
}
