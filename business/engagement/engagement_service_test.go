package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rateview/domain"
)

type productCall struct {
	productID uuid.UUID
	date      time.Time
	views     int
	clicks    int
	carts     int
	purchases int
	revenue   decimal.Decimal
}

type customerCall struct {
	customerID string
	date       time.Time
	views      int
	purchases  int
	points     int
}

type fakeEngagementStore struct {
	productCalls  []productCall
	customerCalls []customerCall
}

func (f *fakeEngagementStore) AddProductDaily(ctx context.Context, productID uuid.UUID, date time.Time, views, clicks, carts, purchases int, revenue decimal.Decimal) error {
	f.productCalls = append(f.productCalls, productCall{
		productID: productID,
		date:      date,
		views:     views,
		clicks:    clicks,
		carts:     carts,
		purchases: purchases,
		revenue:   revenue,
	})
	return nil
}

func (f *fakeEngagementStore) AddCustomerDaily(ctx context.Context, customerID string, date time.Time, views, clicks, carts, purchases, points int) error {
	f.customerCalls = append(f.customerCalls, customerCall{
		customerID: customerID,
		date:       date,
		views:      views,
		purchases:  purchases,
		points:     points,
	})
	return nil
}

func (f *fakeEngagementStore) ListProductDaily(ctx context.Context, productID uuid.UUID, day *time.Time) ([]domain.ProductEngagementDaily, error) {
	return nil, nil
}

func (f *fakeEngagementStore) ListCustomerDaily(ctx context.Context, customerID string, day *time.Time) ([]domain.CustomerEngagementDaily, error) {
	return nil, nil
}

func TestRecordEvent_PurchaseAggregatesRevenueAndPoints(t *testing.T) {
	store := &fakeEngagementStore{}
	svc := NewEngagementService(store, NewEventBuffer(100, 100))

	price := decimal.RequireFromString("10.50")
	ts := time.Date(2026, 8, 27, 9, 15, 0, 0, time.UTC)
	accepted, err := svc.RecordEvent(context.Background(), domain.EngagementEvent{
		EventType: domain.EventTypePurchase,
		ProductID: uuid.New(),
		UserID:    "u1",
		Quantity:  2,
		Price:     &price,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if !accepted {
		t.Fatal("event was not accepted")
	}

	if len(store.productCalls) != 1 {
		t.Fatalf("product calls = %d, want 1", len(store.productCalls))
	}
	product := store.productCalls[0]
	if product.purchases != 2 {
		t.Errorf("purchases = %d, want quantity of 2", product.purchases)
	}
	if want := decimal.RequireFromString("21.00"); !product.revenue.Equal(want) {
		t.Errorf("revenue = %s, want %s", product.revenue, want)
	}
	if want := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC); !product.date.Equal(want) {
		t.Errorf("aggregate date = %v, want %v", product.date, want)
	}

	if len(store.customerCalls) != 1 {
		t.Fatalf("customer calls = %d, want 1", len(store.customerCalls))
	}
	customer := store.customerCalls[0]
	if customer.points != 20 {
		t.Errorf("points = %d, want 2 units x 10 points", customer.points)
	}
	if customer.purchases != 2 {
		t.Errorf("customer purchases = %d, want 2", customer.purchases)
	}
}

func TestRecordEvent_AnonymousViewSkipsCustomerRow(t *testing.T) {
	store := &fakeEngagementStore{}
	svc := NewEngagementService(store, NewEventBuffer(100, 100))

	accepted, err := svc.RecordEvent(context.Background(), domain.EngagementEvent{
		EventType: domain.EventTypeView,
		ProductID: uuid.New(),
		SessionID: "s1",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if !accepted {
		t.Fatal("event was not accepted")
	}

	if len(store.productCalls) != 1 || store.productCalls[0].views != 1 {
		t.Fatalf("product calls = %+v, want one view", store.productCalls)
	}
	if len(store.customerCalls) != 0 {
		t.Fatalf("anonymous event produced customer rows: %+v", store.customerCalls)
	}
}

func TestRecordEvent_RejectsInvalidEvents(t *testing.T) {
	svc := NewEngagementService(&fakeEngagementStore{}, NewEventBuffer(100, 100))

	if _, err := svc.RecordEvent(context.Background(), domain.EngagementEvent{
		EventType: "hover",
		ProductID: uuid.New(),
	}); err == nil {
		t.Error("unknown event type was accepted")
	}

	if _, err := svc.RecordEvent(context.Background(), domain.EngagementEvent{
		EventType: domain.EventTypeView,
	}); err == nil {
		t.Error("event without product_id was accepted")
	}
}

func TestRecordEvent_DuplicateAcknowledgedNotCounted(t *testing.T) {
	store := &fakeEngagementStore{}
	svc := NewEngagementService(store, NewEventBuffer(100, 100))

	event := domain.EngagementEvent{
		EventType: domain.EventTypeView,
		ProductID: uuid.New(),
		UserID:    "u1",
		Timestamp: time.Date(2026, 8, 27, 9, 15, 0, 0, time.UTC),
	}

	if accepted, err := svc.RecordEvent(context.Background(), event); err != nil || !accepted {
		t.Fatalf("first event: accepted=%v err=%v", accepted, err)
	}
	accepted, err := svc.RecordEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("duplicate event: %v", err)
	}
	if accepted {
		t.Fatal("duplicate event reported as accepted")
	}
	if len(store.productCalls) != 1 {
		t.Fatalf("duplicate was counted: %d product calls", len(store.productCalls))
	}
}

func TestFlushPending_DrainsAllBuckets(t *testing.T) {
	store := &fakeEngagementStore{}
	buffer := NewEventBuffer(100, 100)
	svc := NewEngagementService(store, buffer)

	// enqueue directly so RecordEvent's immediate flush is bypassed
	buffer.Enqueue(domain.EngagementEvent{
		EventType: domain.EventTypeView,
		ProductID: uuid.New(),
		Timestamp: time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
	})
	buffer.Enqueue(domain.EngagementEvent{
		EventType: domain.EventTypeClick,
		ProductID: uuid.New(),
		Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
	})

	if err := svc.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}
	if buffer.Len() != 0 {
		t.Fatalf("buffer len after flush = %d, want 0", buffer.Len())
	}
	if len(store.productCalls) != 2 {
		t.Fatalf("product calls = %d, want 2", len(store.productCalls))
	}
}
