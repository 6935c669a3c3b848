package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CREATE TABLE public.product_engagement_daily (
//     id          UUID PRIMARY KEY,
//     product_id  UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
//     date        DATE NOT NULL,
//     views       INTEGER NOT NULL DEFAULT 0,
//     clicks      INTEGER NOT NULL DEFAULT 0,
//     carts       INTEGER NOT NULL DEFAULT 0,
//     purchases   INTEGER NOT NULL DEFAULT 0,
//     revenue     NUMERIC(14,2) NOT NULL DEFAULT 0,
//     updated_at  TIMESTAMPTZ NOT NULL,
//     UNIQUE (product_id, date)
// );

// ProductEngagementDaily holds one day of per-product counters. Counters only
// ever grow within a day; rows are written by the ingestion path and read by
// the scoring engine.
type ProductEngagementDaily struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_product_engagement_daily_product_date" json:"product_id"`
	Date      time.Time       `gorm:"column:date;type:date;not null;uniqueIndex:uq_product_engagement_daily_product_date;index" json:"date"`
	Views     int             `gorm:"column:views;not null;default:0" json:"views"`
	Clicks    int             `gorm:"column:clicks;not null;default:0" json:"clicks"`
	Carts     int             `gorm:"column:carts;not null;default:0" json:"carts"`
	Purchases int             `gorm:"column:purchases;not null;default:0" json:"purchases"`
	Revenue   decimal.Decimal `gorm:"column:revenue;type:numeric(14,2);not null;default:0" json:"revenue"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ProductEngagementDaily) TableName() string {
	return "product_engagement_daily"
}

// CustomerEngagementDaily mirrors the product counters per customer, plus
// loyalty points. Consumed for cross-engine context only, never for scoring.
type CustomerEngagementDaily struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID   string    `gorm:"column:customer_id;not null;uniqueIndex:uq_customer_engagement_daily_user_date" json:"customer_id"`
	Date         time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_customer_engagement_daily_user_date;index" json:"date"`
	Views        int       `gorm:"column:views;not null;default:0" json:"views"`
	Clicks       int       `gorm:"column:clicks;not null;default:0" json:"clicks"`
	Carts        int       `gorm:"column:carts;not null;default:0" json:"carts"`
	Purchases    int       `gorm:"column:purchases;not null;default:0" json:"purchases"`
	PointsEarned int       `gorm:"column:points_earned;not null;default:0" json:"points_earned"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CustomerEngagementDaily) TableName() string {
	return "customer_engagement_daily"
}

const (
	EventTypeView      = "view"
	EventTypeClick     = "click"
	EventTypeAddToCart = "add_to_cart"
	EventTypePurchase  = "purchase"
)

// EngagementEvent is a raw tracker event. It is buffered in memory and folded
// into the daily aggregates; it is never persisted as-is.
type EngagementEvent struct {
	EventType string           `json:"event_type"`
	ProductID uuid.UUID        `json:"product_id"`
	UserID    string           `json:"user_id,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Quantity  int              `json:"quantity,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
