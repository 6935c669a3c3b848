package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CREATE TABLE public.products (
//     id           UUID PRIMARY KEY,
//     name         TEXT NOT NULL,
//     category_id  UUID NOT NULL,
//     price        NUMERIC(12,2) NOT NULL DEFAULT 0,
//     stock        INTEGER NOT NULL DEFAULT 0,
//     created_at   TIMESTAMPTZ DEFAULT NOW()
// );

type Product struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string          `gorm:"column:name;type:text;not null" json:"name"`
	CategoryID uuid.UUID       `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);default:0" json:"price"`
	Stock      int             `gorm:"column:stock;default:0" json:"stock"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:text;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// FinancialMetrics is the narrow read the scoring and exposure engines need
// from the catalog/inventory subsystem.
type FinancialMetrics struct {
	Margin      decimal.Decimal
	StockOnHand int
	CategoryID  uuid.UUID
}
