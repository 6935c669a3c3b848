package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PromotionType string

const (
	PromotionTypeCategory PromotionType = "category"
	PromotionTypeProduct  PromotionType = "product"
	PromotionTypeCustomer PromotionType = "customer"
)

type PromotionStatus string

const (
	PromotionStatusDraft     PromotionStatus = "draft"
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusScheduled PromotionStatus = "scheduled"
	PromotionStatusExpired   PromotionStatus = "expired"
)

// PromotionCriteria is the typed form of the criteria_json column. Which
// fields are meaningful depends on the promotion type; Validate enforces the
// per-type shape so malformed rows fail at load time, not at matching time.
type PromotionCriteria struct {
	CategoryIDs   []uuid.UUID      `json:"category_ids,omitempty"`
	ProductIDs    []uuid.UUID      `json:"product_ids,omitempty"`
	CustomerIDs   []string         `json:"customer_ids,omitempty"`
	MinOrderTotal *decimal.Decimal `json:"min_order_total,omitempty"`
}

type PromotionBenefits struct {
	DiscountPercent  *decimal.Decimal `json:"discount_percent,omitempty"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount,omitempty"`
	PointsMultiplier *decimal.Decimal `json:"points_multiplier,omitempty"`
}

// CREATE TABLE public.promotions (
//     id             UUID PRIMARY KEY,
//     name           VARCHAR(180) NOT NULL,
//     type           TEXT NOT NULL,
//     scope          VARCHAR(80) NOT NULL DEFAULT 'global',
//     criteria_json  JSONB NOT NULL DEFAULT '{}',
//     benefits_json  JSONB NOT NULL DEFAULT '{}',
//     start_at       TIMESTAMPTZ NOT NULL,
//     end_at         TIMESTAMPTZ NOT NULL,
//     status         TEXT NOT NULL DEFAULT 'draft'
// );

type Promotion struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"column:name;type:varchar(180);not null" json:"name"`
	Type         PromotionType   `gorm:"column:type;not null" json:"type"`
	Scope        string          `gorm:"column:scope;type:varchar(80);not null;default:global" json:"scope"`
	CriteriaJSON datatypes.JSON  `gorm:"column:criteria_json;not null" json:"criteria_json"`
	BenefitsJSON datatypes.JSON  `gorm:"column:benefits_json;not null" json:"benefits_json"`
	StartAt      time.Time       `gorm:"column:start_at;not null" json:"start_at"`
	EndAt        time.Time       `gorm:"column:end_at;not null" json:"end_at"`
	Status       PromotionStatus `gorm:"column:status;index;not null;default:draft" json:"status"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Product IDs scoped to this promotion, loaded from promotion_products.
	ProductIDs []uuid.UUID `gorm:"-" json:"product_ids,omitempty"`

	// Parsed criteria/benefits, populated by ParseBlobs.
	Criteria PromotionCriteria `gorm:"-" json:"-"`
	Benefits PromotionBenefits `gorm:"-" json:"-"`
}

func (Promotion) TableName() string {
	return "promotions"
}

type PromotionProduct struct {
	PromotionID uuid.UUID `gorm:"column:promotion_id;type:uuid;primaryKey" json:"promotion_id"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
}

func (PromotionProduct) TableName() string {
	return "promotion_products"
}

// ParseBlobs decodes criteria_json and benefits_json into the typed fields
// and validates them against the promotion type.
func (p *Promotion) ParseBlobs() error {
	if len(p.CriteriaJSON) > 0 {
		if err := json.Unmarshal(p.CriteriaJSON, &p.Criteria); err != nil {
			return fmt.Errorf("promotion %s: invalid criteria_json: %w", p.ID, err)
		}
	}
	if len(p.BenefitsJSON) > 0 {
		if err := json.Unmarshal(p.BenefitsJSON, &p.Benefits); err != nil {
			return fmt.Errorf("promotion %s: invalid benefits_json: %w", p.ID, err)
		}
	}

	switch p.Type {
	case PromotionTypeCategory, PromotionTypeProduct:
		// category promos with an empty list match every category; product
		// promos carry their scope in promotion_products
	case PromotionTypeCustomer:
		if len(p.Criteria.CustomerIDs) == 0 && p.Criteria.MinOrderTotal == nil {
			return fmt.Errorf("promotion %s: customer promotion without customer criteria", p.ID)
		}
	default:
		return fmt.Errorf("promotion %s: unknown type %q", p.ID, p.Type)
	}

	return nil
}

// MatchesCategory reports whether a category-type promotion applies to the
// given category. An empty criteria list matches everything.
func (p *Promotion) MatchesCategory(categoryID uuid.UUID) bool {
	if p.Type != PromotionTypeCategory {
		return false
	}
	if len(p.Criteria.CategoryIDs) == 0 {
		return true
	}
	for _, id := range p.Criteria.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}
