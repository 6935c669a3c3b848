package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CREATE TABLE public.exposure_slots (
//     slot_id       UUID PRIMARY KEY,
//     context       VARCHAR(50) NOT NULL,
//     user_id       TEXT,
//     payload_json  JSONB NOT NULL,
//     generated_at  TIMESTAMPTZ NOT NULL,
//     expires_at    TIMESTAMPTZ,
//     UNIQUE (context, user_id)
// );

// ExposureSlot persists the last mix built for one (context, user) key. It is
// both the durable cache fallback and the "previously shown" input for the
// next build. Context encodes the display context plus the category filter,
// e.g. "home|all" or "category|<uuid>".
type ExposureSlot struct {
	SlotID      uuid.UUID      `gorm:"column:slot_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	Context     string         `gorm:"column:context;type:varchar(50);not null;uniqueIndex:uq_exposure_slots_context_user" json:"context"`
	UserID      string         `gorm:"column:user_id;uniqueIndex:uq_exposure_slots_context_user" json:"user_id"`
	PayloadJSON datatypes.JSON `gorm:"column:payload_json;not null" json:"payload_json"`
	GeneratedAt time.Time      `gorm:"column:generated_at;not null" json:"generated_at"`
	ExpiresAt   time.Time      `gorm:"column:expires_at;index" json:"expires_at"`
}

func (ExposureSlot) TableName() string {
	return "exposure_slots"
}

// ExposureItem is one entry of a mix. Reason holds ordered human-auditable
// selection tags ("popular_70", "in_stock", "cold_boost_30", "fresh",
// "promo:<id>"); Badges holds display markers ("promo").
type ExposureItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    []string  `json:"reason"`
	Badges    []string  `json:"badges"`
}

// ExposureResponse is the wire payload for GET /exposure. Field names are a
// frontend contract; do not rename.
type ExposureResponse struct {
	Context     string         `json:"context"`
	UserID      *string        `json:"user_id"`
	CategoryID  *uuid.UUID     `json:"category_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Mix         []ExposureItem `json:"mix"`
}
