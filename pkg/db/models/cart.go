package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the single open basket for a user. Total is derived from the
// items and recomputed on every mutation; Version backs the optimistic
// concurrency check so two writers on the same cart never interleave.
type Cart struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Total     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total"`
	Version   int64           `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
