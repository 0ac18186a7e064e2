package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderItem is a frozen product line. ProductName and UnitPrice are copied
// at checkout so later catalog edits never change what the buyer sees, and
// ProductSnapshot holds the full product document for audit.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName     string          `gorm:"not null" json:"product_name"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	ProductSnapshot datatypes.JSON  `gorm:"type:jsonb" json:"product_snapshot,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }

func (oi *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}
