package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfields/storefront-backend/pkg/enums"
)

// OrderCreatedData is the event body for order.created.
type OrderCreatedData struct {
	OrderID   uuid.UUID       `json:"orderId"`
	UserID    uuid.UUID       `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// OrderStatusChangedData is the event body for order.status_changed.
type OrderStatusChangedData struct {
	OrderID    uuid.UUID         `json:"orderId"`
	UserID     uuid.UUID         `json:"userId"`
	FromStatus enums.OrderStatus `json:"fromStatus"`
	ToStatus   enums.OrderStatus `json:"toStatus"`
}
