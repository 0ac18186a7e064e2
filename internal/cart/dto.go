package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfields/storefront-backend/pkg/db/models"
)

// CartItemDTO is a cart line joined with its product.
type CartItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// CartDTO is the transport shape for a user's basket.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Items     []CartItemDTO   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AddItemRequest is the payload for adding a product to the basket.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

func fromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(c.Items))
	for i := range c.Items {
		item := c.Items[i]
		dto := CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			dto.ProductName = item.Product.Name
			dto.UnitPrice = item.Product.Price
		}
		items = append(items, dto)
	}
	return &CartDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		Total:     c.Total,
		UpdatedAt: c.UpdatedAt,
	}
}
