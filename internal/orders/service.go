package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freshfields/storefront-backend/internal/cart"
	dbmodels "github.com/freshfields/storefront-backend/pkg/db/models"
	"github.com/freshfields/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/freshfields/storefront-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// eventEmitter writes domain events inside the caller's transaction.
type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	DB     cart.TxRunner
	Repo   Repository
	Carts  cart.Repository
	Events eventEmitter
}

// Service converts carts into orders and manages their lifecycle.
type Service struct {
	db       cart.TxRunner
	repo     Repository
	cartRepo cart.Repository
	events   eventEmitter
}

// NewService builds an orders service. Events is optional; when nil no
// domain events are queued.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	return &Service{
		db:       params.DB,
		repo:     params.Repo,
		cartRepo: params.Carts,
		events:   params.Events,
	}, nil
}

// ConvertCartToOrder snapshots the user's basket into a pending order,
// empties the basket, and queues the created event. Everything runs in one
// transaction: an order can never exist beside an uncleared cart.
func (s *Service) ConvertCartToOrder(ctx context.Context, userID uuid.UUID) (*OrderDTO, error) {
	var dto *OrderDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.repo.WithTx(tx)

		basket, err := cartRepo.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
		}
		if len(basket.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}

		items, err := snapshotItems(basket.Items)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot cart lines")
		}

		order := &dbmodels.Order{
			UserID: userID,
			Status: enums.OrderStatusPending,
			Total:  cart.CartTotal(basket.Items),
			Items:  items,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		if err := cartRepo.DeleteItems(ctx, basket.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "empty cart")
		}
		if err := cartRepo.CommitTotal(ctx, basket.ID, decimal.Zero, basket.Version); err != nil {
			if errors.Is(err, cart.ErrVersionConflict) {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset cart total")
		}

		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: userID},
				Data: outbox.OrderCreatedData{
					OrderID:   order.ID,
					UserID:    userID,
					Total:     order.Total,
					ItemCount: len(order.Items),
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
			}
		}

		dto = fromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// ListByUser returns the caller's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return toDTOs(rows), nil
}

// ListAll returns every order for the admin surface.
func (s *Service) ListAll(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list all orders")
	}
	return toDTOs(rows), nil
}

// GetByID loads an order. Owners see their own orders; admins see any.
// Non-owners get NotFound so order ids cannot be probed.
func (s *Service) GetByID(ctx context.Context, orderID, requesterID uuid.UUID, role enums.UserRole) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order")
	}
	if order.UserID != requesterID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return fromModel(order), nil
}

// UpdateStatus moves an order along the fulfillment path. Illegal jumps
// fail with the state-conflict code and change nothing.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, rawStatus string, actorID uuid.UUID) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var dto *OrderDTO
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)

		order, err := orderRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order")
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
		}

		if err := orderRepo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.UserRoleAdmin.String()},
				Data: outbox.OrderStatusChangedData{
					OrderID:    order.ID,
					UserID:     order.UserID,
					FromStatus: order.Status,
					ToStatus:   target,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue status event")
			}
		}

		order.Status = target
		dto = fromModel(order)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return dto, nil
}

func snapshotItems(lines []dbmodels.CartItem) ([]dbmodels.OrderItem, error) {
	items := make([]dbmodels.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			return nil, fmt.Errorf("cart line %s has no product loaded", line.ID)
		}
		snapshot, err := json.Marshal(line.Product)
		if err != nil {
			return nil, err
		}
		items = append(items, dbmodels.OrderItem{
			ProductID:       line.ProductID,
			ProductName:     line.Product.Name,
			UnitPrice:       line.Product.Price,
			Quantity:        line.Quantity,
			ProductSnapshot: datatypes.JSON(snapshot),
		})
	}
	return items, nil
}

func toDTOs(rows []dbmodels.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out
}
