package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshfields/storefront-backend/internal/products"
	dbmodels "github.com/freshfields/storefront-backend/pkg/db/models"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	DB       TxRunner
	Repo     Repository
	Products products.Repository
}

// Service orchestrates basket mutations. Every mutation recomputes the
// derived total and commits it with an optimistic version check, so two
// concurrent writers on the same cart cannot interleave silently.
type Service struct {
	db          TxRunner
	repo        Repository
	productRepo products.Repository
}

// NewService builds a cart service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &Service{
		db:          params.DB,
		repo:        params.Repo,
		productRepo: params.Products,
	}, nil
}

// GetCart returns the user's basket, creating an empty one on first access.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	var dto *CartDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		dto = fromModel(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// AddItem adds quantity of a product, accumulating onto an existing line.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var dto *CartDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		if _, err := productRepo.FindByID(ctx, req.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}

		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, cart.ID, req.ProductID)
		switch {
		case err == nil:
			if err := repo.UpdateItemQuantity(ctx, item.ID, item.Quantity+req.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := repo.CreateItem(ctx, &dbmodels.CartItem{
				CartID:    cart.ID,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart line")
		}

		dto, err = s.commit(ctx, repo, cart, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// RemoveItem drops a product line entirely.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	var dto *CartDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, cart.ID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart line")
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}

		dto, err = s.commit(ctx, repo, cart, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Clear empties the basket. Clearing an already-empty basket is a no-op.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	var dto *CartDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		dto, err = s.commit(ctx, repo, cart, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *Service) loadOrCreate(ctx context.Context, repo Repository, userID uuid.UUID) (*dbmodels.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
	}

	fresh := &dbmodels.Cart{
		UserID:  userID,
		Total:   decimal.Zero,
		Version: 1,
	}
	if err := repo.Create(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return fresh, nil
}

// commit recomputes the derived total from the current lines and writes it
// with the version check, then reloads the cart for the response.
func (s *Service) commit(ctx context.Context, repo Repository, cart *dbmodels.Cart, userID uuid.UUID) (*CartDTO, error) {
	reloaded, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}

	total := CartTotal(reloaded.Items)
	if err := repo.CommitTotal(ctx, cart.ID, total, cart.Version); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "commit cart total")
	}

	reloaded.Total = total
	reloaded.Version = cart.Version + 1
	return fromModel(reloaded), nil
}

// CartTotal derives the basket total from its lines at base product price.
// Discounts are informational and never enter the total.
func CartTotal(items []dbmodels.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}
