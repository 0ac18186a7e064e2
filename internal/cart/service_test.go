package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/freshfields/storefront-backend/internal/products"
	"github.com/freshfields/storefront-backend/pkg/db/models"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (t testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:       testTxRunner{db: conn},
		Repo:     NewRepository(conn),
		Products: products.NewRepository(conn),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, price float64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     fmt.Sprintf("Product %s", uuid.NewString()),
		Price:    decimal.NewFromFloat(price),
		Discount: decimal.NewFromFloat(1.50),
		Stock:    100,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestGetCartCreatesLazily(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()

	cart, err := svc.GetCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if cart.UserID != userID {
		t.Fatalf("expected cart for user %s, got %s", userID, cart.UserID)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(cart.Items))
	}
	if !cart.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", cart.Total)
	}

	again, err := svc.GetCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected same cart, got %s vs %s", again.ID, cart.ID)
	}
}

func TestAddItemAccumulatesAndTotals(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	product := mustCreateProduct(t, conn, 10.00)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart lines %+v", cart.Items)
	}
	if !cart.Total.Equal(decimal.NewFromFloat(20.00)) {
		t.Fatalf("expected total 20.00, got %s", cart.Total)
	}

	cart, err = svc.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected accumulated quantity 5, got %+v", cart.Items)
	}
	if !cart.Total.Equal(decimal.NewFromFloat(50.00)) {
		t.Fatalf("expected total 50.00, got %s", cart.Total)
	}
}

func TestTotalIgnoresDiscount(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	product := mustCreateProduct(t, conn, 9.99)

	cart, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !cart.Total.Equal(decimal.NewFromFloat(9.99)) {
		t.Fatalf("expected base-price total 9.99, got %s", cart.Total)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 0})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveItemMissingLine(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItemRecomputesTotal(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	first := mustCreateProduct(t, conn, 10.00)
	second := mustCreateProduct(t, conn, 4.00)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: first.ID, Quantity: 1}); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: second.ID, Quantity: 2}); err != nil {
		t.Fatalf("add second: %v", err)
	}

	cart, err := svc.RemoveItem(ctx, userID, first.ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 remaining line, got %d", len(cart.Items))
	}
	if !cart.Total.Equal(decimal.NewFromFloat(8.00)) {
		t.Fatalf("expected total 8.00, got %s", cart.Total)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	product := mustCreateProduct(t, conn, 5.00)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 3}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	cart, err := svc.Clear(ctx, userID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cart.Items) != 0 || !cart.Total.IsZero() {
		t.Fatalf("expected empty cart, got %d items total %s", len(cart.Items), cart.Total)
	}

	cart, err = svc.Clear(ctx, userID)
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if len(cart.Items) != 0 || !cart.Total.IsZero() {
		t.Fatalf("expected clear to stay empty, got %d items", len(cart.Items))
	}
}

func TestCommitTotalVersionConflict(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	cartRow := &models.Cart{UserID: uuid.New(), Total: decimal.Zero, Version: 1}
	if err := repo.Create(ctx, cartRow); err != nil {
		t.Fatalf("create cart: %v", err)
	}

	if err := repo.CommitTotal(ctx, cartRow.ID, decimal.NewFromInt(5), 1); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	// a second writer holding the old version must lose
	err := repo.CommitTotal(ctx, cartRow.ID, decimal.NewFromInt(9), 1)
	if err != ErrVersionConflict {
		t.Fatalf("expected version conflict, got %v", err)
	}
}
