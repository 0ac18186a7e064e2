package products

import (
	"fmt"
	"testing"

	"github.com/freshfields/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Exec("DELETE FROM products").Error
	})
	return conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, category string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     fmt.Sprintf("Test Product %s", uuid.NewString()),
		Price:    decimal.NewFromFloat(19.99),
		Discount: decimal.Zero,
		Category: category,
		Stock:    10,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
