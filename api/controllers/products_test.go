package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	productsvc "github.com/freshfields/storefront-backend/internal/products"
	"github.com/freshfields/storefront-backend/pkg/db/models"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
)

type stubProductRepo struct {
	products []models.Product
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) productsvc.Repository { return s }

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	s.products = append(s.products, *product)
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) FindByName(ctx context.Context, name string) (*models.Product, error) {
	for i := range s.products {
		if s.products[i].Name == name {
			return &s.products[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) List(ctx context.Context, params productsvc.ListQuery) ([]models.Product, error) {
	if params.Category == "" {
		return s.products, nil
	}
	var out []models.Product
	for _, p := range s.products {
		if p.Category == params.Category {
			out = append(out, p)
		}
	}
	return out, nil
}

func newProductsService(t *testing.T, repo productsvc.Repository) *productsvc.Service {
	t.Helper()
	svc, err := productsvc.NewService(productsvc.ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("new products service: %v", err)
	}
	return svc
}

func TestProductsListFiltersByCategory(t *testing.T) {
	repo := &stubProductRepo{products: []models.Product{
		{ID: uuid.New(), Name: "Espresso Beans", Category: "coffee", Price: decimal.NewFromInt(12)},
		{ID: uuid.New(), Name: "Green Tea", Category: "tea", Price: decimal.NewFromInt(8)},
	}}
	handler := ProductsList(newProductsService(t, repo), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=tea", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []productsvc.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Green Tea" {
		t.Fatalf("unexpected catalog %+v", envelope.Data)
	}
}

func TestProductsGetRejectsMalformedID(t *testing.T) {
	handler := ProductsGet(newProductsService(t, &stubProductRepo{}), nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", "not-a-uuid")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductsGetUnknownIDReturnsNotFound(t *testing.T) {
	handler := ProductsGet(newProductsService(t, &stubProductRepo{}), nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", uuid.NewString())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminCreateProduct(t *testing.T) {
	repo := &stubProductRepo{}
	handler := AdminCreateProduct(newProductsService(t, repo), nil)

	body := []byte(`{"name":"Espresso Beans","price":"12.50","category":"coffee","stock":10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(repo.products) != 1 {
		t.Fatalf("expected product persisted, got %d", len(repo.products))
	}
}

func TestAdminCreateProductDuplicateName(t *testing.T) {
	repo := &stubProductRepo{products: []models.Product{
		{ID: uuid.New(), Name: "Espresso Beans", Price: decimal.NewFromInt(12)},
	}}
	handler := AdminCreateProduct(newProductsService(t, repo), nil)

	body := []byte(`{"name":"Espresso Beans","price":"12.50","stock":1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}
