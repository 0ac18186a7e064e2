package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freshfields/storefront-backend/pkg/config"
	"github.com/freshfields/storefront-backend/pkg/db"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/freshfields/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// listCache is the read-through cache in front of catalog list queries.
type listCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo   Repository
	Cache  listCache
	Logger *logger.Logger
	Config config.CatalogConfig
}

// Service orchestrates catalog operations.
type Service struct {
	repo     Repository
	cache    listCache
	logg     *logger.Logger
	cacheTTL time.Duration
}

// NewService builds a catalog service. Cache is optional.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	ttl := params.Config.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:     params.Repo,
		cache:    params.Cache,
		logg:     params.Logger,
		cacheTTL: ttl,
	}, nil
}

// List returns the catalog, optionally filtered by category. Results are
// served from Redis when a fresh copy exists.
func (s *Service) List(ctx context.Context, category string) ([]ProductDTO, error) {
	category = strings.TrimSpace(category)
	cacheKey := s.listCacheKey(category)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []ProductDTO
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
			// poisoned entry, drop it and fall through
			_ = s.cache.Del(ctx, cacheKey)
		}
	}

	rows, err := s.repo.List(ctx, ListQuery{Category: category})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(encoded), s.cacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "catalog cache write failed")
			}
		}
	}

	return out, nil
}

// Get loads a single product by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	return FromModel(product), nil
}

// Create inserts a catalog entry and invalidates cached lists.
func (s *Service) Create(ctx context.Context, dto CreateProductDTO) (*ProductDTO, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if dto.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if dto.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	dto.Name = name

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product name")
	}

	product := dto.ToModel()
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "idx_products_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	s.invalidateListCache(ctx, product.Category)

	return FromModel(product), nil
}

func (s *Service) listCacheKey(category string) string {
	if s.cache == nil {
		return ""
	}
	if category == "" {
		return s.cache.CacheKey("products", "list")
	}
	return s.cache.CacheKey("products", "list", "cat", category)
}

func (s *Service) invalidateListCache(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	keys := []string{s.cache.CacheKey("products", "list")}
	if category != "" {
		keys = append(keys, s.cache.CacheKey("products", "list", "cat", category))
	}
	if err := s.cache.Del(ctx, keys...); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "catalog cache invalidation failed")
	}
}
