package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService interface {
	CreateProduct(ctx context.Context, identity *models.Identity, req *models.CreateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, identity *models.Identity, id uuid.UUID) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

type productService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	ttl       time.Duration
	sanitizer *bluemonday.Policy
}

// NewProductService serves the catalog from repo, caching the full list in c
// for ttl. c may be nil.
func NewProductService(repo repository.ProductRepository, c cache.Cache, ttl time.Duration) ProductService {
	return &productService{
		repo:      repo,
		cache:     c,
		ttl:       ttl,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *productService) CreateProduct(ctx context.Context, identity *models.Identity, req *models.CreateProductRequest) (*models.Product, error) {

	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(s.sanitizer.Sanitize(req.Name)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		Price:       req.Price,
		ImageURL:    strings.TrimSpace(req.ImageURL),
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	s.invalidateCatalog(ctx)

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, identity *models.Identity, id uuid.UUID) error {

	if err := requireAdmin(identity); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFoundError("Product not found").WithError(err)
		}
		return appErrors.DatabaseError("Failed to delete product").WithError(err)
	}

	s.invalidateCatalog(ctx, cache.Key(cache.ProductKeyPrefix, id.String()))

	return nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.ProductKeyPrefix, id.String())

	if s.cache != nil {
		var cached models.Product

		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("Product cache read failed", slog.String("product_id", id.String()), slog.Any("error", err))
		} else if found {
			return &cached, nil
		}
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, product, s.ttl); err != nil {
			logger.Warn("Product cache write failed", slog.String("product_id", id.String()), slog.Any("error", err))
		}
	}

	return product, nil
}

// ListProducts returns the whole catalog, newest first. A cache failure falls
// back to the database.
func (s *productService) ListProducts(ctx context.Context) ([]*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)

	if s.cache != nil {
		var cached []*models.Product

		found, err := s.cache.Get(ctx, cache.CatalogKey, &cached)
		if err != nil {
			logger.Warn("Catalog cache read failed", slog.Any("error", err))
		} else if found {
			return cached, nil
		}
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.CatalogKey, products, s.ttl); err != nil {
			logger.Warn("Catalog cache write failed", slog.Any("error", err))
		}
	}

	return products, nil
}

// invalidateCatalog drops the cached list along with any extra keys.
func (s *productService) invalidateCatalog(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, append([]string{cache.CatalogKey}, keys...)...); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Catalog cache invalidation failed", slog.Any("error", err))
	}
}
