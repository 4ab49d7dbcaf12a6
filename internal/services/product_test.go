package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repoMocks "github.com/aaravmahajanofficial/storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - sanitized and invalidates catalog", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		c := newMemoryCache()
		require.NoError(t, c.Set(ctx, cache.CatalogKey, []*models.Product{}, time.Minute))
		svc := service.NewProductService(repo, c, time.Minute)

		repo.On("CreateProduct", ctx, mock.MatchedBy(func(p *models.Product) bool {
			return p.ID != uuid.Nil && p.Name == "Tea" && p.Description == "Strong"
		})).Return(nil).Once()

		product, err := svc.CreateProduct(ctx, admin(), &models.CreateProductRequest{
			Name:        "<b>Tea</b>",
			Description: "<script>alert(1)</script>Strong",
			Price:       decimal.RequireFromString("120.50"),
			ImageURL:    "https://img.example.com/tea.png",
		})

		require.NoError(t, err)
		assert.Equal(t, "Tea", product.Name)
		assert.Equal(t, "Strong", product.Description)
		assert.False(t, c.has(cache.CatalogKey))
		repo.AssertExpectations(t)
	})

	t.Run("Failure - customer", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)

		_, err := svc.CreateProduct(ctx, customer(), &models.CreateProductRequest{Name: "Tea", ImageURL: "https://x.io/a.png"})

		requireAppError(t, err, appErrors.ErrCodeForbidden)
		repo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})

	t.Run("Failure - negative price", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)

		_, err := svc.CreateProduct(ctx, admin(), &models.CreateProductRequest{
			Name: "Tea", Price: decimal.NewFromInt(-1), ImageURL: "https://x.io/a.png",
		})

		requireAppError(t, err, appErrors.ErrCodeValidation)
	})

	for _, price := range []string{"10.005", "10000000000", "1e12"} {
		t.Run("Failure - price does not fit the catalog", func(t *testing.T) {
			repo := new(repoMocks.ProductRepository)
			svc := service.NewProductService(repo, nil, time.Minute)

			_, err := svc.CreateProduct(ctx, admin(), &models.CreateProductRequest{
				Name: "Tea", Price: decimal.RequireFromString(price), ImageURL: "https://x.io/a.png",
			})

			requireAppError(t, err, appErrors.ErrCodeValidation)
			repo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}

	t.Run("Failure - name empty after sanitizing", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)

		_, err := svc.CreateProduct(ctx, admin(), &models.CreateProductRequest{
			Name: "<script></script>", Price: decimal.NewFromInt(1), ImageURL: "https://x.io/a.png",
		})

		requireAppError(t, err, appErrors.ErrCodeValidation)
	})

	t.Run("Failure - database", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)
		repo.On("CreateProduct", ctx, mock.Anything).Return(errors.New("boom")).Once()

		_, err := svc.CreateProduct(ctx, admin(), &models.CreateProductRequest{
			Name: "Tea", Price: decimal.NewFromInt(1), ImageURL: "https://x.io/a.png",
		})

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - drops cached entries", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		c := newMemoryCache()
		svc := service.NewProductService(repo, c, time.Minute)
		id := uuid.New()
		key := cache.Key(cache.ProductKeyPrefix, id.String())
		require.NoError(t, c.Set(ctx, key, newProduct("a", 1), time.Minute))

		repo.On("DeleteProduct", ctx, id).Return(nil).Once()

		require.NoError(t, svc.DeleteProduct(ctx, admin(), id))
		assert.False(t, c.has(key))
		assert.Contains(t, c.deleted, cache.CatalogKey)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)
		id := uuid.New()
		repo.On("DeleteProduct", ctx, id).Return(sql.ErrNoRows).Once()

		requireAppError(t, svc.DeleteProduct(ctx, admin(), id), appErrors.ErrCodeNotFound)
	})

	t.Run("Failure - signed out", func(t *testing.T) {
		svc := service.NewProductService(new(repoMocks.ProductRepository), nil, time.Minute)

		requireAppError(t, svc.DeleteProduct(ctx, nil, uuid.New()), appErrors.ErrCodeUnauthorized)
	})
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Cache miss then hit", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, newMemoryCache(), time.Minute)
		product := newProduct("tea", 120)
		repo.On("GetProductByID", ctx, product.ID).Return(product, nil).Once()

		first, err := svc.GetProductByID(ctx, product.ID)
		require.NoError(t, err)
		second, err := svc.GetProductByID(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, product.Name, first.Name)
		assert.Equal(t, product.Name, second.Name)
		assert.True(t, product.Price.Equal(second.Price))
		repo.AssertNumberOfCalls(t, "GetProductByID", 1)
	})

	t.Run("Cache failure falls back to database", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		c := newMemoryCache()
		c.getErr = errors.New("redis down")
		svc := service.NewProductService(repo, c, time.Minute)
		product := newProduct("tea", 120)
		repo.On("GetProductByID", ctx, product.ID).Return(product, nil).Once()

		got, err := svc.GetProductByID(ctx, product.ID)

		require.NoError(t, err)
		assert.Equal(t, product.ID, got.ID)
	})

	t.Run("Not found", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)
		id := uuid.New()
		repo.On("GetProductByID", ctx, id).Return(nil, sql.ErrNoRows).Once()

		_, err := svc.GetProductByID(ctx, id)

		requireAppError(t, err, appErrors.ErrCodeNotFound)
	})
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("Served from cache after the first read", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		c := newMemoryCache()
		svc := service.NewProductService(repo, c, time.Minute)
		products := []*models.Product{newProduct("b", 2), newProduct("a", 1)}
		repo.On("ListProducts", ctx).Return(products, nil).Once()

		first, err := svc.ListProducts(ctx)
		require.NoError(t, err)
		second, err := svc.ListProducts(ctx)
		require.NoError(t, err)

		assert.Len(t, first, 2)
		require.Len(t, second, 2)
		assert.Equal(t, "b", second[0].Name)
		assert.True(t, c.has(cache.CatalogKey))
		repo.AssertNumberOfCalls(t, "ListProducts", 1)
	})

	t.Run("Database error", func(t *testing.T) {
		repo := new(repoMocks.ProductRepository)
		svc := service.NewProductService(repo, nil, time.Minute)
		repo.On("ListProducts", ctx).Return(nil, errors.New("boom")).Once()

		_, err := svc.ListProducts(ctx)

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
	})
}
