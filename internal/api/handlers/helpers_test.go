package handlers_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repoMocks "github.com/aaravmahajanofficial/storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type discardPersister struct{}

func (discardPersister) Enqueue(ctx context.Context, userID uuid.UUID, items []models.CartItem) {}

// newCartSessions returns sessions whose users start with empty carts.
func newCartSessions() *service.CartSessions {
	repo := new(repoMocks.CartRepository)
	repo.On("GetCartByUserID", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows).Maybe()

	return service.NewCartSessions(repo, discardPersister{})
}

func testProduct(name string, price int64) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.NewFromInt(price),
		ImageURL: "https://img.example.com/" + name + ".png",
	}
}

// decodeData unmarshals the data field of a success envelope into dest.
func decodeData(t *testing.T, body []byte, dest any) *response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp))

	if dest != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dest))
	}

	return &resp
}
