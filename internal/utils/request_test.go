package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", 1, 10},
		{"explicit", "?page=3&pageSize=25", 3, 25},
		{"garbage", "?page=abc&pageSize=xyz", 1, 10},
		{"page size too large", "?page=2&pageSize=1000", 2, 10},
		{"page past the limit", "?page=9223372036854775807&pageSize=10", models.MaxPage, 10},
		{"negative page", "?page=-4", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/orders"+tt.query, nil)

			page, pageSize := ParsePagination(r)

			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
		})
	}
}
