package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize well inside the range of a SQL OFFSET.
	MaxPage = 100_000
)

// ClampPage maps any requested page and page size onto the supported range.
// Pages past MaxPage are served as MaxPage, which is empty for any real listing.
func ClampPage(page, size int) (int, int) {
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}

	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}

	return page, size
}

// PaginatedResponse is one page of a listing plus enough to fetch the rest.
type PaginatedResponse struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func NewPaginatedResponse(data any, total, page, pageSize int) PaginatedResponse {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}
}
