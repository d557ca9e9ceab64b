package handler

import (
	"strconv"

	"sociogram/backend/internal/social"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaginationMeta defines the structure for pagination metadata.
type PaginationMeta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// PaginatedResponse defines the structure for a paginated list of any type.
type PaginatedResponse[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// NewPaginatedResponse creates a new PaginatedResponse.
func NewPaginatedResponse[T any](data []T, totalItems int64, page int) PaginatedResponse[T] {
	return PaginatedResponse[T]{
		Data: data,
		Meta: PaginationMeta{
			TotalItems:  totalItems,
			TotalPages:  social.PageCount(totalItems, social.PageSize),
			CurrentPage: page,
			PageSize:    social.PageSize,
		},
	}
}

// Paginate executes a count plus a page-sized fetch against the given query
// and returns the results. The query must already carry its filters.
func Paginate[T any](query *gorm.DB, page int) (*PaginatedResponse[T], error) {
	var totalItems int64
	if err := query.Model(new(T)).Count(&totalItems).Error; err != nil {
		return nil, err
	}

	var results []T
	offset := (page - 1) * social.PageSize
	if err := query.Offset(offset).Limit(social.PageSize).Find(&results).Error; err != nil {
		return nil, err
	}

	response := NewPaginatedResponse(results, totalItems, page)
	return &response, nil
}

// pageParam reads the page query parameter, defaulting to the first page.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
