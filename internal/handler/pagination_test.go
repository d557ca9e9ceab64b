package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPageParam(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=3", 3},
		{"page=0", 1},
		{"page=-2", 1},
		{"page=abc", 1},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		assert.Equal(t, tc.want, pageParam(c), "query %q", tc.query)
	}
}

func TestNewPaginatedResponseMeta(t *testing.T) {
	resp := NewPaginatedResponse([]string{"a", "b"}, 21, 2)

	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, int64(21), resp.Meta.TotalItems)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.CurrentPage)
	assert.Equal(t, 10, resp.Meta.PageSize)
}

func TestNewPaginatedResponseEmpty(t *testing.T) {
	resp := NewPaginatedResponse([]int{}, 0, 1)

	assert.Empty(t, resp.Data)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}
