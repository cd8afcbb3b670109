package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateClampsParams(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)

	p = &PaginationParams{Page: 3, PerPage: 0}
	p.Validate()
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 40, p.Offset())
}

func TestNewPagination(t *testing.T) {
	meta := NewPagination(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	result := NewPaginatedResult[string](nil, NewPagination(1, 20, 0))
	assert.NotNil(t, result.Items, "empty pages render as []")
	assert.False(t, result.Pagination.HasNext)
}
