package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	page, pageSize := Normalize(0, 0)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, pageSize)

	page, pageSize = Normalize(-3, 1000)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, MaxPageSize, pageSize)

	page, pageSize = Normalize(5, 20)
	assert.Equal(t, 5, page)
	assert.Equal(t, 20, pageSize)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 40, Offset(3, 20))
	// 非法参数先规整再算偏移
	assert.Equal(t, 0, Offset(0, 0))
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	info = NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, info.TotalPages)
	assert.False(t, info.HasNext)
	assert.False(t, info.HasPrev)
}
