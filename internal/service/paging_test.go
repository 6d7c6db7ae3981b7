package service

import (
	"testing"

	"nestling/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 20, 3},
		{10, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PageCount(tc.total, tc.size), "total=%d size=%d", tc.total, tc.size)
	}
}

func TestNewPaging(t *testing.T) {
	p := NewPaging(nil)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, DefaultSearchMaxCount, p.SearchMaxCount)

	p = NewPaging(&config.Config{PageSize: 5, SearchMaxCount: 8})
	assert.Equal(t, 5, p.request(0).Size)
	assert.Equal(t, 1, p.request(-3).Page)
	assert.Equal(t, 8, p.searchCount(50))
	assert.Equal(t, DefaultSearchCount, p.searchCount(0))
	assert.Equal(t, 3, p.searchCount(3))
}
