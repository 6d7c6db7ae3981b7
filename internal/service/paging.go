// Package service holds the business operations behind the HTTP API.
package service

import (
	"nestling/internal/config"
	"nestling/internal/repository"
)

// Paging defaults, overridable through config.
const (
	DefaultPageSize       = 20
	DefaultSearchCount    = 5
	DefaultSearchMaxCount = 100
)

// Paging carries listing limits for a service instance.
type Paging struct {
	PageSize       int
	SearchDefault  int
	SearchMaxCount int
}

// NewPaging reads page and search limits from cfg, falling back to defaults.
func NewPaging(cfg *config.Config) Paging {
	p := Paging{PageSize: DefaultPageSize, SearchDefault: DefaultSearchCount, SearchMaxCount: DefaultSearchMaxCount}
	if cfg == nil {
		return p
	}
	if cfg.PageSize > 0 {
		p.PageSize = cfg.PageSize
	}
	if cfg.SearchMaxCount > 0 {
		p.SearchMaxCount = cfg.SearchMaxCount
	}
	return p
}

func (p Paging) request(page int) repository.PageRequest {
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return repository.PageRequest{Page: page, Size: size}
}

func (p Paging) searchCount(count int) int {
	if count <= 0 {
		count = p.SearchDefault
	}
	if count <= 0 {
		count = DefaultSearchCount
	}
	if p.SearchMaxCount > 0 && count > p.SearchMaxCount {
		count = p.SearchMaxCount
	}
	return count
}

// Page is one page of a listing. Pages is the total page count and Size the
// page size used to compute it.
type Page[T any] struct {
	Items []T
	Pages int
	Size  int
}

// PageCount is ceil(total/size).
func PageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func newPage[M any, V any](rows []M, total int64, req repository.PageRequest, view func(*M) V) Page[V] {
	items := make([]V, 0, len(rows))
	for i := range rows {
		items = append(items, view(&rows[i]))
	}
	return Page[V]{Items: items, Pages: PageCount(total, req.Size), Size: req.Size}
}
