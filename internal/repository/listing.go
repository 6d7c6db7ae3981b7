package repository

import (
	"math"
	"strings"

	"nestling/internal/models"

	"gorm.io/gorm"
)

// PageRequest selects one page of an ordered listing. Page is 1-based.
type PageRequest struct {
	Page int
	Size int
}

// DefaultPageSize applies when a PageRequest carries no size.
const DefaultPageSize = 20

func (p PageRequest) normalized() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset is the row offset of the page. Pages whose offset does not fit in an
// int are pinned to math.MaxInt, which is past the end of any table.
func (p PageRequest) Offset() int {
	n := p.normalized()
	if n.Page-1 > math.MaxInt/n.Size {
		return math.MaxInt
	}
	return (n.Page - 1) * n.Size
}

func paginate(p PageRequest) func(*gorm.DB) *gorm.DB {
	n := p.normalized()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(n.Offset()).Limit(n.Size)
	}
}

// taggedWith keeps rows linked to any of tags through joinTable. A row matching
// several tags appears once. No tags means no filter.
func taggedWith(db *gorm.DB, ownerColumn, joinTable, joinOwnerColumn string, tags []uint) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if len(tags) == 0 {
			return q
		}
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table(joinTable).
			Select(joinOwnerColumn).
			Where("tag_id IN ?", tags)
		return q.Where(ownerColumn+" IN (?)", sub)
	}
}

// containsFold matches column against a case-insensitive substring.
func containsFold(column, term string) (string, string) {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`, "%" + strings.ToLower(escapeLike(term)) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

// replaceTags swaps owner's tag links for tags. An empty set clears them.
func replaceTags(tx *gorm.DB, owner any, tags []models.Tag) error {
	assoc := tx.Model(owner).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}
