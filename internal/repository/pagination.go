package repository

import "gorm.io/gorm"

// Page selects a 1-based page of a listing. A zero PageSize disables paging.
type Page struct {
	Page     int
	PageSize int
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * p.PageSize
}

func paginate(query *gorm.DB, page Page) *gorm.DB {
	if page.PageSize <= 0 {
		return query
	}
	return query.Offset(page.Offset()).Limit(page.PageSize)
}
