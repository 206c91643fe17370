package feed

import "context"

// Pagination is the server-reported position of a page.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// Complete reports whether both fields carry usable values.
func (p *Pagination) Complete() bool {
	return p != nil && p.Page > 0 && p.Pages > 0
}

// Page is one batch of items in canonical form.
type Page[T any] struct {
	Items      []T
	Pagination *Pagination
}

// FetchFunc retrieves one page. page and pageSize are both >= 1.
type FetchFunc[T any] func(ctx context.Context, page, pageSize int) (Page[T], error)
