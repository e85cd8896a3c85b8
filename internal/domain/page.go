package domain

// DefaultPageSize is the listing page size used by the HTTP API.
const DefaultPageSize = 20

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps n and size to sane values.
func NewPage(n, size int) Page {
	if n < 1 {
		n = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return Page{Number: n, Size: size}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit()
}

// Limit is the maximum number of rows to return.
func (p Page) Limit() int {
	if p.Size < 1 {
		return DefaultPageSize
	}
	return p.Size
}

// Pagination describes a returned page.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Describe builds the Pagination block for total matching rows.
func (p Page) Describe(total int) Pagination {
	size := p.Limit()
	return Pagination{
		Page:       max(p.Number, 1),
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
}
