package store

// Pagination limits for book listings.
const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// PageParams contains page-number pagination request parameters.
type PageParams struct {
	Page  int // 1-based page number (defaults to 1)
	Limit int // Items per page (defaults to 10, capped at 50)
}

// PaginatedResult contains one page of data plus paging metadata.
type PaginatedResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"` // Total page count: ceil(total/limit), 0 when total is 0
}

// Validate checks and corrects pagination parameters.
func (p *PageParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
}

// Skip returns the number of items preceding the requested page.
func (p *PageParams) Skip() int {
	return (p.Page - 1) * p.Limit
}

// NewPaginatedResult slices one page out of the full matched set and fills
// in the paging metadata.
func NewPaginatedResult[T any](matched []T, params PageParams) PaginatedResult[T] {
	total := len(matched)
	pages := (total + params.Limit - 1) / params.Limit // ceil; 0 when total is 0

	start := params.Skip()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	return PaginatedResult[T]{
		Items: matched[start:end],
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
		Pages: pages,
	}
}
