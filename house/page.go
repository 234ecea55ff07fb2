package house

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// Order is a single sort instruction on a House property.
type Order struct {
	Property string
	Desc     bool
}

// DefaultSort orders listings newest first.
var DefaultSort = []Order{{Property: "createdTime", Desc: true}}

// PageRequest selects a zero-based page of listings.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// Normalize fills defaults and clamps out-of-range values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	// Offset must stay representable.
	if last := math.MaxInt64 / int64(p.Size); int64(p.Page) > last {
		p.Page = int(last)
	}
	if len(p.Sort) == 0 {
		p.Sort = DefaultSort
	}
	return p
}

// Offset returns the number of rows preceding the page.
func (p PageRequest) Offset() int64 {
	return int64(p.Page) * int64(p.Size)
}

// Page is a slice of listings plus the totals of the full result.
type Page struct {
	Content       []House
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage assembles a Page for req given the total number of rows.
func NewPage(content []House, req PageRequest, total int64) Page {
	if content == nil {
		content = []House{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
