// Package paging holds the 1-based page request and response envelope shared by list endpoints.
package paging

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Request struct {
	Page  int
	Limit int
}

// Normalize fills zero values with defaults. Out-of-range values are left for validation.
func (r Request) Normalize() Request {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	return r
}

func (r Request) Valid() bool {
	return r.Page >= 1 && r.Limit >= 1 && r.Limit <= MaxLimit
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	CurrentPage   int   `json:"current_page"`
	Limit         int   `json:"limit"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	HasNext       bool  `json:"has_next"`
	HasPrevious   bool  `json:"has_previous"`
}

func NewPage[T any](content []T, r Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if r.Limit > 0 {
		pages = int((total + int64(r.Limit) - 1) / int64(r.Limit))
	}
	return Page[T]{
		Content:       content,
		CurrentPage:   r.Page,
		Limit:         r.Limit,
		TotalElements: total,
		TotalPages:    pages,
		First:         r.Page <= 1,
		Last:          r.Page >= pages,
		HasNext:       r.Page < pages,
		HasPrevious:   r.Page > 1,
	}
}

// Map converts page content while keeping the envelope.
func Map[T, U any](p Page[T], f func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, f(v))
	}
	return Page[U]{
		Content:       out,
		CurrentPage:   p.CurrentPage,
		Limit:         p.Limit,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
		HasNext:       p.HasNext,
		HasPrevious:   p.HasPrevious,
	}
}
