package model

type Paged[T any] struct {
	PagedItems      []T  `json:"pagedItems"`
	PageIndex       int  `json:"pageIndex"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

func NewPaged[T any](items []T, pageIndex, pageSize, totalCount int) *Paged[T] {
	p := &Paged[T]{
		PagedItems: items,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
	if pageSize > 0 {
		p.TotalPages = (totalCount + pageSize - 1) / pageSize
	}
	p.HasPreviousPage = pageIndex > 0
	p.HasNextPage = pageIndex+1 < p.TotalPages
	return p
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)

// ValidatePage checks paging parameters before they reach a procedure.
func ValidatePage(pageIndex, pageSize int) error {
	var v ValidationError
	if pageIndex < 0 {
		v.add("pageIndex", "must not be negative")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		v.add("pageSize", "must be between 1 and %d", MaxPageSize)
	}
	return v.orNil()
}
