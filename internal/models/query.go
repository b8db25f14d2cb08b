package models

import "time"

// SortDirection is ASC or DESC.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ListQuery enumerates the options a listing endpoint understands. Repositories map
// keys to whitelisted columns and ignore anything they do not recognise.
type ListQuery struct {
	Search          string
	SearchFields    []string
	EqualityFilters map[string]string
	DateFrom        *time.Time
	DateTo          *time.Time
	SortKey         string
	SortDirection   SortDirection
	Page            int `validate:"gte=0"`
	Limit           int `validate:"gte=0,lte=100"`
}

// Normalize applies paging defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.SortDirection != SortAsc {
		q.SortDirection = SortDesc
	}
	return q
}

// Offset is the row offset for the current page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
