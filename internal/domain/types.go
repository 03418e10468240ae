package domain

import "time"

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total,omitempty"`
}

// Normalize clamps page/page_size to sane values.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// DateRange is an inclusive calendar-day range. Zero bounds are open.
type DateRange struct {
	Start time.Time `json:"inicio"`
	End   time.Time `json:"fim"`
}

// RequestContext carries authenticated operator info when available.
type RequestContext struct {
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	RequestID string `json:"request_id"`
}
