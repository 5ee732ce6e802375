package service

// Page is a 1-based page request. Zero values are replaced by defaults.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize(defLimit, maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) offset() int { return (p.Page - 1) * p.Limit }

// PageResult is the envelope every list operation returns.
type PageResult[T any] struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Items []T   `json:"-"`
}
