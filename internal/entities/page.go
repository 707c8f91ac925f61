package entities

import "math"

type OrderFilter struct {
	// Status is optional, nil means any status.
	Status *Status
	Page   int
	Limit  int
}

// Offset returns the number of rows before the page. ok is false when the
// offset does not fit in an int, no such page can hold any row.
func (f OrderFilter) Offset() (offset int, ok bool) {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0, true
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return 0, false
	}
	return (f.Page - 1) * f.Limit, true
}

type PageMeta struct {
	TotalCount  int
	CurrentPage int
	LastPage    int
}

type OrderPage struct {
	Data []Order
	Meta PageMeta
}

// LastPage returns ceil(total/limit) without overflowing. limit must be positive.
func LastPage(total, limit int) int {
	last := total / limit
	if total%limit != 0 {
		last++
	}
	return last
}
