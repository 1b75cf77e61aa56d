package models

import "strings"

// StatusFilter restricts the roster by ban state.
type StatusFilter string

const (
	StatusAny    StatusFilter = ""
	StatusActive StatusFilter = "active"
	StatusBanned StatusFilter = "banned"
)

// SortKey selects the roster ordering.
type SortKey string

const (
	SortName     SortKey = "name"
	SortNameDesc SortKey = "name_desc"
	SortID       SortKey = "id"
	SortIDDesc   SortKey = "id_desc"
)

// FilterState is the operator's current category/status/sort selection.
type FilterState struct {
	Category string       `json:"category,omitempty"`
	Status   StatusFilter `json:"status,omitempty"`
	Sort     SortKey      `json:"sort,omitempty"`
}

// ParseStatusFilter normalises a status query value. Unknown values are rejected.
func ParseStatusFilter(raw string) (StatusFilter, bool) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusAny:
		return StatusAny, true
	case StatusActive:
		return StatusActive, true
	case StatusBanned:
		return StatusBanned, true
	default:
		return StatusAny, false
	}
}

// ParseSortKey normalises a sort query value. Empty means name ascending.
func ParseSortKey(raw string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortName:
		return SortName, true
	case SortNameDesc:
		return SortNameDesc, true
	case SortID:
		return SortID, true
	case SortIDDesc:
		return SortIDDesc, true
	default:
		return SortName, false
	}
}

// Pagination describes the page returned alongside a roster view.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// PageButton is one entry of the pager control. Ellipsis entries carry no number.
type PageButton struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}
