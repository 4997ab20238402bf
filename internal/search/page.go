// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package search

// Page is one window of an ordered result list.
type Page[T any] struct {
	Items       []T  `json:"items"`
	TotalCount  int  `json:"total_count"`
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasNextPage bool `json:"has_next_page"`
}

// NewPage wraps items fetched for c. HasNextPage is true iff more rows
// exist beyond this page.
func NewPage[T any](items []T, total int, c Criteria) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		TotalCount:  total,
		Page:        c.Page,
		PerPage:     c.Limit,
		HasNextPage: total > c.Page*c.Limit,
	}
}
