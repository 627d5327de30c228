package entity

import (
	"fmt"
	"math"
)

// AllSources is the source selector that disables source filtering.
const AllSources = "all"

// SortField selects the value pools are ordered by.
type SortField string

const (
	SortByLiquidity SortField = "liquidity"
	SortByVolume    SortField = "volume"
	SortByPrice     SortField = "price"
	SortByPair      SortField = "pair"
)

// SortDirection selects ascending or descending order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterSpec is the user-held filter and sort configuration.
// MinLiquidity <= MaxLiquidity is left to the caller.
type FilterSpec struct {
	Source       string        `json:"source"`
	MinLiquidity float64       `json:"min_liquidity"`
	MaxLiquidity float64       `json:"max_liquidity"`
	MinReserve   float64       `json:"min_reserve"`
	Search       string        `json:"search"`
	ActiveOnly   bool          `json:"active_only"`
	SortBy       SortField     `json:"sort_by"`
	SortDir      SortDirection `json:"sort_dir"`
}

// DefaultFilterSpec matches every pool and orders by liquidity, largest first.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Source:       AllSources,
		MinLiquidity: 0,
		MaxLiquidity: math.MaxFloat64,
		SortBy:       SortByLiquidity,
		SortDir:      SortDesc,
	}
}

// ValidateBounds rejects NaN and infinite numeric bounds, which cannot be echoed back as JSON.
func (f FilterSpec) ValidateBounds() error {
	for _, b := range []struct {
		name  string
		value float64
	}{
		{"min_liquidity", f.MinLiquidity},
		{"max_liquidity", f.MaxLiquidity},
		{"min_reserve", f.MinReserve},
	} {
		if math.IsNaN(b.value) || math.IsInf(b.value, 0) {
			return fmt.Errorf("invalid %s %v", b.name, b.value)
		}
	}
	return nil
}
