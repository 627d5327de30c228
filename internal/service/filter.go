package service

import (
	"sort"
	"strings"

	"pool_monitor/internal/entity"
)

// PoolPredicate reports whether a pool passes one filter.
type PoolPredicate func(entity.Pool) bool

// Predicates turns a FilterSpec into independent predicates. They are combined
// conjunctively, so their order never changes the result set.
func Predicates(spec entity.FilterSpec) []PoolPredicate {
	preds := []PoolPredicate{
		liquidityBetween(spec.MinLiquidity, spec.MaxLiquidity),
	}
	if spec.Source != "" && spec.Source != entity.AllSources {
		preds = append(preds, fromSource(spec.Source))
	}
	if q := strings.TrimSpace(spec.Search); q != "" {
		preds = append(preds, matchesText(q))
	}
	if spec.ActiveOnly {
		preds = append(preds, entity.Pool.Active)
	}
	if spec.MinReserve > 0 {
		preds = append(preds, reservesAtLeast(spec.MinReserve))
	}
	return preds
}

func fromSource(id string) PoolPredicate {
	return func(p entity.Pool) bool { return p.SourceID == id }
}

func matchesText(q string) PoolPredicate {
	q = strings.ToLower(q)
	return func(p entity.Pool) bool {
		return strings.Contains(strings.ToLower(p.Token0Symbol), q) ||
			strings.Contains(strings.ToLower(p.Token1Symbol), q) ||
			strings.Contains(strings.ToLower(p.PairName), q)
	}
}

func liquidityBetween(lo, hi float64) PoolPredicate {
	return func(p entity.Pool) bool { return p.Liquidity >= lo && p.Liquidity <= hi }
}

// reservesAtLeast drops thin pools where either side holds less than floor.
func reservesAtLeast(floor float64) PoolPredicate {
	return func(p entity.Pool) bool { return p.Reserve0Amount >= floor && p.Reserve1Amount >= floor }
}

// FilterPools returns the pools passing every predicate, in input order. The input is not modified.
func FilterPools(pools []entity.Pool, preds ...PoolPredicate) []entity.Pool {
	out := make([]entity.Pool, 0, len(pools))
next:
	for _, p := range pools {
		for _, keep := range preds {
			if !keep(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// comparePools returns <0, 0 or >0; ok is false for an unknown field.
func comparePools(field entity.SortField) (cmp func(a, b entity.Pool) int, ok bool) {
	num := func(get func(entity.Pool) float64) func(a, b entity.Pool) int {
		return func(a, b entity.Pool) int {
			x, y := get(a), get(b)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}

	switch field {
	case entity.SortByLiquidity:
		return num(func(p entity.Pool) float64 { return p.Liquidity }), true
	case entity.SortByVolume:
		return num(func(p entity.Pool) float64 { return p.Volume24h }), true
	case entity.SortByPrice:
		return num(func(p entity.Pool) float64 { return p.Price }), true
	case entity.SortByPair:
		return func(a, b entity.Pool) int { return strings.Compare(a.PairName, b.PairName) }, true
	default:
		return nil, false
	}
}

// SortPools returns a stably sorted copy. An unknown field keeps the input order.
func SortPools(pools []entity.Pool, field entity.SortField, dir entity.SortDirection) []entity.Pool {
	out := make([]entity.Pool, len(pools))
	copy(out, pools)

	cmp, ok := comparePools(field)
	if !ok {
		return out
	}
	sign := 1
	if dir == entity.SortDesc {
		sign = -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sign*cmp(out[i], out[j]) < 0
	})
	return out
}

// ApplyFilters filters then sorts pools according to spec.
func ApplyFilters(pools []entity.Pool, spec entity.FilterSpec) []entity.Pool {
	return SortPools(FilterPools(pools, Predicates(spec)...), spec.SortBy, spec.SortDir)
}
