package service

import (
	"math"
	"strconv"

	"pool_monitor/internal/adapter"
	"pool_monitor/internal/entity"
	"pool_monitor/internal/port"
)

// PriceEpsilon keeps Price finite for an empty reserve0.
const PriceEpsilon = 1e-8

// PairName joins both symbols in lexicographic order, so PairName(a, b) == PairName(b, a).
func PairName(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "/" + b
}

// Liquidity is the plain sum of both reserves, or 0 when the sum overflows.
func Liquidity(reserve0, reserve1 float64) float64 {
	return finiteOrZero(reserve0 + reserve1)
}

// Price is token1 per token0. A reserve0 of -PriceEpsilon or an overflowing quotient yields 0.
func Price(reserve0, reserve1 float64) float64 {
	return finiteOrZero(reserve1 / (reserve0 + PriceEpsilon))
}

// finiteOrZero keeps NaN and infinities out of pools, which JSON cannot encode.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Normalize adapts every row of every usable snapshot, in source order and then row order.
// Sources that are absent or failed contribute nothing. The result is recomputed on each call.
func Normalize(sources []entity.Source, store port.SnapshotStore) []entity.Pool {
	var pools []entity.Pool
	for _, src := range sources {
		state, ok := store.Get(src.ID)
		if !ok || !state.Usable() {
			continue
		}
		pools = append(pools, NormalizeSnapshot(src, state.Snapshot)...)
	}
	return pools
}

// NormalizeSnapshot adapts the rows of a single snapshot.
func NormalizeSnapshot(src entity.Source, snap *entity.Snapshot) []entity.Pool {
	if snap == nil {
		return nil
	}
	pools := make([]entity.Pool, 0, len(snap.Rows))
	for idx, raw := range snap.Rows {
		f := adapter.Adapt(src, raw)
		pools = append(pools, entity.Pool{
			ID:             poolID(src.ID, raw, idx),
			SourceID:       src.ID,
			PairName:       PairName(f.Token0Symbol, f.Token1Symbol),
			Token0Symbol:   f.Token0Symbol,
			Token1Symbol:   f.Token1Symbol,
			Token0Contract: f.Token0Contract,
			Token1Contract: f.Token1Contract,
			Reserve0Amount: f.Reserve0Amount,
			Reserve1Amount: f.Reserve1Amount,
			Liquidity:      Liquidity(f.Reserve0Amount, f.Reserve1Amount),
			Price:          Price(f.Reserve0Amount, f.Reserve1Amount),
			Volume24h:      adapter.Volume24h(raw),
			LastUpdate:     snap.CollectedAt,
			RawRecord:      raw,
		})
	}
	return pools
}

func poolID(sourceID string, raw entity.RawRecord, idx int) string {
	if id, ok := adapter.RowID(raw); ok {
		return sourceID + ":" + id
	}
	return sourceID + ":" + strconv.Itoa(idx)
}
