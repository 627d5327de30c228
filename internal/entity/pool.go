package entity

import "time"

// PoolFields are the source-specific values an adapter extracts from a raw record.
type PoolFields struct {
	Token0Symbol   string
	Token1Symbol   string
	Token0Contract string
	Token1Contract string
	Reserve0Amount float64
	Reserve1Amount float64
}

// Pool is the source-independent view of one liquidity pool.
// Liquidity is the plain sum of both reserves, not a value-weighted figure.
type Pool struct {
	ID             string    `json:"id"`
	SourceID       string    `json:"source_id"`
	PairName       string    `json:"pair_name"`
	Token0Symbol   string    `json:"token0_symbol"`
	Token1Symbol   string    `json:"token1_symbol"`
	Token0Contract string    `json:"token0_contract"`
	Token1Contract string    `json:"token1_contract"`
	Reserve0Amount float64   `json:"reserve0_amount"`
	Reserve1Amount float64   `json:"reserve1_amount"`
	Liquidity      float64   `json:"liquidity"`
	Price          float64   `json:"price"` // token1 per token0
	Volume24h      float64   `json:"volume_24h"`
	LastUpdate     time.Time `json:"last_update"`
	RawRecord      RawRecord `json:"raw_record,omitempty"`
}

// Active reports whether both sides of the pool hold a positive reserve.
func (p Pool) Active() bool {
	return p.Reserve0Amount > 0 && p.Reserve1Amount > 0
}

// MarketQuote is one source's view of a pair inside a consolidated market.
type MarketQuote struct {
	SourceID       string  `json:"source_id"`
	PoolID         string  `json:"pool_id"`
	BaseReserve    float64 `json:"base_reserve"`
	QuoteReserve   float64 `json:"quote_reserve"`
	NormalizedRate float64 `json:"normalized_price"` // quote symbol per base symbol
	Active         bool    `json:"active"`
}

// Market groups every source's pool for the same pair.
type Market struct {
	PairName    string        `json:"pair_name"`
	BaseSymbol  string        `json:"base_symbol"`
	QuoteSymbol string        `json:"quote_symbol"`
	Quotes      []MarketQuote `json:"quotes"`
	BestPrice   float64       `json:"best_price"`
	BestSource  string        `json:"best_source,omitempty"`
	LastUpdate  time.Time     `json:"last_update"`
}
