package service

import (
	"sort"
	"strings"

	"pool_monitor/internal/entity"
)

// ConsolidateMarkets groups pools by pair name. Each quote is oriented to the pair's canonical
// order: NormalizedRate is the second symbol per unit of the first. BestPrice is the lowest
// positive rate among active quotes.
func ConsolidateMarkets(pools []entity.Pool) []entity.Market {
	byPair := make(map[string]*entity.Market)
	var order []string

	for _, p := range pools {
		m, ok := byPair[p.PairName]
		if !ok {
			base, quote := splitPair(p.PairName)
			m = &entity.Market{PairName: p.PairName, BaseSymbol: base, QuoteSymbol: quote}
			byPair[p.PairName] = m
			order = append(order, p.PairName)
		}

		q := entity.MarketQuote{SourceID: p.SourceID, PoolID: p.ID, Active: p.Active()}
		if p.Token0Symbol == m.BaseSymbol {
			q.BaseReserve, q.QuoteReserve = p.Reserve0Amount, p.Reserve1Amount
		} else {
			q.BaseReserve, q.QuoteReserve = p.Reserve1Amount, p.Reserve0Amount
		}
		q.NormalizedRate = Price(q.BaseReserve, q.QuoteReserve)
		m.Quotes = append(m.Quotes, q)

		if q.Active && q.NormalizedRate > 0 && (m.BestSource == "" || q.NormalizedRate < m.BestPrice) {
			m.BestPrice = q.NormalizedRate
			m.BestSource = q.SourceID
		}
		if p.LastUpdate.After(m.LastUpdate) {
			m.LastUpdate = p.LastUpdate
		}
	}

	sort.Strings(order)
	markets := make([]entity.Market, 0, len(order))
	for _, name := range order {
		markets = append(markets, *byPair[name])
	}
	return markets
}

func splitPair(pair string) (string, string) {
	base, quote, _ := strings.Cut(pair, "/")
	return base, quote
}
