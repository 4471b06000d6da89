package model

import "time"

// Quote is a single point-in-time price/market snapshot for one coin.
// Quotes are created fresh on every poll and never mutated.
type Quote struct {
	ID                int       `json:"id"`
	Rank              int       `json:"rank"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Price             float64   `json:"price"`
	PercentChange1h   float64   `json:"percent_change_1h"`
	PercentChange24h  float64   `json:"percent_change_24h"`
	PercentChange7d   float64   `json:"percent_change_7d"`
	Volume24h         float64   `json:"volume_24h"`
	MarketCap         float64   `json:"market_cap"`
	CirculatingSupply float64   `json:"circulating_supply"`
	Convert           string    `json:"convert"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Snapshot is the result of one successful refresh cycle. A snapshot is
// replaced wholesale or left untouched; it is never partially updated, so
// the displayed row set always comes from a single API response.
type Snapshot struct {
	Quotes    []Quote   `json:"quotes"`
	Convert   string    `json:"convert"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Summary holds market-wide metrics derived from one snapshot.
type Summary struct {
	TotalMarketCap float64   `json:"total_market_cap"`
	TotalVolume24h float64   `json:"total_volume_24h"`
	BTCMarketCap   float64   `json:"btc_market_cap"`
	ETHMarketCap   float64   `json:"eth_market_cap"`
	BTCDominance   float64   `json:"btc_dominance"`
	ETHDominance   float64   `json:"eth_dominance"`
	Convert        string    `json:"convert"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// Summarize computes market-wide totals over the snapshot's quotes.
// Dominance percentages are relative to the fetched set, matching a
// top-N listing view rather than the full market.
func (s *Snapshot) Summarize() Summary {
	sum := Summary{Convert: s.Convert, FetchedAt: s.FetchedAt}
	for _, q := range s.Quotes {
		sum.TotalMarketCap += q.MarketCap
		sum.TotalVolume24h += q.Volume24h
		switch q.Symbol {
		case "BTC":
			sum.BTCMarketCap = q.MarketCap
		case "ETH":
			sum.ETHMarketCap = q.MarketCap
		}
	}
	if sum.TotalMarketCap > 0 {
		sum.BTCDominance = sum.BTCMarketCap / sum.TotalMarketCap * 100
		sum.ETHDominance = sum.ETHMarketCap / sum.TotalMarketCap * 100
	}
	return sum
}
