package catalog

import "CoinTerminal/internal/model"

// Coin is one entry of the known-coin registry used for symbol search.
type Coin struct {
	ID     int    `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Rank   int    `json:"rank"`
}

// Catalog persists the coin universe for name/symbol search.
type Catalog interface {
	UpsertAll(coins []Coin) error
	Search(query string, limit int) ([]Coin, error)
	Close() error
}

// FromQuotes extracts catalog entries from a fetched quote set.
func FromQuotes(quotes []model.Quote) []Coin {
	coins := make([]Coin, 0, len(quotes))
	for _, q := range quotes {
		coins = append(coins, Coin{
			ID:     q.ID,
			Symbol: q.Symbol,
			Name:   q.Name,
			Slug:   q.Slug,
			Rank:   q.Rank,
		})
	}
	return coins
}
