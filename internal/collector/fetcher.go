package collector

import (
	"context"

	"CoinTerminal/internal/model"
)

// Fetcher defines the interface for fetching quote data.
type Fetcher interface {
	// FetchListings returns the top-ranked coins, in rank order.
	FetchListings(ctx context.Context, limit int) ([]model.Quote, error)
	// FetchQuotes returns one quote per requested symbol, in request order.
	FetchQuotes(ctx context.Context, symbols []string) ([]model.Quote, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Listings []model.Quote
	Quotes   map[string]model.Quote
	Err      error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchListings(_ context.Context, limit int) ([]model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.Listings
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockFetcher) FetchQuotes(_ context.Context, symbols []string) ([]model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := m.Quotes[s]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}
