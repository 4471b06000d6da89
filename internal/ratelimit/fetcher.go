package ratelimit

import (
	"context"

	"CoinTerminal/internal/collector"
	"CoinTerminal/internal/model"
)

// Fetcher wraps a collector.Fetcher and gates outbound calls with a
// token bucket, keeping the process inside the API plan's request budget.
type Fetcher struct {
	F  collector.Fetcher
	TB *TokenBucket
}

func (r *Fetcher) Name() string { return r.F.Name() }

func (r *Fetcher) FetchListings(ctx context.Context, limit int) ([]model.Quote, error) {
	if r.TB != nil {
		if err := r.TB.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.F.FetchListings(ctx, limit)
}

func (r *Fetcher) FetchQuotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if r.TB != nil {
		if err := r.TB.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.F.FetchQuotes(ctx, symbols)
}
