package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	now := time.Now()
	snap := &Snapshot{
		Quotes: []Quote{
			{Symbol: "BTC", MarketCap: 1.28e12, Volume24h: 3e10},
			{Symbol: "ETH", MarketCap: 4.08e11, Volume24h: 1.5e10},
			{Symbol: "USDT", MarketCap: 1.12e11, Volume24h: 5e10},
		},
		Convert:   "USD",
		FetchedAt: now,
	}

	sum := snap.Summarize()
	require.InDelta(t, 1.8e12, sum.TotalMarketCap, 1e6)
	require.InDelta(t, 9.5e10, sum.TotalVolume24h, 1e6)
	require.Equal(t, 1.28e12, sum.BTCMarketCap)
	require.Equal(t, 4.08e11, sum.ETHMarketCap)
	require.InDelta(t, 71.11, sum.BTCDominance, 0.01)
	require.InDelta(t, 22.67, sum.ETHDominance, 0.01)
	require.Equal(t, "USD", sum.Convert)
	require.Equal(t, now, sum.FetchedAt)
}

func TestSummarize_EmptySnapshot(t *testing.T) {
	snap := &Snapshot{Convert: "USD"}
	sum := snap.Summarize()
	require.Zero(t, sum.TotalMarketCap)
	require.Zero(t, sum.BTCDominance)
}
