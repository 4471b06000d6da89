package snapshot

import (
	"testing"
	"time"

	"CoinTerminal/internal/model"

	"github.com/stretchr/testify/require"
)

func TestStore_EmptyUntilFirstReplace(t *testing.T) {
	s := NewStore(time.Minute)

	_, ok := s.Current()
	require.False(t, ok)
	_, ok = s.Age()
	require.False(t, ok)
	require.False(t, s.Stale())
}

func TestStore_ReplaceWholesale(t *testing.T) {
	s := NewStore(time.Minute)

	first := &model.Snapshot{
		Quotes:    []model.Quote{{Symbol: "BTC", Price: 65000}},
		Convert:   "USD",
		FetchedAt: time.Now(),
	}
	s.Replace(first)

	got, ok := s.Current()
	require.True(t, ok)
	require.Same(t, first, got)

	second := &model.Snapshot{
		Quotes:    []model.Quote{{Symbol: "BTC", Price: 66000}, {Symbol: "ETH", Price: 3400}},
		Convert:   "USD",
		FetchedAt: time.Now(),
	}
	s.Replace(second)

	got, ok = s.Current()
	require.True(t, ok)
	require.Same(t, second, got)
	require.Len(t, got.Quotes, 2)
}

func TestStore_Staleness(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	s.Replace(&model.Snapshot{FetchedAt: time.Now().Add(-time.Second)})
	require.True(t, s.Stale())

	s.Replace(&model.Snapshot{FetchedAt: time.Now()})
	require.False(t, s.Stale())
}

func TestStore_TTLDisabled(t *testing.T) {
	s := NewStore(0)
	s.Replace(&model.Snapshot{FetchedAt: time.Now().Add(-time.Hour)})
	require.False(t, s.Stale())
}
