package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CoinTerminal/internal/catalog"
	"CoinTerminal/internal/collector"
	"CoinTerminal/internal/config"
	"CoinTerminal/internal/model"
	"CoinTerminal/internal/scheduler"
	"CoinTerminal/internal/snapshot"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Addr = ":0"
	cfg.Server.PageSize = 20
	return cfg
}

func newTestServer(t *testing.T, fetcher *collector.MockFetcher) (*Server, *snapshot.Store, *scheduler.Scheduler) {
	t.Helper()
	store := snapshot.NewStore(time.Minute)
	sched := scheduler.NewScheduler(context.Background(), fetcher, store, catalog.NewNoopCatalog(), 100, "USD")
	srv := New(testConfig(), store, sched, catalog.NewNoopCatalog())
	return srv, store, sched
}

func seedQuotes(n int) []model.Quote {
	quotes := make([]model.Quote, 0, n)
	names := []string{"Bitcoin", "Ethereum", "Tether", "BNB", "Solana"}
	symbols := []string{"BTC", "ETH", "USDT", "BNB", "SOL"}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Coin%02d", i+1)
		symbol := fmt.Sprintf("C%02d", i+1)
		if i < len(names) {
			name = names[i]
			symbol = symbols[i]
		}
		quotes = append(quotes, model.Quote{
			ID:               i + 1,
			Rank:             i + 1,
			Symbol:           symbol,
			Name:             name,
			Price:            float64(1000 * (n - i)),
			PercentChange24h: float64(i) - 2,
			MarketCap:        float64(1e9 * (n - i)),
			Convert:          "USD",
		})
	}
	return quotes
}

func seedStore(store *snapshot.Store, quotes []model.Quote) {
	store.Replace(&model.Snapshot{Quotes: quotes, Convert: "USD", FetchedAt: time.Now()})
}

func do(s *Server, method, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, nil)
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeQuotes(t *testing.T, w *httptest.ResponseRecorder) quotesResponse {
	t.Helper()
	var resp quotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetQuotes_NoDataYet(t *testing.T) {
	s, _, _ := newTestServer(t, &collector.MockFetcher{})
	w := do(s, http.MethodGet, "/api/quotes")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetQuotes_DefaultRankOrderAndPaging(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(25))

	w := do(s, http.MethodGet, "/api/quotes?page_size=10")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeQuotes(t, w)
	require.Len(t, resp.Rows, 10)
	require.Equal(t, 1, resp.Rows[0].Rank)
	require.Equal(t, "BTC", resp.Rows[0].Symbol)
	require.Equal(t, 3, resp.TotalPages)
	require.Equal(t, 25, resp.TotalRows)

	w = do(s, http.MethodGet, "/api/quotes?page_size=10&page=3")
	resp = decodeQuotes(t, w)
	require.Len(t, resp.Rows, 5)
	require.Equal(t, 21, resp.Rows[0].Rank)
}

func TestGetQuotes_PageClamped(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(25))

	w := do(s, http.MethodGet, "/api/quotes?page_size=10&page=99")
	resp := decodeQuotes(t, w)
	require.Equal(t, 3, resp.Page)
	require.Len(t, resp.Rows, 5)
}

func TestGetQuotes_SearchFilter(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(25))

	w := do(s, http.MethodGet, "/api/quotes?q=eth")
	resp := decodeQuotes(t, w)
	require.Len(t, resp.Rows, 2) // Ethereum and Tether
	require.Equal(t, "ETH", resp.Rows[0].Symbol)
	require.Equal(t, "USDT", resp.Rows[1].Symbol)
}

func TestGetQuotes_SortByPrice(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(5))

	// Numeric keys default to descending.
	w := do(s, http.MethodGet, "/api/quotes?sort=price")
	resp := decodeQuotes(t, w)
	require.Equal(t, "BTC", resp.Rows[0].Symbol)

	w = do(s, http.MethodGet, "/api/quotes?sort=price&order=asc")
	resp = decodeQuotes(t, w)
	require.Equal(t, "SOL", resp.Rows[0].Symbol)
}

func TestGetQuotes_BadParams(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(5))

	require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/quotes?sort=volume").Code)
	require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/quotes?page_size=15").Code)
	require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/quotes?page=abc").Code)
	require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/quotes?sort=rank&order=sideways").Code)
}

func TestGetQuote_DetailAndUnknown(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(5))

	w := do(s, http.MethodGet, "/api/quotes/btc")
	require.Equal(t, http.StatusOK, w.Code)
	var row quoteRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	require.Equal(t, "BTC", row.Symbol)
	require.NotEmpty(t, row.Display.Price)

	require.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/quotes/NOPE").Code)
}

func TestGetSummary(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	quotes := []model.Quote{
		{Rank: 1, Symbol: "BTC", Name: "Bitcoin", MarketCap: 1.28e12, Volume24h: 3e10, Convert: "USD"},
		{Rank: 2, Symbol: "ETH", Name: "Ethereum", MarketCap: 4.08e11, Volume24h: 1.5e10, Convert: "USD"},
		{Rank: 3, Symbol: "USDT", Name: "Tether", MarketCap: 1.12e11, Volume24h: 5e10, Convert: "USD"},
	}
	seedStore(store, quotes)

	w := do(s, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summary model.Summary     `json:"summary"`
		Display map[string]string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.InDelta(t, 1.8e12, resp.Summary.TotalMarketCap, 1e6)
	require.InDelta(t, 71.11, resp.Summary.BTCDominance, 0.01)
	require.Equal(t, "$1.28T", resp.Display["btc_market_cap"])
	require.True(t, strings.HasSuffix(resp.Display["btc_dominance"], "%"))
}

func TestPostRefresh_Success(t *testing.T) {
	fetcher := &collector.MockFetcher{Listings: seedQuotes(5)}
	s, store, _ := newTestServer(t, fetcher)

	w := do(s, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)

	snap, ok := store.Current()
	require.True(t, ok)
	require.Len(t, snap.Quotes, 5)
}

func TestPostRefresh_FailureKeepsSnapshotAndReportsOneError(t *testing.T) {
	fetcher := &collector.MockFetcher{Listings: seedQuotes(5)}
	s, store, sched := newTestServer(t, fetcher)

	first, err := sched.Refresh()
	require.NoError(t, err)

	for _, kind := range []error{collector.ErrTransport, collector.ErrAuth, collector.ErrMalformed} {
		fetcher.Err = fmt.Errorf("wrapped: %w", kind)

		w := do(s, http.MethodPost, "/api/refresh")
		require.Equal(t, http.StatusBadGateway, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, collector.UserMessage, resp["error"])

		cur, ok := store.Current()
		require.True(t, ok)
		require.Same(t, first, cur)
	}
}

func TestGetSearch(t *testing.T) {
	s, _, _ := newTestServer(t, &collector.MockFetcher{})

	require.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/search").Code)

	w := do(s, http.MethodGet, "/api/search?q=bit")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Coins []catalog.Coin `json:"coins"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Coins)
}

func TestGetHealth(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})

	w := do(s, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	seedStore(store, seedQuotes(2))
	w = do(s, http.MethodGet, "/api/health")
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp["status"])
	require.Contains(t, resp, "snapshot_age_sec")
}

func TestIndexServed(t *testing.T) {
	s, _, _ := newTestServer(t, &collector.MockFetcher{})
	w := do(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "CoinTerminal")
}

func TestWebSocket_InitialAndBroadcast(t *testing.T) {
	s, store, _ := newTestServer(t, &collector.MockFetcher{})
	seedStore(store, seedQuotes(2))
	go s.hub.Run()
	defer s.hub.Stop()

	ts := httptest.NewServer(s.engine)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "INITIAL", msg.Type)
	require.Len(t, msg.Snapshot.Quotes, 2)

	snap := &model.Snapshot{Quotes: seedQuotes(3), Convert: "USD", FetchedAt: time.Now()}
	s.Broadcast(snap)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "UPDATE", msg.Type)
	require.Len(t, msg.Snapshot.Quotes, 3)
}
