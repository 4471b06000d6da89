package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CoinTerminal/internal/model"
)

// DefaultBaseURL is the CoinMarketCap Pro API endpoint.
const DefaultBaseURL = "https://pro-api.coinmarketcap.com"

// CMCFetcher implements Fetcher using the CoinMarketCap Pro REST API.
type CMCFetcher struct {
	BaseURL string
	APIKey  string
	Convert string
	Client  *http.Client
}

// NewCMCFetcher creates a new fetcher with optional proxy support.
func NewCMCFetcher(baseURL, apiKey, convert string, timeout time.Duration, proxyURL string) *CMCFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CMCFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Convert: convert,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *CMCFetcher) Name() string { return "coinmarketcap" }

// cmcStatus is the envelope status block present in every CMC response.
type cmcStatus struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// cmcCoin is the per-coin shape shared by listings and quote lookups.
type cmcCoin struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	Symbol            string              `json:"symbol"`
	Slug              string              `json:"slug"`
	CmcRank           int                 `json:"cmc_rank"`
	CirculatingSupply float64             `json:"circulating_supply"`
	Quote             map[string]cmcQuote `json:"quote"`
}

type cmcQuote struct {
	Price            *float64 `json:"price"`
	Volume24h        float64  `json:"volume_24h"`
	PercentChange1h  float64  `json:"percent_change_1h"`
	PercentChange24h float64  `json:"percent_change_24h"`
	PercentChange7d  float64  `json:"percent_change_7d"`
	MarketCap        float64  `json:"market_cap"`
	LastUpdated      string   `json:"last_updated"`
}

// FetchListings returns the top `limit` coins by market cap rank.
func (f *CMCFetcher) FetchListings(ctx context.Context, limit int) ([]model.Quote, error) {
	params := url.Values{}
	params.Set("start", "1")
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("convert", f.Convert)

	body, err := f.get(ctx, "/v1/cryptocurrency/listings/latest", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status cmcStatus `json:"status"`
		Data   []cmcCoin `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode listings: %w: %w", ErrMalformed, err)
	}
	if err := apiError(result.Status); err != nil {
		return nil, err
	}

	quotes := make([]model.Quote, 0, len(result.Data))
	for _, c := range result.Data {
		q, err := f.toQuote(c)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// FetchQuotes returns one quote per requested symbol, preserving request
// order. Symbols are deduplicated; an empty set is an error.
func (f *CMCFetcher) FetchQuotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("fetch quotes: empty symbol set")
	}

	params := url.Values{}
	params.Set("symbol", strings.Join(symbols, ","))
	params.Set("convert", f.Convert)

	body, err := f.get(ctx, "/v1/cryptocurrency/quotes/latest", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status cmcStatus          `json:"status"`
		Data   map[string]cmcCoin `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode quotes: %w: %w", ErrMalformed, err)
	}
	if err := apiError(result.Status); err != nil {
		return nil, err
	}

	quotes := make([]model.Quote, 0, len(symbols))
	for _, s := range symbols {
		c, ok := result.Data[s]
		if !ok {
			return nil, fmt.Errorf("quote for %s missing: %w", s, ErrMalformed)
		}
		q, err := f.toQuote(c)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (f *CMCFetcher) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s?%s", f.BaseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", f.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cmc request: %w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cmc read body: %w: %w", ErrTransport, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("cmc: status %d: %w", resp.StatusCode, ErrAuth)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("cmc: status %d, body: %s: %w", resp.StatusCode, truncate(body, 200), ErrTransport)
	}
	return body, nil
}

// apiError maps a non-zero CMC status block to an error kind. Codes 1001
// and 1002 are API key problems, everything else is a server-side failure.
func apiError(st cmcStatus) error {
	if st.ErrorCode == 0 {
		return nil
	}
	if st.ErrorCode == 1001 || st.ErrorCode == 1002 {
		return fmt.Errorf("cmc api error %d: %s: %w", st.ErrorCode, st.ErrorMessage, ErrAuth)
	}
	return fmt.Errorf("cmc api error %d: %s: %w", st.ErrorCode, st.ErrorMessage, ErrTransport)
}

func (f *CMCFetcher) toQuote(c cmcCoin) (model.Quote, error) {
	entry, ok := c.Quote[f.Convert]
	if !ok {
		return model.Quote{}, fmt.Errorf("%s: no %s quote: %w", c.Symbol, f.Convert, ErrMalformed)
	}
	if entry.Price == nil {
		return model.Quote{}, fmt.Errorf("%s: price missing: %w", c.Symbol, ErrMalformed)
	}
	updated, _ := time.Parse(time.RFC3339, entry.LastUpdated)
	return model.Quote{
		ID:                c.ID,
		Rank:              c.CmcRank,
		Symbol:            c.Symbol,
		Name:              c.Name,
		Slug:              c.Slug,
		Price:             *entry.Price,
		PercentChange1h:   entry.PercentChange1h,
		PercentChange24h:  entry.PercentChange24h,
		PercentChange7d:   entry.PercentChange7d,
		Volume24h:         entry.Volume24h,
		MarketCap:         entry.MarketCap,
		CirculatingSupply: c.CirculatingSupply,
		Convert:           f.Convert,
		LastUpdated:       updated,
	}, nil
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
