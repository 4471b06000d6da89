package server

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"CoinTerminal/internal/catalog"
	"CoinTerminal/internal/collector"
	"CoinTerminal/internal/config"
	"CoinTerminal/internal/format"
	"CoinTerminal/internal/model"

	"github.com/gin-gonic/gin"
)

// quoteRow pairs the raw quote with its rendered display strings.
type quoteRow struct {
	model.Quote
	Display format.Row `json:"display"`
}

type quotesResponse struct {
	Rows       []quoteRow `json:"rows"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
	TotalRows  int        `json:"total_rows"`
	Convert    string     `json:"convert"`
	FetchedAt  time.Time  `json:"fetched_at"`
	Stale      bool       `json:"stale"`
}

// getQuotes serves the table view: filtered, sorted, paged rows out of the
// current snapshot. It never triggers a fetch.
func (s *Server) getQuotes(c *gin.Context) {
	snap, ok := s.store.Current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data yet"})
		return
	}

	quotes := filterQuotes(snap.Quotes, c.Query("q"))

	sortKey := c.DefaultQuery("sort", "rank")
	order := c.Query("order")
	if !sortQuotes(quotes, sortKey, order) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort key"})
		return
	}

	pageSize := s.cfg.Server.PageSize
	if v := c.Query("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !pageSizeAllowed(n) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
			return
		}
		pageSize = n
	}

	page := 1
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = n
	}

	totalRows := len(quotes)
	totalPages := (totalRows + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalRows {
		start = totalRows
	}
	if end > totalRows {
		end = totalRows
	}

	rows := make([]quoteRow, 0, end-start)
	for _, q := range quotes[start:end] {
		rows = append(rows, quoteRow{Quote: q, Display: format.QuoteRow(q)})
	}

	c.JSON(http.StatusOK, quotesResponse{
		Rows:       rows,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalRows:  totalRows,
		Convert:    snap.Convert,
		FetchedAt:  snap.FetchedAt,
		Stale:      s.store.Stale(),
	})
}

func (s *Server) getQuote(c *gin.Context) {
	snap, ok := s.store.Current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data yet"})
		return
	}
	symbol := strings.ToUpper(c.Param("symbol"))
	for _, q := range snap.Quotes {
		if q.Symbol == symbol {
			c.JSON(http.StatusOK, quoteRow{Quote: q, Display: format.QuoteRow(q)})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
}

func (s *Server) getSummary(c *gin.Context) {
	snap, ok := s.store.Current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data yet"})
		return
	}
	sum := snap.Summarize()
	sign := format.CurrencySign(sum.Convert)
	c.JSON(http.StatusOK, gin.H{
		"summary": sum,
		"display": gin.H{
			"total_market_cap": sign + format.HumanNum(sum.TotalMarketCap),
			"total_volume_24h": sign + format.HumanNum(sum.TotalVolume24h),
			"btc_market_cap":   sign + format.HumanNum(sum.BTCMarketCap),
			"eth_market_cap":   sign + format.HumanNum(sum.ETHMarketCap),
			"btc_dominance":    strconv.FormatFloat(sum.BTCDominance, 'f', 2, 64) + "%",
			"eth_dominance":    strconv.FormatFloat(sum.ETHDominance, 'f', 2, 64) + "%",
		},
	})
}

// postRefresh triggers one refresh cycle. Any failure keeps the previous
// snapshot and reports the single user-visible error message.
func (s *Server) postRefresh(c *gin.Context) {
	snap, err := s.sched.Refresh()
	if err != nil {
		log.Printf("[ERROR] manual refresh: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": collector.UserMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fetched_at": snap.FetchedAt,
		"rows":       len(snap.Quotes),
	})
}

func (s *Server) getSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	coins, err := s.catalog.Search(query, 20)
	if err != nil {
		log.Printf("[ERROR] catalog search: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if coins == nil {
		coins = []catalog.Coin{}
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

func (s *Server) getHealth(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	}
	if age, ok := s.store.Age(); ok {
		resp["snapshot_age_sec"] = int(age.Seconds())
		resp["stale"] = s.store.Stale()
	}
	c.JSON(http.StatusOK, resp)
}

// filterQuotes returns the quotes whose name or symbol contains the query,
// case-insensitively. An empty query keeps everything.
func filterQuotes(quotes []model.Quote, query string) []model.Quote {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Quote, 0, len(quotes))
	if query == "" {
		return append(out, quotes...)
	}
	for _, q := range quotes {
		if strings.Contains(strings.ToLower(q.Symbol), query) ||
			strings.Contains(strings.ToLower(q.Name), query) {
			out = append(out, q)
		}
	}
	return out
}

// sortQuotes orders quotes in place. Rank defaults to ascending, numeric
// keys to descending. Returns false for an unknown sort key.
func sortQuotes(quotes []model.Quote, key, order string) bool {
	var less func(a, b model.Quote) bool
	defaultOrder := "desc"
	switch key {
	case "rank":
		less = func(a, b model.Quote) bool { return a.Rank < b.Rank }
		defaultOrder = "asc"
	case "price":
		less = func(a, b model.Quote) bool { return a.Price < b.Price }
	case "pct24h":
		less = func(a, b model.Quote) bool { return a.PercentChange24h < b.PercentChange24h }
	case "market_cap":
		less = func(a, b model.Quote) bool { return a.MarketCap < b.MarketCap }
	default:
		return false
	}
	if order == "" {
		order = defaultOrder
	}
	switch order {
	case "asc":
		sort.SliceStable(quotes, func(i, j int) bool { return less(quotes[i], quotes[j]) })
	case "desc":
		sort.SliceStable(quotes, func(i, j int) bool { return less(quotes[j], quotes[i]) })
	default:
		return false
	}
	return true
}

func pageSizeAllowed(n int) bool {
	for _, p := range config.PageSizes {
		if n == p {
			return true
		}
	}
	return false
}
