package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"CoinTerminal/internal/model"
)

// CurrencySign returns the display sign for a convert currency.
func CurrencySign(convert string) string {
	switch convert {
	case "EUR":
		return "€"
	case "CNY":
		return "¥"
	default:
		return "$"
	}
}

// HumanNum compresses large magnitudes into 1.23T / 4.56B / 7.89M / 1.23K.
func HumanNum(x float64) string {
	abs := math.Abs(x)
	switch {
	case abs >= 1e12:
		return humanize.CommafWithDigits(x/1e12, 2) + "T"
	case abs >= 1e9:
		return humanize.CommafWithDigits(x/1e9, 2) + "B"
	case abs >= 1e6:
		return humanize.CommafWithDigits(x/1e6, 2) + "M"
	case abs >= 1e3:
		return humanize.CommafWithDigits(x/1e3, 2) + "K"
	default:
		return humanize.CommafWithDigits(x, 0)
	}
}

// Price formats a unit price. Sub-unit coins keep four decimals so small
// prices do not collapse to 0.00.
func Price(x float64, convert string) string {
	sign := CurrencySign(convert)
	if math.Abs(x) < 1 {
		return sign + humanize.CommafWithDigits(x, 4)
	}
	return sign + humanize.CommafWithDigits(x, 2)
}

// Percent formats a percent change with an explicit sign.
func Percent(x float64) string {
	return fmt.Sprintf("%+.2f%%", x)
}

// Row holds the display strings for one table row, in fixed column order.
type Row struct {
	Rank      int    `json:"rank"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Change1h  string `json:"change_1h"`
	Change24h string `json:"change_24h"`
	Change7d  string `json:"change_7d"`
	MarketCap string `json:"market_cap"`
	Volume24h string `json:"volume_24h"`
}

// QuoteRow renders one quote into display strings.
func QuoteRow(q model.Quote) Row {
	return Row{
		Rank:      q.Rank,
		Symbol:    q.Symbol,
		Name:      q.Name,
		Price:     Price(q.Price, q.Convert),
		Change1h:  Percent(q.PercentChange1h),
		Change24h: Percent(q.PercentChange24h),
		Change7d:  Percent(q.PercentChange7d),
		MarketCap: CurrencySign(q.Convert) + HumanNum(q.MarketCap),
		Volume24h: CurrencySign(q.Convert) + HumanNum(q.Volume24h),
	}
}

// Rows renders a quote sequence in order. Identical inputs yield identical
// output.
func Rows(quotes []model.Quote) []Row {
	rows := make([]Row, len(quotes))
	for i, q := range quotes {
		rows[i] = QuoteRow(q)
	}
	return rows
}

// Table renders quotes as a fixed-width text table for terminal output.
func Table(quotes []model.Quote) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-5s %-8s %-22s %14s %9s %9s %9s %12s %12s\n",
		"#", "SYMBOL", "NAME", "PRICE", "1H%", "24H%", "7D%", "MCAP", "VOL24H"))
	for _, q := range quotes {
		r := QuoteRow(q)
		name := r.Name
		if len(name) > 22 {
			name = name[:19] + "..."
		}
		b.WriteString(fmt.Sprintf("%-5d %-8s %-22s %14s %9s %9s %9s %12s %12s\n",
			r.Rank, r.Symbol, name, r.Price, r.Change1h, r.Change24h, r.Change7d,
			r.MarketCap, r.Volume24h))
	}
	return b.String()
}

// Summary formats market-wide metrics for display.
func Summary(s model.Summary) string {
	sign := CurrencySign(s.Convert)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total market cap: %s%s\n", sign, HumanNum(s.TotalMarketCap)))
	b.WriteString(fmt.Sprintf("Total 24h volume: %s%s\n", sign, HumanNum(s.TotalVolume24h)))
	b.WriteString(fmt.Sprintf("BTC market cap:   %s%s (%.2f%%)\n", sign, HumanNum(s.BTCMarketCap), s.BTCDominance))
	b.WriteString(fmt.Sprintf("ETH market cap:   %s%s (%.2f%%)\n", sign, HumanNum(s.ETHMarketCap), s.ETHDominance))
	b.WriteString(fmt.Sprintf("Fetched at:       %s\n", s.FetchedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}
