package market

import (
	"net/url"
	"regexp"
	"strings"
)

// Quote 為跌幅榜中的單筆報價，每次抓取即時產生，不做持久化。
type Quote struct {
	Symbol        string  `json:"symbol"`
	PercentChange float64 `json:"percent_change"`
}

// NormalizeSymbol 統一代號格式（去空白、轉大寫）。
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsCandidate 判斷報價是否跌破門檻；門檻為正數，比較對象為 -threshold（含等於）。
func (q Quote) IsCandidate(threshold float64) bool {
	return q.PercentChange <= -threshold
}

// Symbols 取出報價代號清單，保留原順序。
func Symbols(quotes []Quote) []string {
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.Symbol)
	}
	return out
}

var classShare = regexp.MustCompile(`^[A-Z]{1,5}\.[A-Z]$`)

const quotePageBase = "https://finance.yahoo.com/quote/"

// QuoteURL 產生 Yahoo Finance 個股頁網址；BRK.B 這類股別代號轉成 BRK-B。
func QuoteURL(ticker string) string {
	t := NormalizeSymbol(ticker)
	if classShare.MatchString(t) {
		t = strings.Replace(t, ".", "-", 1)
	}
	return quotePageBase + url.PathEscape(t)
}
