package alert

import (
	"fmt"
	"strings"
	"time"

	"losers-alert/internal/domain/market"
)

// shortTextLimit 對應通知摘要列可顯示的字數。
const shortTextLimit = 80

// Notification 封裝單次管線執行要送出的批次通知。
type Notification struct {
	Date      time.Time
	Threshold float64
	Hits      []market.Quote
}

// Title 例如 "↓ 2 hit(s) ≤ −30.0%"。
func (n Notification) Title() string {
	return fmt.Sprintf("↓ %d hit(s) ≤ −%.1f%%", len(n.Hits), n.Threshold)
}

// Body 列出所有命中代號與跌幅。
func (n Notification) Body() string {
	parts := make([]string, 0, len(n.Hits))
	for _, q := range n.Hits {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", q.Symbol, q.PercentChange))
	}
	return strings.Join(parts, ", ")
}

// ShortText 截斷後的內文，供單行顯示。
func (n Notification) ShortText() string {
	body := []rune(n.Body())
	if len(body) <= shortTextLimit {
		return string(body)
	}
	return string(body[:shortTextLimit])
}

// Message 為文字型通道（Telegram、log）使用的完整訊息。
func (n Notification) Message() string {
	return n.Title() + "\n" + n.Body()
}
