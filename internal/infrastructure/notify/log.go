package notify

import (
	"context"

	alertDomain "losers-alert/internal/domain/alert"

	"github.com/rs/zerolog"
)

// LogNotifier 把通知寫成一行結構化日誌，daemon 永遠啟用此通道。
// summary 為截斷後的單行內文，完整清單放在 symbols。
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("channel", "log").Logger()}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Send(_ context.Context, n alertDomain.Notification) error {
	l.logger.Info().
		Str("date", alertDomain.DateKey(n.Date)).
		Float64("threshold", n.Threshold).
		Int("hits", len(n.Hits)).
		Str("title", n.Title()).
		Str("summary", n.ShortText()).
		Strs("symbols", symbols(n)).
		Msg("day losers notification")
	return nil
}

func symbols(n alertDomain.Notification) []string {
	out := make([]string, 0, len(n.Hits))
	for _, q := range n.Hits {
		out = append(out, q.Symbol)
	}
	return out
}
