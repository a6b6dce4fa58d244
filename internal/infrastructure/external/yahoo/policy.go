package yahoo

import (
	"context"
	"errors"

	"losers-alert/internal/domain/market"
)

// ErrEmpty 表示端點回應成功但沒有可用的列。
var ErrEmpty = errors.New("yahoo: no parseable quotes")

// Attempt 為單一階段的抓取，回傳結果或錯誤，不吞錯。
type Attempt struct {
	Stage string
	Run   func(ctx context.Context) ([]market.Quote, error)
}

// Outcome 為整個 fallback 序列的結果。Stage 為實際提供資料的階段，全部失敗時為空字串。
type Outcome struct {
	Quotes []market.Quote
	Stage  string
	Errors map[string]error
}

// FetchWithFallback 依序嘗試各階段：前一階段失敗或為空才嘗試下一階段；全部失敗時回傳空結果而非錯誤。
func FetchWithFallback(ctx context.Context, attempts ...Attempt) Outcome {
	out := Outcome{Quotes: []market.Quote{}, Errors: map[string]error{}}
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			out.Errors[a.Stage] = err
			continue
		}
		quotes, err := a.Run(ctx)
		if err == nil && len(quotes) == 0 {
			err = ErrEmpty
		}
		if err != nil {
			out.Errors[a.Stage] = err
			continue
		}
		out.Quotes = quotes
		out.Stage = a.Stage
		return out
	}
	return out
}
