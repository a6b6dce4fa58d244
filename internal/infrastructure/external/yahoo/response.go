package yahoo

import (
	"bytes"
	"encoding/json"

	"losers-alert/internal/domain/market"
)

// screenerResponse 為 predefined/saved 與 screener 兩個端點共用的最小結構。
type screenerResponse struct {
	Finance *struct {
		Result []struct {
			Quotes []rawQuote `json:"quotes"`
		} `json:"result"`
	} `json:"finance"`
}

type rawQuote struct {
	Symbol                     *string    `json:"symbol"`
	RegularMarketChangePercent *flexFloat `json:"regularMarketChangePercent"`
	PercentChange              *flexFloat `json:"percent_change"`
}

// flexFloat 接受純數字或 formatted 模式下的 {"raw": n, "fmt": "..."}。
// formatted 模式缺值時送 {}，此時 valid 為 false，只略過該列。
type flexFloat struct {
	value float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			Raw *float64 `json:"raw"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		if wrapped.Raw == nil {
			*f = flexFloat{}
			return nil
		}
		*f = flexFloat{value: *wrapped.Raw, valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat{value: v, valid: true}
	return nil
}

func (f *flexFloat) get() (float64, bool) {
	if f == nil || !f.valid {
		return 0, false
	}
	return f.value, true
}

// parseQuotes 只讀第一個 result 的 quotes，缺代號或缺漲跌幅的列直接略過。
func parseQuotes(body []byte) ([]market.Quote, error) {
	var resp screenerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	out := []market.Quote{}
	if resp.Finance == nil || len(resp.Finance.Result) == 0 {
		return out, nil
	}
	for _, q := range resp.Finance.Result[0].Quotes {
		if q.Symbol == nil || market.NormalizeSymbol(*q.Symbol) == "" {
			continue
		}
		pct, ok := q.RegularMarketChangePercent.get()
		if !ok {
			pct, ok = q.PercentChange.get()
		}
		if !ok {
			continue
		}
		out = append(out, market.Quote{
			Symbol:        market.NormalizeSymbol(*q.Symbol),
			PercentChange: pct,
		})
	}
	return out, nil
}
