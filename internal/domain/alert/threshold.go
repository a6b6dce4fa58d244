package alert

import "time"

const (
	// DefaultThreshold 未設定門檻時使用的跌幅百分比。
	DefaultThreshold = 35.0
	MinThreshold     = 0.0
	MaxThreshold     = 95.0

	// 設定畫面允許輸入的範圍，寫入前再套用 store 的範圍。
	MinInput = 1.0
	MaxInput = 99.0
)

// ClampThreshold 將門檻限制在 [0, 95]。
func ClampThreshold(v float64) float64 {
	return clamp(v, MinThreshold, MaxThreshold)
}

// ClampInput 將使用者輸入限制在 [1, 99]。
func ClampInput(v float64) float64 {
	return clamp(v, MinInput, MaxInput)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DateKey 以 ISO 日期字串（YYYY-MM-DD）表示一個日曆日。
func DateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// Today 回傳 now 在 loc 時區的日曆日（當地零點）。
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
