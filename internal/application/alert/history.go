package alert

import "sync"

// historyLimit 為保留的最近執行筆數。
const historyLimit = 50

// History 保存最近的管線執行結果，最新的在前。
type History struct {
	mu   sync.Mutex
	runs []RunResult
}

func NewHistory() *History {
	return &History{}
}

// Record 加入一筆結果，超過上限時丟棄最舊的。
func (h *History) Record(r RunResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append([]RunResult{r}, h.runs...)
	if len(h.runs) > historyLimit {
		h.runs = h.runs[:historyLimit]
	}
}

// List 回傳結果複本。
func (h *History) List() []RunResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]RunResult, len(h.runs))
	copy(out, h.runs)
	return out
}
