package watchlist

import (
	"context"
	"sort"
	"time"

	"losers-alert/internal/application/alert"
	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/domain/market"
)

// Row 為畫面上的一列。
type Row struct {
	Symbol        string  `json:"symbol"`
	PercentChange float64 `json:"percent_change"`
	Pinned        bool    `json:"pinned"`
	URL           string  `json:"url"`
}

// View 為某日的畫面狀態。
type View struct {
	Date        string    `json:"date"`
	Threshold   float64   `json:"threshold"`
	Online      bool      `json:"online"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Rows        []Row     `json:"rows"`
	Pinned      []string  `json:"pinned"`
	Dismissed   []string  `json:"dismissed"`
}

// Watchlist 組合快照、門檻與 UI 狀態產生畫面。
type Watchlist struct {
	refresher  *Refresher
	thresholds *alert.ThresholdStore
	ui         *UIStateStore
}

func NewWatchlist(refresher *Refresher, thresholds *alert.ThresholdStore, ui *UIStateStore) *Watchlist {
	return &Watchlist{refresher: refresher, thresholds: thresholds, ui: ui}
}

// Refresher 回傳底層刷新器。
func (w *Watchlist) Refresher() *Refresher {
	return w.refresher
}

// View 以目前門檻篩選快照，排除當日隱藏的代號；釘選在前，其餘依跌幅由大到小。
func (w *Watchlist) View(ctx context.Context, date time.Time) View {
	snap := w.refresher.Snapshot()
	threshold := w.thresholds.Get(ctx)
	pinned := w.ui.Pinned(ctx)
	dismissed := w.ui.DismissedOn(ctx, date)

	pinnedSet := toSet(pinned)
	dismissedSet := toSet(dismissed)

	rows := make([]Row, 0)
	for _, q := range alert.Candidates(snap.Quotes, threshold) {
		if _, hidden := dismissedSet[q.Symbol]; hidden {
			continue
		}
		_, isPinned := pinnedSet[q.Symbol]
		rows = append(rows, Row{
			Symbol:        q.Symbol,
			PercentChange: q.PercentChange,
			Pinned:        isPinned,
			URL:           market.QuoteURL(q.Symbol),
		})
	}
	sortRows(rows)

	return View{
		Date:        alertDomain.DateKey(date),
		Threshold:   threshold,
		Online:      snap.Online,
		RefreshedAt: snap.RefreshedAt,
		Rows:        rows,
		Pinned:      pinned,
		Dismissed:   dismissed,
	}
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Pinned != rows[j].Pinned {
			return rows[i].Pinned
		}
		if rows[i].PercentChange != rows[j].PercentChange {
			return rows[i].PercentChange < rows[j].PercentChange
		}
		return rows[i].Symbol < rows[j].Symbol
	})
}

func toSet(members []string) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}
