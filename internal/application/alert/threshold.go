package alert

import (
	"context"
	"errors"
	"math"

	"losers-alert/internal/application/state"
	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/rs/zerolog/log"
)

// ThresholdKey 為門檻在存儲中的鍵。
const ThresholdKey = "alert_drop_percent"

// ErrInvalidThreshold 表示輸入不是數值（NaN）。
var ErrInvalidThreshold = errors.New("threshold must be a number")

// ThresholdStore 持久化跌幅門檻（正數百分比，命中條件為 change <= -threshold）。
type ThresholdStore struct {
	store   state.Store
	metrics *metrics.Registry
}

func NewThresholdStore(store state.Store, reg *metrics.Registry) *ThresholdStore {
	return &ThresholdStore{store: store, metrics: reg}
}

// Get 回傳目前門檻；未設定或讀取失敗時回傳預設值 35。
func (t *ThresholdStore) Get(ctx context.Context) float64 {
	v, err := state.GetFloat(ctx, t.store, ThresholdKey)
	if errors.Is(err, state.ErrNotFound) {
		return alertDomain.DefaultThreshold
	}
	if err != nil || math.IsNaN(v) {
		t.metrics.ObserveStoreError("threshold_get")
		log.Warn().Err(err).Msg("read threshold failed; using default")
		return alertDomain.DefaultThreshold
	}
	return alertDomain.ClampThreshold(v)
}

// Set 將門檻限制在 [0, 95] 後寫入（±Inf 亦然），回傳實際儲存的值。
func (t *ThresholdStore) Set(ctx context.Context, v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, ErrInvalidThreshold
	}
	v = alertDomain.ClampThreshold(v)
	if err := state.SetFloat(ctx, t.store, ThresholdKey, v); err != nil {
		t.metrics.ObserveStoreError("threshold_set")
		return 0, err
	}
	return v, nil
}
