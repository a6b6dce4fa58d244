package notify

import (
	"context"
	"errors"
	"fmt"

	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/rs/zerolog/log"
)

// Channel 為單一送達通道。
type Channel interface {
	Name() string
	Send(ctx context.Context, n alertDomain.Notification) error
}

// MultiNotifier 將同一批通知送到所有通道；單一通道失敗不影響其他通道。
type MultiNotifier struct {
	channels []Channel
	metrics  *metrics.Registry
}

func NewMultiNotifier(reg *metrics.Registry, channels ...Channel) *MultiNotifier {
	return &MultiNotifier{channels: channels, metrics: reg}
}

// Channels 回傳已設定的通道名稱。
func (m *MultiNotifier) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

func (m *MultiNotifier) Send(ctx context.Context, n alertDomain.Notification) error {
	if len(n.Hits) == 0 {
		return nil
	}
	var errs []error
	for _, ch := range m.channels {
		err := ch.Send(ctx, n)
		m.metrics.ObserveDelivery(ch.Name(), err)
		if err != nil {
			log.Warn().Str("channel", ch.Name()).Err(err).Msg("notification delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}
