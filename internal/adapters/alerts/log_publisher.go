package alerts

import (
	"context"
	"log/slog"

	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
)

// LogPublisher writes alerts to the structured log. It is used when no
// broker is configured, and as the fallback when the broker write fails.
type LogPublisher struct {
	logger *slog.Logger
}

var _ gateways.AlertPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, alert gateways.Alert) error {
	attrs := []any{slog.String("alert_kind", alert.Kind), slog.Time("raised_at", alert.RaisedAt)}
	for k, v := range alert.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	p.logger.ErrorContext(ctx, "ALERT: "+alert.Message, attrs...)
	return nil
}

// FallbackPublisher tries primary and logs the alert if that fails.
type FallbackPublisher struct {
	primary  gateways.AlertPublisher
	fallback *LogPublisher
}

var _ gateways.AlertPublisher = (*FallbackPublisher)(nil)

func NewFallbackPublisher(primary gateways.AlertPublisher, fallback *LogPublisher) *FallbackPublisher {
	return &FallbackPublisher{primary: primary, fallback: fallback}
}

func (p *FallbackPublisher) Publish(ctx context.Context, alert gateways.Alert) error {
	if err := p.primary.Publish(ctx, alert); err != nil {
		p.fallback.logger.WarnContext(ctx, "Alert broker unavailable, logging alert instead", slog.String("error", err.Error()))
		return p.fallback.Publish(ctx, alert)
	}
	return nil
}
