package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Settings are the policy knobs of the settlement services.
type Settings struct {
	HostFeeRate          decimal.Decimal // Platform cut of the booking gross
	DepositFeeRate       decimal.Decimal // Platform cut of captured deposits
	ProcessorTimeout     time.Duration
	PayoutAllowConfirmed bool
	HoldStaleAfter       time.Duration
	DepositClaimWindow   time.Duration
	WorkerBatchSize      int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		HostFeeRate:        decimal.RequireFromString("0.15"),
		DepositFeeRate:     decimal.Zero,
		ProcessorTimeout:   10 * time.Second,
		HoldStaleAfter:     5 * time.Minute,
		DepositClaimWindow: 14 * 24 * time.Hour,
		WorkerBatchSize:    50,
	}
}

// processorContext bounds a single processor call.
func (s Settings) processorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.ProcessorTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.ProcessorTimeout)
}
