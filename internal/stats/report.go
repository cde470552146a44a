package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/mindful/internal/model"
)

// LogSource lists stored meditation logs.
type LogSource interface {
	ListLogs(ctx context.Context) ([]model.MeditationLog, error)
}

// BuildReport loads every log and aggregates it for cfg.
func BuildReport(ctx context.Context, src LogSource, cfg model.StatsConfig) (Result, error) {
	logs, err := src.ListLogs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list logs: %w", err)
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	period := cfg.Period
	if period == "" {
		period = PeriodAll
	}
	return Aggregate(RecordsFromLogs(logs), period, cfg.Locale, now)
}
