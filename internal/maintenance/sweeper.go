package maintenance

import (
	"context"
	"log/slog"
	"time"

	"concierge/internal/memory"
	"concierge/internal/store"

	"gorm.io/gorm"
)

const (
	defaultInterval          = 6 * time.Hour
	recentWindow             = 7 * 24 * time.Hour
	conversationsPerCustomer = 5
)

type extractor interface {
	Extract(ctx context.Context, customerID, conversationID uint64) (int, error)
}

// Sweeper periodically deactivates stale memories and re-runs extraction
// over customers active in the recent window. Runs are idempotent and
// overlapping runs are not prevented.
type Sweeper struct {
	DB        *gorm.DB
	Memories  *memory.Store
	Extractor extractor
	Interval  time.Duration
	Logger    *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one maintenance pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	cleaned, err := s.Memories.DeactivateStale(ctx)
	if err != nil {
		s.Logger.Error("memory cleanup failed", slog.Any("error", err))
	} else if cleaned > 0 {
		s.Logger.Info("deactivated stale memories", slog.Int64("count", cleaned))
	}

	cutoff := time.Now().Add(-recentWindow)

	var customerIDs []uint64
	if err := s.DB.WithContext(ctx).Model(&store.Conversation{}).
		Where("started_at > ?", cutoff).
		Distinct("customer_id").
		Pluck("customer_id", &customerIDs).Error; err != nil {
		s.Logger.Error("failed to list recently active customers", slog.Any("error", err))
		return
	}

	for _, customerID := range customerIDs {
		var convIDs []uint64
		err := s.DB.WithContext(ctx).Model(&store.Conversation{}).
			Where("customer_id = ? AND started_at > ?", customerID, cutoff).
			Order("started_at desc").
			Limit(conversationsPerCustomer).
			Pluck("id", &convIDs).Error
		if err != nil {
			s.Logger.Error("failed to list conversations",
				slog.Uint64("customer_id", customerID), slog.Any("error", err))
			continue
		}

		for _, convID := range convIDs {
			if _, err := s.Extractor.Extract(ctx, customerID, convID); err != nil {
				s.Logger.Error("re-extraction failed",
					slog.Uint64("conversation_id", convID), slog.Any("error", err))
			}
		}
	}
}
