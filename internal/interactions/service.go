// Package interactions implements every mutation of the social graph:
// accounts, posts, comments, likes and follow edges. It owns the consistency
// guards (existence, ownership, no self-follow) and runs notification fan-out
// in the same transaction as the mutation that triggers it.
package interactions

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/feed"
	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/notify"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
)

// Interaction kinds used as metric labels.
const (
	kindPost    = "post"
	kindComment = "comment"
	kindLike    = "like"
	kindFollow  = "follow"
)

// Service is stateless; every call reads and writes through the store.
type Service struct {
	store   *repositories.Store
	fanout  *notify.FanOut
	views   *feed.Assembler
	limits  config.FeedConfig
	timeout time.Duration
	now     func() time.Time
}

// NewService wires a Service.
func NewService(store *repositories.Store, fanout *notify.FanOut, views *feed.Assembler, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		fanout:  fanout,
		views:   views,
		limits:  cfg.Feed,
		timeout: cfg.Database.StoreTimeout,
		now:     repositories.Now,
	}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) limit(n int) int {
	switch {
	case n <= 0:
		return s.limits.DefaultLimit
	case n > s.limits.MaxLimit:
		return s.limits.MaxLimit
	default:
		return n
	}
}

// recordTransition updates the interaction and fan-out counters once a
// transaction has committed.
func recordTransition(kind, outcome string, n *models.Notification) {
	metrics.RecordInteraction(kind, outcome)
	if n != nil {
		metrics.RecordFanOut(string(n.Kind))
	}
}

func outcome(changed bool, onChange string) string {
	if changed {
		return onChange
	}
	return metrics.OutcomeNoop
}
