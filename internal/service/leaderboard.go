package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/internal/repository"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/metrics"
)

const (
	secondsPerDay        = 24 * 60 * 60
	defaultTopLimit      = 5
	defaultLookupTimeout = 3 * time.Second
	defaultFallbackLabel = "Пользователь %d"
)

// NameResolver maps a chat member to a display name.
type NameResolver interface {
	ResolveName(ctx context.Context, chatID, userID int64) (string, error)
}

// LeaderboardService builds ranked photo counts for a chat.
type LeaderboardService struct {
	repo          repository.PhotoRepository
	names         NameResolver
	limit         int
	lookupTimeout time.Duration
	fallbackLabel string
	now           func() time.Time
	logger        logger.Logger
}

// LeaderboardOption configures a LeaderboardService.
type LeaderboardOption func(*LeaderboardService)

// WithLimit sets how many users the leaderboard shows.
func WithLimit(n int) LeaderboardOption {
	return func(s *LeaderboardService) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLookupTimeout bounds each display name lookup.
func WithLookupTimeout(d time.Duration) LeaderboardOption {
	return func(s *LeaderboardService) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithFallbackLabel sets the format (one %d verb for the user id) used when a
// name cannot be resolved.
func WithFallbackLabel(format string) LeaderboardOption {
	return func(s *LeaderboardService) {
		if format != "" {
			s.fallbackLabel = format
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LeaderboardOption {
	return func(s *LeaderboardService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLeaderboardLogger sets the logger.
func WithLeaderboardLogger(l logger.Logger) LeaderboardOption {
	return func(s *LeaderboardService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewLeaderboardService(repo repository.PhotoRepository, names NameResolver, opts ...LeaderboardOption) *LeaderboardService {
	s := &LeaderboardService{
		repo:          repo,
		names:         names,
		limit:         defaultTopLimit,
		lookupTimeout: defaultLookupTimeout,
		fallbackLabel: defaultFallbackLabel,
		now:           time.Now,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build returns the top users of the chat over the last periodDays days.
// A period without photos yields a leaderboard with no entries, not an error.
func (s *LeaderboardService) Build(ctx context.Context, chatID int64, periodDays int) (*model.Leaderboard, error) {
	if periodDays <= 0 {
		metrics.RecordLeaderboard(metrics.OutcomeRejected)
		return nil, ErrInvalidPeriod
	}
	since := sinceFor(s.now().Unix(), periodDays)
	counts, err := s.repo.TopUsers(ctx, chatID, since, s.limit)
	if err != nil {
		metrics.RecordLeaderboard(metrics.OutcomeError)
		return nil, fmt.Errorf("top users for chat %d: %w", chatID, err)
	}

	lb := &model.Leaderboard{ChatID: chatID, PeriodDays: periodDays}
	if len(counts) == 0 {
		metrics.RecordLeaderboard(metrics.OutcomeEmpty)
		return lb, nil
	}

	lb.Entries = make([]model.LeaderboardEntry, len(counts))
	var wg sync.WaitGroup
	for i, uc := range counts {
		lb.Entries[i] = model.LeaderboardEntry{Rank: i + 1, UserID: uc.UserID, Count: uc.Count}
		wg.Add(1)
		go func(e *model.LeaderboardEntry) {
			defer wg.Done()
			e.DisplayName, e.Resolved = s.displayName(ctx, chatID, e.UserID)
		}(&lb.Entries[i])
	}
	wg.Wait()
	metrics.RecordLeaderboard(metrics.OutcomeOK)
	return lb, nil
}

// displayName resolves a user's name under the lookup timeout and falls back
// to the default label on any failure.
func (s *LeaderboardService) displayName(ctx context.Context, chatID, userID int64) (string, bool) {
	if s.names != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
		name, err := s.names.ResolveName(lookupCtx, chatID, userID)
		if err == nil && name != "" {
			return name, true
		}
		metrics.RecordNameLookupFailure()
		s.logger.Warn(ctx, "resolve display name", logger.ChatID(chatID), logger.UserID(userID), logger.Error(err))
	}
	return fmt.Sprintf(s.fallbackLabel, userID), false
}

// sinceFor returns the unix time periodDays days before now, saturating for
// periods that reach past the representable range.
func sinceFor(now int64, periodDays int) int64 {
	days := int64(periodDays)
	if days >= math.MaxInt64/secondsPerDay {
		return math.MinInt64
	}
	return now - days*secondsPerDay
}
