package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/internal/repository"
)

type memPhotoRepo struct {
	mu       sync.Mutex
	events   []model.PhotoEvent
	topCalls int
	err      error
}

var _ repository.PhotoRepository = (*memPhotoRepo)(nil)

func (m *memPhotoRepo) RecordPhoto(ctx context.Context, chatID, userID, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, model.PhotoEvent{ChatID: chatID, UserID: userID, Timestamp: timestamp})
	return nil
}

func (m *memPhotoRepo) TopUsers(ctx context.Context, chatID, since int64, limit int) ([]model.UserCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topCalls++
	if m.err != nil {
		return nil, m.err
	}
	counts := map[int64]int{}
	for _, e := range m.events {
		if e.ChatID == chatID && e.Timestamp >= since {
			counts[e.UserID]++
		}
	}
	out := []model.UserCount{}
	for uid, n := range counts {
		out = append(out, model.UserCount{UserID: uid, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPhotoRepo) Close() error { return nil }

type stubNames struct {
	fail  map[int64]bool
	block bool
}

func (s stubNames) ResolveName(ctx context.Context, chatID, userID int64) (string, error) {
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.fail[userID] {
		return "", errors.New("Bad Request: user not found")
	}
	return fmt.Sprintf("name-%d", userID), nil
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestLeaderboardService_PeriodWindow(t *testing.T) {
	repo := &memPhotoRepo{}
	ctx := context.Background()
	repo.RecordPhoto(ctx, 100, 1, fixedNow.Add(-24*time.Hour).Unix())
	repo.RecordPhoto(ctx, 100, 2, fixedNow.Add(-10*24*time.Hour).Unix())
	svc := NewLeaderboardService(repo, stubNames{}, WithClock(clock))

	lb, err := svc.Build(ctx, 100, 5)
	if err != nil {
		t.Fatalf("build 5 days: %v", err)
	}
	want := []model.LeaderboardEntry{{Rank: 1, UserID: 1, DisplayName: "name-1", Count: 1, Resolved: true}}
	if diff := cmp.Diff(want, lb.Entries); diff != "" {
		t.Fatalf("5 day leaderboard mismatch (-want +got):\n%s", diff)
	}

	lb, err = svc.Build(ctx, 100, 30)
	if err != nil {
		t.Fatalf("build 30 days: %v", err)
	}
	want = []model.LeaderboardEntry{
		{Rank: 1, UserID: 1, DisplayName: "name-1", Count: 1, Resolved: true},
		{Rank: 2, UserID: 2, DisplayName: "name-2", Count: 1, Resolved: true},
	}
	if diff := cmp.Diff(want, lb.Entries); diff != "" {
		t.Fatalf("30 day leaderboard mismatch (-want +got):\n%s", diff)
	}
}

func TestLeaderboardService_EmptyPeriod(t *testing.T) {
	repo := &memPhotoRepo{}
	svc := NewLeaderboardService(repo, stubNames{}, WithClock(clock))

	lb, err := svc.Build(context.Background(), 100, 7)
	if err != nil {
		t.Fatalf("expected no error for an empty period, got %v", err)
	}
	if !lb.Empty() || lb.PeriodDays != 7 {
		t.Fatalf("expected empty leaderboard for 7 days, got %+v", lb)
	}
}

func TestLeaderboardService_InvalidPeriodSkipsStore(t *testing.T) {
	repo := &memPhotoRepo{}
	svc := NewLeaderboardService(repo, stubNames{})

	for _, days := range []int{0, -1, -365} {
		if _, err := svc.Build(context.Background(), 100, days); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("days=%d: expected ErrInvalidPeriod, got %v", days, err)
		}
	}
	if repo.topCalls != 0 {
		t.Fatalf("store was queried %d times for invalid periods", repo.topCalls)
	}
}

func TestLeaderboardService_NameFallback(t *testing.T) {
	repo := &memPhotoRepo{}
	ctx := context.Background()
	for uid := int64(1); uid <= 5; uid++ {
		for i := int64(0); i < 6-uid; i++ {
			repo.RecordPhoto(ctx, 100, uid, fixedNow.Unix()-60)
		}
	}
	svc := NewLeaderboardService(repo, stubNames{fail: map[int64]bool{3: true}}, WithClock(clock))

	lb, err := svc.Build(ctx, 100, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(lb.Entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(lb.Entries))
	}
	for _, e := range lb.Entries {
		if e.UserID == 3 {
			if e.Resolved || e.DisplayName != "Пользователь 3" {
				t.Fatalf("expected fallback label for user 3, got %+v", e)
			}
			continue
		}
		if !e.Resolved || e.DisplayName != fmt.Sprintf("name-%d", e.UserID) {
			t.Fatalf("expected resolved name, got %+v", e)
		}
	}
}

func TestLeaderboardService_LookupTimeout(t *testing.T) {
	repo := &memPhotoRepo{}
	repo.RecordPhoto(context.Background(), 100, 1, fixedNow.Unix())
	svc := NewLeaderboardService(repo, stubNames{block: true},
		WithClock(clock),
		WithLookupTimeout(20*time.Millisecond),
		WithFallbackLabel("User %d"),
	)

	start := time.Now()
	lb, err := svc.Build(context.Background(), 100, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("lookup was not bounded")
	}
	if lb.Entries[0].DisplayName != "User 1" {
		t.Fatalf("expected fallback label, got %q", lb.Entries[0].DisplayName)
	}
}

func TestLeaderboardService_LimitAndStoreError(t *testing.T) {
	repo := &memPhotoRepo{}
	ctx := context.Background()
	for uid := int64(1); uid <= 8; uid++ {
		repo.RecordPhoto(ctx, 1, uid, fixedNow.Unix())
	}
	svc := NewLeaderboardService(repo, nil, WithClock(clock), WithLimit(3))
	lb, err := svc.Build(ctx, 1, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(lb.Entries) != 3 || lb.Entries[2].Rank != 3 {
		t.Fatalf("expected 3 ranked entries, got %+v", lb.Entries)
	}

	repo.err = &repository.StoreError{Op: "top_users", Err: errors.New("disk I/O error")}
	if _, err := svc.Build(ctx, 1, 1); !repository.IsStoreError(err) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func TestSinceFor(t *testing.T) {
	now := fixedNow.Unix()
	if got := sinceFor(now, 2); got != now-2*86400 {
		t.Fatalf("unexpected since: %d", got)
	}
	if got := sinceFor(now, int(^uint(0)>>1)); got >= 0 {
		t.Fatalf("huge period should saturate, got %d", got)
	}
}
