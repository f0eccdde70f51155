package cmdHandlers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ilinovom/photo-stats-bot/internal/config"
	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/internal/repository"
	"github.com/ilinovom/photo-stats-bot/internal/service"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
)

type sentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
}

type fakeTelegram struct {
	mu         sync.Mutex
	sent       []sentMessage
	members    map[int64]telegram.User
	commands   []telegram.BotCommand
	sendErr    error
	rejectMode string // fails sends using this parse mode
	hang       bool   // SendMessage waits for its context
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{members: map[int64]telegram.User{}}
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string, parseMode string) (int, error) {
	f.mu.Lock()
	hang := f.hang
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	if f.rejectMode != "" && parseMode == f.rejectMode {
		return 0, &telegram.APIError{Code: 400, Description: "Bad Request: can't parse entities"}
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, ParseMode: parseMode})
	return len(f.sent), nil
}

func (f *fakeTelegram) GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.members[userID]
	if !ok {
		return nil, &telegram.APIError{Code: 400, Description: "Bad Request: user not found"}
	}
	return &telegram.ChatMember{Status: "member", User: u}, nil
}

func (f *fakeTelegram) SetCommands(ctx context.Context, commands []telegram.BotCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = commands
	return nil
}

func (f *fakeTelegram) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTelegram) last() sentMessage {
	msgs := f.messages()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

type failingLeaderboard struct{ calls int }

func (f *failingLeaderboard) Build(ctx context.Context, chatID int64, periodDays int) (*model.Leaderboard, error) {
	f.calls++
	return nil, &repository.StoreError{Op: "top_users", Err: errors.New("disk I/O error")}
}

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	handler *CmdHandler
	tg      *fakeTelegram
	cfg     *config.Config
}

// newHarness wires the handler to a real SQLite store in a temp dir.
func newHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := repository.NewSQLitePhotoRepository(filepath.Join(t.TempDir(), "photos.db"))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := config.New()
	tg := newFakeTelegram()
	lb := service.NewLeaderboardService(repo, NewMemberNames(tg),
		service.WithClock(func() time.Time { return testNow }),
		service.WithFallbackLabel(cfg.Message(config.MsgUserFallback)),
	)
	h := NewCmdHandler(cfg, tg, service.NewPhotoService(repo), lb, service.NewOnboardingService(), logger.Nop())
	h.now = func() time.Time { return testNow }
	return &harness{handler: h, tg: tg, cfg: cfg}
}

func (h *harness) text(chatID int64, text string) {
	h.handler.HandleMessage(context.Background(), &telegram.Message{
		Chat: telegram.Chat{ID: chatID, Type: "group"},
		From: &telegram.User{ID: 1, FirstName: "Tester"},
		Text: text,
	})
}

func (h *harness) photo(chatID int64, from telegram.User, at time.Time) {
	h.handler.HandleMessage(context.Background(), &telegram.Message{
		Chat:  telegram.Chat{ID: chatID, Type: "group"},
		From:  &from,
		Date:  at.Unix(),
		Photo: []telegram.PhotoSize{{FileID: "f", FileUniqueID: "u", Width: 90, Height: 90}},
	})
}

func (h *harness) msg(key string) string {
	return h.cfg.Message(key)
}
