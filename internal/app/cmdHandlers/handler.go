package cmdHandlers

import (
	"context"
	"strings"
	"time"

	"github.com/ilinovom/photo-stats-bot/internal/config"
	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/internal/service"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/metrics"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
)

const (
	StartCmd  = "/start"
	TopCmd    = "/top"
	CancelCmd = "/cancel"
)

const defaultSendTimeout = 10 * time.Second

// TelegramClient is the part of the Bot API used by the handlers.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, parseMode string) (int, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error)
	SetCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// LeaderboardBuilder builds the ranked list for a chat.
type LeaderboardBuilder interface {
	Build(ctx context.Context, chatID int64, periodDays int) (*model.Leaderboard, error)
}

type CmdHandler struct {
	cfg         *config.Config
	tgClient    TelegramClient
	photos      *service.PhotoService
	leaderboard LeaderboardBuilder
	onboarding  *service.OnboardingService
	convs       *Conversations
	logger      logger.Logger
	now         func() time.Time
	sendTimeout time.Duration
}

func NewCmdHandler(cfg *config.Config, tgClient TelegramClient, photos *service.PhotoService, leaderboard LeaderboardBuilder, onboarding *service.OnboardingService, log logger.Logger) *CmdHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CmdHandler{
		cfg:         cfg,
		tgClient:    tgClient,
		photos:      photos,
		leaderboard: leaderboard,
		onboarding:  onboarding,
		convs:       NewConversations(),
		logger:      log,
		now:         time.Now,
		sendTimeout: defaultSendTimeout,
	}
}

// HandleMessage routes one incoming message. Messages of a single chat must
// be delivered in order; different chats may be handled concurrently.
func (c *CmdHandler) HandleMessage(ctx context.Context, m *telegram.Message) {
	if m.HasPhoto() {
		metrics.RecordUpdate("photo")
		c.handlePhoto(ctx, m)
		return
	}

	switch cmd := m.Command(); cmd {
	case StartCmd:
		metrics.RecordUpdate("command")
		c.handleStartCommand(ctx, m)
	case TopCmd:
		metrics.RecordUpdate("command")
		c.handleTopCommand(ctx, m)
	case CancelCmd:
		metrics.RecordUpdate("command")
		c.handleCancelCommand(ctx, m)
	case "":
		metrics.RecordUpdate("text")
		if cs, ok := c.convs.Get(m.Chat.ID); ok {
			c.continueConversation(ctx, m, cs)
		}
	default:
		metrics.RecordUpdate("other")
		c.logger.Debug(ctx, "ignoring command", logger.ChatID(m.Chat.ID), logger.String("command", cmd))
	}
}

// sendMessage is a small wrapper around the Telegram client that logs failures
// but still returns the message ID to the caller. Each send is bounded by
// sendTimeout.
func (c *CmdHandler) sendMessage(ctx context.Context, chatID int64, text string, parseMode string) (int, error) {
	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()
	msgID, err := c.tgClient.SendMessage(sendCtx, chatID, text, parseMode)
	if err != nil {
		c.logger.Error(ctx, "telegram send message", logger.ChatID(chatID), logger.String("text", text), logger.Error(err))
	}
	return msgID, err
}

// SetCommands registers the list of bot commands with Telegram so that users
// see available commands in the UI.
func (c *CmdHandler) SetCommands(ctx context.Context) {
	cmds := []telegram.BotCommand{
		{Command: strings.TrimPrefix(StartCmd, "/"), Description: "Начать отслеживание фото в группе"},
		{Command: strings.TrimPrefix(TopCmd, "/"), Description: "Показать топ участников за период"},
		{Command: strings.TrimPrefix(CancelCmd, "/"), Description: "Отменить текущую операцию"},
	}
	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()
	if err := c.tgClient.SetCommands(ctx, cmds); err != nil {
		c.logger.Error(ctx, "set commands", logger.Error(err))
	}
}

// PendingDialogs returns the number of chats waiting for a period answer.
func (c *CmdHandler) PendingDialogs() int {
	return c.convs.Len()
}
