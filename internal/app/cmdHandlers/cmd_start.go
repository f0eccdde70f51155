package cmdHandlers

import (
	"context"

	"github.com/ilinovom/photo-stats-bot/internal/config"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
)

// handleStartCommand processes the /start command. The first call in a chat
// announces tracking; later calls say it is already running.
func (c *CmdHandler) handleStartCommand(ctx context.Context, m *telegram.Message) {
	first := c.onboarding.Greet(m.Chat.ID)
	c.logger.Info(ctx, "called /start", logger.ChatID(m.Chat.ID), logger.Bool("first", first))

	key := config.MsgStartAgain
	if first {
		key = config.MsgStartFirst
	}
	c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(key), "")
}
