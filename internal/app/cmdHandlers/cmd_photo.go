package cmdHandlers

import (
	"context"
	"time"

	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
)

// handlePhoto records a photo sent by a human member. Failures are only logged.
func (c *CmdHandler) handlePhoto(ctx context.Context, m *telegram.Message) {
	if m.From == nil || m.From.IsBot {
		return
	}
	at := c.now()
	if m.Date > 0 {
		at = time.Unix(m.Date, 0)
	}
	if err := c.photos.Record(ctx, m.Chat.ID, m.From.ID, at); err != nil {
		c.logger.Error(ctx, "record photo", logger.ChatID(m.Chat.ID), logger.UserID(m.From.ID), logger.Error(err))
		return
	}
	c.logger.Info(ctx, "photo recorded", logger.ChatID(m.Chat.ID), logger.UserID(m.From.ID), logger.String("user", m.From.FullName()))
}
