package cmdHandlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ilinovom/photo-stats-bot/internal/config"
	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
)

// handleTopCommand starts the leaderboard dialog by asking for the period.
// A pending dialog of the chat is replaced.
func (c *CmdHandler) handleTopCommand(ctx context.Context, m *telegram.Message) {
	c.logger.Info(ctx, "called /top", logger.ChatID(m.Chat.ID))
	cs := c.convs.Begin(m.Chat.ID, ConversationState{Cmd: TopCmd, Stage: StageAwaitingPeriod, StartedAt: c.now()})
	msgID, err := c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(config.MsgPeriodPrompt), "")
	if err != nil {
		// nobody saw the prompt
		c.convs.Finish(m.Chat.ID, cs)
		return
	}
	c.convs.SetPromptMsgID(m.Chat.ID, cs, msgID)
}

// handleCancelCommand drops the pending dialog. Outside a dialog it does nothing.
func (c *CmdHandler) handleCancelCommand(ctx context.Context, m *telegram.Message) {
	if !c.convs.End(m.Chat.ID) {
		return
	}
	c.logger.Info(ctx, "dialog cancelled", logger.ChatID(m.Chat.ID))
	c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(config.MsgCancelled), "")
}

// continueConversation processes messages that are part of a dialog.
func (c *CmdHandler) continueConversation(ctx context.Context, m *telegram.Message, cs ConversationState) {
	switch cs.Stage {
	case StageAwaitingPeriod:
		c.handleStageAwaitingPeriod(ctx, m, cs)
	}
}

// handleStageAwaitingPeriod validates the period. Invalid input keeps the
// dialog open; a valid period ends it before the answer is sent, whatever the
// outcome of the query.
func (c *CmdHandler) handleStageAwaitingPeriod(ctx context.Context, m *telegram.Message, cs ConversationState) {
	days, err := strconv.Atoi(strings.TrimSpace(m.Text))
	if err != nil {
		c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(config.MsgPeriodNotNumber), "")
		return
	}
	if days <= 0 {
		c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(config.MsgPeriodNotPositive), "")
		return
	}
	if !c.convs.Finish(m.Chat.ID, cs) {
		return
	}
	c.logger.Info(ctx, "period received", logger.ChatID(m.Chat.ID), logger.Int("period_days", days),
		logger.Int("prompt_msg_id", cs.PromptMsgID), logger.Duration("waited", c.now().Sub(cs.StartedAt)))

	lb, err := c.leaderboard.Build(ctx, m.Chat.ID, days)
	switch {
	case err != nil:
		c.logger.Error(ctx, "build leaderboard", logger.ChatID(m.Chat.ID), logger.Int("period_days", days), logger.Error(err))
		c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(config.MsgInternalError), "")
	case lb.Empty():
		c.sendMessage(ctx, m.Chat.ID, fmt.Sprintf(c.cfg.Message(config.MsgEmptyPeriod), days), "")
	default:
		if _, err := c.sendMessage(ctx, m.Chat.ID, c.renderLeaderboard(lb), telegram.ParseModeMarkdown); err != nil {
			// the dialog is over, the user still has to hear back
			c.sendMessage(ctx, m.Chat.ID, c.cfg.Message(config.MsgInternalError), "")
		}
	}
}

// renderLeaderboard formats the ranked list. Display names are already Markdown.
func (c *CmdHandler) renderLeaderboard(lb *model.Leaderboard) string {
	lines := make([]string, 0, len(lb.Entries)+1)
	lines = append(lines, fmt.Sprintf(c.cfg.Message(config.MsgLeaderboardHeader), lb.PeriodDays))
	for _, e := range lb.Entries {
		lines = append(lines, fmt.Sprintf(c.cfg.Message(config.MsgLeaderboardLine), e.Rank, e.DisplayName, e.Count))
	}
	return strings.Join(lines, "\n")
}
