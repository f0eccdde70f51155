package cmdHandlers

import (
	"sync"
	"time"

	"github.com/ilinovom/photo-stats-bot/pkg/metrics"
)

type convStage int

// A chat without a pending dialog is idle, so the zero stage is never stored.
const (
	// TopCmd
	StageAwaitingPeriod convStage = iota + 1
)

// ConversationState is the pending dialog of a chat.
type ConversationState struct {
	Cmd         string
	Stage       convStage
	PromptMsgID int
	StartedAt   time.Time

	gen uint64
}

// Conversations holds at most one pending dialog per chat. A chat without an
// entry is idle. Sessions live in memory only, so a restart drops them.
type Conversations struct {
	mu     sync.Mutex
	byChat map[int64]*ConversationState
	gen    uint64
}

func NewConversations() *Conversations {
	return &Conversations{byChat: map[int64]*ConversationState{}}
}

// Begin starts a dialog for the chat, replacing any pending one.
func (c *Conversations) Begin(chatID int64, cs ConversationState) ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	cs.gen = c.gen
	c.byChat[chatID] = &cs
	metrics.SetDialogSessions(len(c.byChat))
	return cs
}

// Get returns a copy of the chat's pending dialog.
func (c *Conversations) Get(chatID int64) (ConversationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.byChat[chatID]
	if !ok {
		return ConversationState{}, false
	}
	return *cs, true
}

// SetPromptMsgID records the prompt message of the dialog if it is still current.
func (c *Conversations) SetPromptMsgID(chatID int64, cs ConversationState, msgID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.byChat[chatID]; ok && cur.gen == cs.gen {
		cur.PromptMsgID = msgID
	}
}

// Finish ends the dialog only if it is the same one the caller read with Get.
// It returns false when the dialog was already ended or replaced.
func (c *Conversations) Finish(chatID int64, cs ConversationState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.byChat[chatID]
	if !ok || cur.gen != cs.gen {
		return false
	}
	delete(c.byChat, chatID)
	metrics.SetDialogSessions(len(c.byChat))
	return true
}

// End drops whatever dialog the chat has and reports whether there was one.
func (c *Conversations) End(chatID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byChat[chatID]; !ok {
		return false
	}
	delete(c.byChat, chatID)
	metrics.SetDialogSessions(len(c.byChat))
	return true
}

// Len returns the number of pending dialogs.
func (c *Conversations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byChat)
}
