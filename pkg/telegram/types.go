package telegram

import (
	"strconv"
	"strings"
)

// Update represents a Telegram update. Only fields we need.
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int         `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	Date      int64       `json:"date"`
	Text      string      `json:"text"`
	Photo     []PhotoSize `json:"photo,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

// ChatMember is the result of getChatMember.
type ChatMember struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

// HasPhoto reports whether the message carries a photo.
func (m *Message) HasPhoto() bool {
	return len(m.Photo) > 0
}

// Command returns the bot command the message starts with, without the
// "@botname" suffix used in groups, or "" when the text is not a command.
func (m *Message) Command() string {
	if !strings.HasPrefix(m.Text, "/") {
		return ""
	}
	cmd := strings.Fields(m.Text)[0]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// MentionMarkdown renders an inline mention in legacy Markdown.
func (u User) MentionMarkdown() string {
	name := u.FullName()
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return "[" + markdownEscaper.Replace(name) + "](tg://user?id=" + strconv.FormatInt(u.ID, 10) + ")"
}
