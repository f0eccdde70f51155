package cmdHandlers

import (
	"context"
)

// MemberNames resolves display names through getChatMember and renders them
// as Markdown mentions.
type MemberNames struct {
	tgClient TelegramClient
}

func NewMemberNames(tgClient TelegramClient) *MemberNames {
	return &MemberNames{tgClient: tgClient}
}

func (n *MemberNames) ResolveName(ctx context.Context, chatID, userID int64) (string, error) {
	member, err := n.tgClient.GetChatMember(ctx, chatID, userID)
	if err != nil {
		return "", err
	}
	return member.User.MentionMarkdown(), nil
}
