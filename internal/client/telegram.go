package client

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/puzpuzpuz/xsync"
)

type telegramClient struct {
	api *tgbotapi.BotAPI

	// Group titles never change in practice during a lottery's lifetime, so
	// they are fetched once and cached.
	titles *xsync.MapOf[string, string]
}

// NewTelegramClient wraps a Bot API handle. Call timeouts are bounded by the
// http.Client the handle was constructed with.
func NewTelegramClient(api *tgbotapi.BotAPI) *telegramClient {
	return &telegramClient{
		api:    api,
		titles: xsync.NewMapOf[string](),
	}
}

func (c *telegramClient) GetMemberStatus(
	ctx context.Context, chatID, userID int64,
) (MemberStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return "", err
	}

	return MemberStatus(member.Status), nil
}

func (c *telegramClient) GetChatTitle(ctx context.Context, chatID int64) (string, error) {
	key := strconv.FormatInt(chatID, 10)
	if title, ok := c.titles.Load(key); ok {
		return title, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", err
	}

	c.titles.Store(key, chat.Title)
	return chat.Title, nil
}

func (c *telegramClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
