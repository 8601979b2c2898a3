package notifier

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram is a Channel backed by the Telegram Bot API. One API client is
// kept per bot token.
type Telegram struct {
	clients map[string]telegramAPI
	newAPI  func(token string) (telegramAPI, error)
}

// NewTelegram creates a Telegram channel.
func NewTelegram() *Telegram {
	return &Telegram{
		clients: make(map[string]telegramAPI),
		newAPI: func(token string) (telegramAPI, error) {
			api, err := tgbotapi.NewBotAPI(token)
			if err != nil {
				return nil, err
			}
			return api, nil
		},
	}
}

// Send delivers text to dst.ChatID. Numeric chat ids address users and
// groups, anything else is treated as a channel username ("@name").
func (t *Telegram) Send(ctx context.Context, dst Destination, text string, markdown bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	api, err := t.client(dst.Token)
	if err != nil {
		return err
	}

	msg := newMessage(dst.ChatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("send message to %s: %w", dst.ChatID, err)
	}
	return nil
}

func (t *Telegram) client(token string) (telegramAPI, error) {
	if api, ok := t.clients[token]; ok {
		return api, nil
	}
	api, err := t.newAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	t.clients[token] = api
	return api, nil
}

func newMessage(chatID, text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(chatID, text)
}
