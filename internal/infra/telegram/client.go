// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"birthday_notification_bot/internal/domain/failure"
	"birthday_notification_bot/internal/domain/member"
	"birthday_notification_bot/internal/domain/notification"

	"gopkg.in/telebot.v3"
)

// MessageSender is the subset of *telebot.Bot used for delivery.
type MessageSender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Deliverer implements notification.Deliverer using the gopkg.in/telebot.v3 library.
// A member's Contact is their Telegram chat ID.
type Deliverer struct {
	bot MessageSender
}

func NewDeliverer(b MessageSender) *Deliverer {
	return &Deliverer{bot: b}
}

// NewBot connects to the Bot API. Only sending is used, so no poller is started.
func NewBot(token string) (*telebot.Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return bot, nil
}

// Deliver sends the birthday greeting to the member's chat.
// A contact that is not a chat ID, a missing chat and a bot blocked by the
// user are permanent; everything else is worth retrying.
func (d *Deliverer) Deliver(ctx context.Context, m member.Member) error {
	const op = "telegram deliver"

	chatID, err := strconv.ParseInt(strings.TrimSpace(m.Contact), 10, 64)
	if err != nil {
		return failure.Permanent(op, fmt.Errorf("contact %q is not a Telegram chat ID: %w", m.Contact, err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = d.bot.Send(telebot.ChatID(chatID), notification.GreetingText(m))
	if err != nil {
		if errors.Is(err, telebot.ErrBlockedByUser) || errors.Is(err, telebot.ErrChatNotFound) {
			return failure.Permanent(op, err)
		}
		return failure.Transient(op, err)
	}
	return nil
}
