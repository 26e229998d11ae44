package messaging

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the part of tgbotapi.BotAPI used for notices.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram forwards messages to the site owner's chat.
type Telegram struct {
	sender TelegramSender
	chatID int64
}

// NewTelegram creates a notifier posting to chatID.
func NewTelegram(sender TelegramSender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// Send formats msg as plain text and posts it.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if t.sender == nil || t.chatID == 0 {
		return fmt.Errorf("telegram: %w", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(t.chatID, FormatOwnerNotice(msg))
	out.DisableWebPagePreview = true
	if _, err := t.sender.Send(out); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatOwnerNotice renders msg for a human reader.
func FormatOwnerNotice(msg Message) string {
	var b strings.Builder
	switch msg.Kind {
	case KindBooking:
		b.WriteString("📅 New call request\n\n")
		fmt.Fprintf(&b, "👤 %s <%s>\n", msg.Get("name"), msg.Get("email"))
		fmt.Fprintf(&b, "🕒 %s\n", msg.Get("datetime"))
		fmt.Fprintf(&b, "📞 %s\n", msg.Get("callType"))
		fmt.Fprintf(&b, "\n%s", msg.Get("message"))
	case KindContact:
		b.WriteString("✉️ New contact message\n\n")
		fmt.Fprintf(&b, "👤 %s <%s>\n", msg.Get("name"), msg.Get("email"))
		fmt.Fprintf(&b, "📝 %s\n", msg.Get("subject"))
		fmt.Fprintf(&b, "\n%s", msg.Get("message"))
	default:
		fmt.Fprintf(&b, "%s\n\n", msg.Kind)
		for _, k := range msg.Keys() {
			fmt.Fprintf(&b, "%s: %s\n", k, msg.Params[k])
		}
	}
	return b.String()
}
