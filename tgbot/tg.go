package tgbot

import (
	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TgSender sends replies through the Telegram Bot API with HTML parse mode.
// Interpolated user text must already be escaped by the caller.
type TgSender struct {
	bot    *tg.BotAPI
	logger *zap.SugaredLogger
}

func NewTgSender(token string, l *zap.SugaredLogger) (*TgSender, error) {
	b, err := tg.NewBotAPI(token)
	if err != nil {
		l.Errorw("failed to initialize Telegram Bot", "err", err)
		return nil, err
	}

	b.Debug = false

	l.Infof("authorized on account %q (%q, %d)", b.Self.FirstName, b.Self.UserName, b.Self.ID)

	return &TgSender{bot: b, logger: l}, nil
}

func (s *TgSender) Send(chatID int64, text string) error {
	m := tg.NewMessage(chatID, text)
	m.ParseMode = tg.ModeHTML
	m.DisableWebPagePreview = true

	if _, err := s.bot.Request(m); err != nil {
		s.logger.Errorw("failed sending message", "err", err)
		return errors.Wrap(err, "failed sending message")
	}
	return nil
}
