// Package telegram is the chat transport shim: it decodes inbound
// Telegram updates into engine calls and renders the engine's replies.
// No conversation logic lives here.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ratebot/internal/session"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	engine *session.Engine
	log    *slog.Logger
}

func New(token string, engine *session.Engine, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return &Bot{api: api, engine: engine, log: log}, nil
}

// Run long-polls for updates until ctx is done. Each update is handled on
// its own goroutine; per-user ordering is enforced inside the engine.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	b.log.Info("telegram bot running", "username", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil && update.Message.IsCommand():
		replies := b.engine.HandleCommand(ctx, update.Message.From.ID, update.Message.Command())
		b.render(update.Message.Chat.ID, 0, replies)
	case update.Message != nil && update.Message.From != nil:
		replies := b.engine.HandleText(ctx, update.Message.From.ID, update.Message.Text)
		b.render(update.Message.Chat.ID, 0, replies)
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		// Ack first so the client stops the button spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Warn("failed to ack callback", "err", err)
		}
		if cb.Message == nil {
			return
		}
		replies := b.engine.HandleCallback(ctx, cb.From.ID, cb.Data)
		b.render(cb.Message.Chat.ID, cb.Message.MessageID, replies)
	}
}

// render sends the engine's replies in order. editMsgID is the message
// that carried the triggering callback; replies marked Edit rewrite it.
func (b *Bot) render(chatID int64, editMsgID int, replies []session.Reply) {
	for _, reply := range replies {
		var msg tgbotapi.Chattable
		switch {
		case len(reply.Photo) > 0:
			msg = tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "chart.png", Bytes: reply.Photo})
		case len(reply.Document) > 0:
			msg = tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: reply.Filename, Bytes: reply.Document})
		case reply.Edit && editMsgID != 0:
			edit := tgbotapi.NewEditMessageText(chatID, editMsgID, reply.Text)
			edit.ReplyMarkup = markup(reply.Keyboard)
			msg = edit
		default:
			m := tgbotapi.NewMessage(chatID, reply.Text)
			if kb := markup(reply.Keyboard); kb != nil {
				m.ReplyMarkup = kb
			}
			msg = m
		}
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("failed to send reply", "chat", chatID, "err", err)
		}
	}
}

func markup(keyboard session.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, len(keyboard))
	for i, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			buttons[j] = tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Action)
		}
		rows[i] = buttons
	}
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}
