package worker

import (
	"context"

	"github.com/sirupsen/logrus"
)

// MessageSender delivers a text message to a chat. *telegram.Bot satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// LogSender stands in for the bot when Telegram is disabled.
type LogSender struct{}

func (LogSender) SendMessage(ctx context.Context, chatID, text string) error {
	logrus.WithFields(logrus.Fields{
		"chat_id": chatID,
		"text":    text,
	}).Info("Telegram disabled, message logged")
	return nil
}

func formatMessage(title, body string) string {
	switch {
	case title == "":
		return body
	case body == "":
		return title
	}
	return title + "\n\n" + body
}
