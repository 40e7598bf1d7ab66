package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter направляет вывод go-telegram-bot-api в slog. Сообщения об
// ошибках опроса уходят в warn, отладочные трассы запросов в debug.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// Println реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...any) {
	a.log(fmt.Sprintln(v...))
}

// Printf реализует tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...any) {
	a.log(fmt.Sprintf(format, v...))
}

func (a *TGBotAPIAdapter) log(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	level := slog.LevelDebug
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		level = slog.LevelWarn
	}
	a.Logger.Log(context.Background(), level, msg, "source", "tgbotapi")
}
