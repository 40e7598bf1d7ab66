package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whatsapp-chat-analyzer/cmd/bot/config"
	"whatsapp-chat-analyzer/internal/bot"
	"whatsapp-chat-analyzer/internal/log"
)

func main() {
	configFile := os.Getenv("BOT_CONFIG_FILE")
	if configFile == "" {
		configFile = "bot_config.yml"
	}
	cfg, err := config.LoadBotConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load bot config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateFull(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate bot config: %v\n", err)
		os.Exit(1)
	}

	// Логгер с маскировкой токенов и номеров телефонов
	logger := log.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// Логи библиотеки Bot API содержат URL с токеном, поэтому тоже идут через маскировщик.
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger}); err != nil {
		slog.Warn("failed to set bot api logger", slog.String("error", err.Error()))
	}

	taskStore := bot.NewTaskStore()
	serverClient := bot.NewServerClient(cfg.Bot.BackendURL, cfg.Bot.HTTPTimeout)

	// Недоступный бэкенд не мешает старту: файлы начнут приниматься, когда он поднимется.
	healthCtx, cancelHealth := context.WithTimeout(context.Background(), cfg.Bot.HTTPTimeout)
	if err := serverClient.Health(healthCtx); err != nil {
		slog.Warn("backend is not reachable", slog.String("url", cfg.Bot.BackendURL), slog.String("error", err.Error()))
	}
	cancelHealth()

	b, err := bot.NewBot(cfg.Bot, serverClient, taskStore, logger.With(slog.String("component", "bot")))
	if err != nil {
		slog.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Bot created successfully, starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Start(ctx)
	}()

	<-ctx.Done()
	slog.Info("Shutting down bot...")
	<-done
	slog.Info("Bot stopped gracefully")
}
