package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"whatsapp-chat-analyzer/internal/adapters/parser"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/core/services"
	applog "whatsapp-chat-analyzer/internal/log"
	"whatsapp-chat-analyzer/internal/metrics"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/server"
	"whatsapp-chat-analyzer/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := applog.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// 4. Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 5. Инициализация зависимостей
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore(
		cache.WithMaxEntries(cfg.Processing.MaxCachedChats),
		cache.WithLogger(logger.With("component", "cache")),
	)
	cacheStore.StartCleanupTicker(appCtx, cfg.Processing.CleanupInterval)

	parserSvc := parser.NewWhatsAppParser(
		parser.WithLocation(loc),
		parser.WithLogger(logger.With("component", "parser")),
	)
	analyticsSvc := services.NewAnalyticsService(
		services.WithClock(func() time.Time { return time.Now().In(loc) }),
		services.WithLogger(logger.With("component", "analytics")),
	)
	processor := usecase.NewProcessChatUseCase(cfg, parserSvc, analyticsSvc, cacheStore,
		usecase.WithMetrics(collector),
		usecase.WithLogger(logger.With("component", "usecase")),
	)

	// 6. Создание HTTP-сервера
	srv, err := server.New(cfg, processor, taskStore,
		server.WithMetrics(collector),
		server.WithMetricsHandler(metrics.Handler(registry)),
		server.WithLogger(logger.With("component", "server")),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	srv.StartCleanup(appCtx, cfg.Processing.CleanupInterval)

	// 7. Запуск сервера и graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", cfg.Address(), "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("Signal received, shutting down...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Останавливаем фоновые тикеры, затем HTTP-сервер
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverErr
	slog.Info("Application exited gracefully")
	return nil
}
