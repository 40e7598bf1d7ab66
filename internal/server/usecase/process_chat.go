package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/metrics"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/ports"
)

// ErrChatNotFound означает, что разобранного чата с таким хешем нет в кеше
// (он не загружался или истек срок хранения).
var ErrChatNotFound = errors.New("чат не найден в кеше")

// ChatSummary описывает разобранный чат без самих сообщений.
type ChatSummary struct {
	Hash         string            `json:"chat_hash"`
	Participants []string          `json:"participants"`
	MessageCount int               `json:"message_count"`
	ParseStats   domain.ParseStats `json:"parse_stats"`
}

func newSummary(hash string, chat *domain.Chat) *ChatSummary {
	return &ChatSummary{
		Hash:         hash,
		Participants: append([]string(nil), chat.Participants...),
		MessageCount: len(chat.Messages),
		ParseStats:   chat.Stats,
	}
}

// ProcessChatUseCase инкапсулирует бизнес-логику обработки файла экспорта:
// разбор с кешированием и последующий анализ разобранного чата.
type ProcessChatUseCase struct {
	cfg        *config.Config
	parser     ports.Parser
	analyzer   ports.Analyzer
	cacheStore *cache.CacheStore
	metrics    metrics.MetricsCollector
	log        *slog.Logger
	now        func() time.Time
	loc        *time.Location
}

// Option настраивает ProcessChatUseCase.
type Option func(*ProcessChatUseCase)

// WithMetrics задает сборщик метрик.
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(uc *ProcessChatUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(uc *ProcessChatUseCase) {
		if l != nil {
			uc.log = l
		}
	}
}

// WithClock задает источник текущего времени для анализа без явного Now.
func WithClock(now func() time.Time) Option {
	return func(uc *ProcessChatUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// NewProcessChatUseCase создает новый экземпляр ProcessChatUseCase.
func NewProcessChatUseCase(
	cfg *config.Config,
	parser ports.Parser,
	analyzer ports.Analyzer,
	cacheStore *cache.CacheStore,
	opts ...Option,
) *ProcessChatUseCase {
	uc := &ProcessChatUseCase{
		cfg:        cfg,
		parser:     parser,
		analyzer:   analyzer,
		cacheStore: cacheStore,
		metrics:    metrics.NopCollector{},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(uc)
	}
	// Config.Validate уже проверил зону; при ошибке остается локальная.
	if loc, err := cfg.Location(); err == nil {
		uc.loc = loc
	}
	return uc
}

// ProcessChat разбирает файл экспорта (txt или zip) и кеширует результат по
// хешу содержимого. Повторная загрузка того же файла берется из кеша.
func (uc *ProcessChatUseCase) ProcessChat(ctx context.Context, filePath string) (*ChatSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileHash, err := cache.CalculateFileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("не удалось вычислить хеш файла %s: %w", filePath, err)
	}

	if cachedItem, found := uc.cacheStore.Get(fileHash); found {
		uc.log.Info("Попадание в кеш", "hash", fileHash)
		uc.metrics.RecordCacheHit()
		return newSummary(fileHash, cachedItem.Chat), nil
	}

	uc.log.Info("Обработка файла", "path", filePath)
	ds := source.NewCliSource(filePath, source.WithMaxEntrySize(uc.cfg.MaxEntryBytes()))
	data, err := ds.Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные из %s: %w", filePath, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chat := uc.parser.Parse(data)
	uc.metrics.RecordParse(chat.Stats, len(chat.Messages))
	uc.log.Info("Разобран чат",
		"hash", fileHash,
		"message_count", len(chat.Messages),
		"participants", len(chat.Participants),
		"dropped_lines", chat.Stats.DroppedLines,
		"date_fallbacks", chat.Stats.DateFallbacks)

	ttl := uc.cfg.Processing.CacheTTL
	uc.cacheStore.Put(fileHash, chat, ttl)
	uc.log.Info("Результат кеширован", "hash", fileHash, "ttl", ttl.String())

	return newSummary(fileHash, chat), nil
}

// ProcessByHash возвращает сводку по уже разобранному чату.
func (uc *ProcessChatUseCase) ProcessByHash(ctx context.Context, hash string) (*ChatSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, found := uc.cacheStore.Get(hash)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, hash)
	}
	uc.metrics.RecordCacheHit()
	return newSummary(hash, item.Chat), nil
}

// Analyze строит отчет по закешированному чату. Без явного opts.Now
// отсчет окна и разбивка по часам и дням идут в зоне analysis.timezone.
// Для пустой выборки возвращается domain.ErrNoData.
func (uc *ProcessChatUseCase) Analyze(ctx context.Context, hash string, opts domain.AnalysisOptions) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, found := uc.cacheStore.Get(hash)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, hash)
	}

	if opts.Now.IsZero() {
		opts.Now = uc.now().In(uc.loc)
	}

	start := time.Now()
	report, err := uc.analyzer.Analyze(item.Chat, opts)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			uc.metrics.RecordAnalysis(elapsed, false)
		}
		return nil, err
	}
	uc.metrics.RecordAnalysis(elapsed, true)
	uc.log.Debug("Анализ выполнен", "hash", hash, "window", opts.Window, "duration", elapsed)
	return report, nil
}
