package services

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// AnalyticsService связывает фильтр, агрегацию и построение отчета.
// Каждый вызов Analyze работает с собственной копией данных и не хранит состояния.
type AnalyticsService struct {
	filter     ports.Filter
	aggregator ports.Aggregator
	reporter   ports.ReportBuilder
	now        func() time.Time
	log        *slog.Logger
}

// AnalyticsOption настраивает AnalyticsService.
type AnalyticsOption func(*AnalyticsService)

// WithClock задает источник текущего времени для запусков без явного Now.
func WithClock(now func() time.Time) AnalyticsOption {
	return func(s *AnalyticsService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger устанавливает логгер.
func WithLogger(l *slog.Logger) AnalyticsOption {
	return func(s *AnalyticsService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStages подменяет стадии конвейера.
func WithStages(f ports.Filter, a ports.Aggregator, r ports.ReportBuilder) AnalyticsOption {
	return func(s *AnalyticsService) {
		if f != nil {
			s.filter = f
		}
		if a != nil {
			s.aggregator = a
		}
		if r != nil {
			s.reporter = r
		}
	}
}

// NewAnalyticsService создает сервис со стандартными стадиями.
func NewAnalyticsService(opts ...AnalyticsOption) *AnalyticsService {
	s := &AnalyticsService{
		filter:     NewFilterService(),
		aggregator: NewAggregationService(),
		reporter:   NewReportService(),
		now:        time.Now,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze строит отчет по чату. Пустой список участников означает всех
// участников чата. Если после фильтрации сообщений нет, возвращается domain.ErrNoData.
func (s *AnalyticsService) Analyze(chat *domain.Chat, opts domain.AnalysisOptions) (*domain.Report, error) {
	window, err := domain.ParseWindow(string(opts.Window))
	if err != nil {
		return nil, err
	}
	if opts.WordLength < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidWordLength, opts.WordLength)
	}
	if chat == nil {
		return nil, domain.ErrNoData
	}

	now := opts.Now
	if now.IsZero() {
		now = s.now()
	}
	allowed := opts.Participants
	if len(allowed) == 0 {
		allowed = chat.Participants
	}

	filtered := s.filter.Filter(chat.Messages, window, allowed, now)
	agg, ok := s.aggregator.Aggregate(filtered, allowed, opts.WordLength, now)
	if !ok {
		s.log.Debug("Нет сообщений для анализа", "window", window, "participants", len(allowed))
		return nil, domain.ErrNoData
	}

	report := s.reporter.Build(agg, now)
	s.log.Debug("Отчет построен",
		"window", window,
		"messages", report.TotalMessages,
		"participants", len(report.Participants))
	return report, nil
}

var _ ports.Analyzer = (*AnalyticsService)(nil)
