package ports

import (
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных чата.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает текст экспорта в UTF-8.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для разбора текстового экспорта.
type Parser interface {
	// Parse преобразует сырые данные в упорядоченный список сообщений.
	// Аномалии отдельных строк не приводят к ошибке.
	Parse(data []byte) *domain.Chat
}

// Filter отбирает сообщения по временному окну и списку отправителей.
type Filter interface {
	Filter(messages []domain.Message, window domain.Window, allowed []string, now time.Time) []domain.Message
}

// Aggregator выполняет однопроходную агрегацию отобранных сообщений.
type Aggregator interface {
	// Aggregate возвращает false, если сообщений нет.
	Aggregate(messages []domain.Message, allowed []string, mode domain.VocabMode, now time.Time) (*domain.Aggregate, bool)
}

// ReportBuilder превращает агрегат в итоговый отчет.
type ReportBuilder interface {
	Build(agg *domain.Aggregate, now time.Time) *domain.Report
}

// Analyzer определяет интерфейс полного конвейера анализа.
type Analyzer interface {
	Analyze(chat *domain.Chat, opts domain.AnalysisOptions) (*domain.Report, error)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export выводит отчет. nil означает, что в выборке нет данных.
	Export(report *domain.Report) error
}
