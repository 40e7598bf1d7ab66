// Package metrics собирает метрики Prometheus о разборе чатов и анализе.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whatsapp-chat-analyzer/internal/domain"
)

// MetricsCollector - интерфейс сбора метрик для сценариев и HTTP-слоя.
type MetricsCollector interface {
	RecordParse(stats domain.ParseStats, messages int)
	RecordTask(status string)
	RecordAnalysis(duration time.Duration, hasData bool)
	RecordCacheHit()
}

// Collector реализует MetricsCollector на основе Prometheus.
type Collector struct {
	messagesParsed   prometheus.Counter
	linesDropped     prometheus.Counter
	systemMessages   prometheus.Counter
	dateFallbacks    prometheus.Counter
	tasks            *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	noData           prometheus.Counter
	cacheHits        prometheus.Counter
}

// NewCollector создает Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		messagesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_analyzer_messages_parsed_total",
			Help: "Количество сообщений, восстановленных парсером",
		}),
		linesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_analyzer_lines_dropped_total",
			Help: "Количество строк, которые не удалось отнести ни к одному сообщению",
		}),
		systemMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_analyzer_system_messages_total",
			Help: "Количество отброшенных служебных событий группы",
		}),
		dateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_analyzer_date_fallbacks_total",
			Help: "Количество нераспознанных дат, замененных текущим временем",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_analyzer_tasks_total",
			Help: "Количество задач обработки по итоговому статусу",
		}, []string{"status"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_analyzer_analysis_duration_seconds",
			Help:    "Длительность построения отчета",
			Buckets: prometheus.DefBuckets,
		}),
		noData: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_analyzer_no_data_total",
			Help: "Количество запусков анализа с пустой выборкой",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_analyzer_cache_hits_total",
			Help: "Количество повторных загрузок, обслуженных из кэша",
		}),
	}

	reg.MustRegister(
		c.messagesParsed,
		c.linesDropped,
		c.systemMessages,
		c.dateFallbacks,
		c.tasks,
		c.analysisDuration,
		c.noData,
		c.cacheHits,
	)
	return c
}

// RecordParse учитывает результат одного разбора.
func (c *Collector) RecordParse(stats domain.ParseStats, messages int) {
	c.messagesParsed.Add(float64(messages))
	c.linesDropped.Add(float64(stats.DroppedLines))
	c.systemMessages.Add(float64(stats.SystemMessages))
	c.dateFallbacks.Add(float64(stats.DateFallbacks))
}

// RecordTask учитывает завершение задачи.
func (c *Collector) RecordTask(status string) {
	c.tasks.WithLabelValues(status).Inc()
}

// RecordAnalysis учитывает один запуск анализа.
func (c *Collector) RecordAnalysis(duration time.Duration, hasData bool) {
	c.analysisDuration.Observe(duration.Seconds())
	if !hasData {
		c.noData.Inc()
	}
}

// RecordCacheHit учитывает попадание в кэш.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// NopCollector ничего не записывает.
type NopCollector struct{}

func (NopCollector) RecordParse(domain.ParseStats, int) {}
func (NopCollector) RecordTask(string)                  {}
func (NopCollector) RecordAnalysis(time.Duration, bool) {}
func (NopCollector) RecordCacheHit()                    {}

// Handler возвращает HTTP-обработчик для сбора метрик Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
