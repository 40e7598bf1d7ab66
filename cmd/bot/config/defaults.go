package config

import "time"

// Значения по умолчанию для конфигурации бота.
const (
	DefaultBackendURL      = "http://localhost:8080"
	DefaultPollingInterval = 2 * time.Second
	DefaultPollTimeout     = 10 * time.Minute
	DefaultMaxPollErrors   = 5
	DefaultExcelThreshold  = 8
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultMaxFileSizeMB   = 20 // предел Bot API для скачивания файлов

	// Ширина колонок текстовой таблицы.
	DefaultNameColumnWidth  = 14
	DefaultValueColumnWidth = 6

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
