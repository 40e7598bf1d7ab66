// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"whatsapp-chat-analyzer/internal/domain"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
	ReadTimeout         time.Duration `yaml:"read_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	IdleTimeout         time.Duration `yaml:"idle_timeout"`
	MaxUploadSizeMB     int           `yaml:"max_upload_size_mb"`
	CORSAllowedOrigins  []string      `yaml:"cors_allowed_origins"`
	UploadRatePerMinute int           `yaml:"upload_rate_per_minute"` // 0 - без ограничений
	UploadBurst         int           `yaml:"upload_burst"`
}

// Processing содержит конфигурацию обработки загрузок
type Processing struct {
	TaskTimeout     time.Duration `yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxEntrySizeMB  int           `yaml:"max_entry_size_mb"`
	MaxCachedChats  int           `yaml:"max_cached_chats"` // 0 - без ограничений
}

// Analysis содержит параметры анализа по умолчанию
type Analysis struct {
	Timezone          string `yaml:"timezone"` // имя зоны IANA или "Local"
	DefaultWindow     string `yaml:"default_window"`
	DefaultWordLength int    `yaml:"default_word_length"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `yaml:"server"`
	Processing Processing `yaml:"processing"`
	Analysis   Analysis   `yaml:"analysis"`
	Logging    Logging    `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:                DefaultServerHost,
			Port:                DefaultServerPort,
			ShutdownTimeout:     DefaultShutdownTimeout,
			ReadTimeout:         DefaultReadTimeout,
			WriteTimeout:        DefaultWriteTimeout,
			IdleTimeout:         DefaultIdleTimeout,
			MaxUploadSizeMB:     DefaultMaxUploadSizeMB,
			CORSAllowedOrigins:  append([]string(nil), DefaultCORSOrigins...),
			UploadRatePerMinute: DefaultUploadRatePerMinute,
			UploadBurst:         DefaultUploadBurst,
		},
		Processing: Processing{
			TaskTimeout:     DefaultTaskTimeout,
			CacheTTL:        DefaultCacheTTL,
			CleanupInterval: DefaultCleanupInterval,
			MaxEntrySizeMB:  DefaultMaxEntrySizeMB,
			MaxCachedChats:  DefaultMaxCachedChats,
		},
		Analysis: Analysis{
			Timezone:          DefaultTimezone,
			DefaultWindow:     DefaultWindow,
			DefaultWordLength: DefaultWordLength,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем config.yml
// (если есть), затем переменные окружения и .env. Путь к файлу можно
// переопределить переменной CONFIG_FILE.
func LoadConfig() (*Config, error) {
	// Отсутствие .env не ошибка: переменные могут прийти из окружения.
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(getEnv("CONFIG_FILE", DefaultConfigFile), cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла поверх cfg. Отсутствие файла не ошибка.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv переопределяет значения переменными окружения.
func loadFromEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Analysis.Timezone = getEnv("ANALYSIS_TIMEZONE", cfg.Analysis.Timezone)
	cfg.Analysis.DefaultWindow = getEnv("ANALYSIS_DEFAULT_WINDOW", cfg.Analysis.DefaultWindow)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.CORSAllowedOrigins = splitList(origins)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &cfg.Server.Port},
		{"MAX_UPLOAD_SIZE_MB", &cfg.Server.MaxUploadSizeMB},
		{"UPLOAD_RATE_PER_MINUTE", &cfg.Server.UploadRatePerMinute},
		{"MAX_ENTRY_SIZE_MB", &cfg.Processing.MaxEntrySizeMB},
		{"MAX_CACHED_CHATS", &cfg.Processing.MaxCachedChats},
	}
	for _, v := range ints {
		s := os.Getenv(v.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("недопустимый %s: %w", v.key, err)
		}
		*v.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
		{"TASK_TIMEOUT", &cfg.Processing.TaskTimeout},
		{"CACHE_TTL", &cfg.Processing.CacheTTL},
	}
	for _, v := range durations {
		s := os.Getenv(v.key)
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("недопустимый %s: %w", v.key, err)
		}
		*v.dst = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes возвращает ограничение размера загрузки в байтах.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadSizeMB) << 20
}

// MaxEntryBytes возвращает ограничение размера файла внутри архива в байтах.
func (c *Config) MaxEntryBytes() int64 {
	return int64(c.Processing.MaxEntrySizeMB) << 20
}

// Location возвращает часовой пояс анализа.
func (c *Config) Location() (*time.Location, error) {
	if c.Analysis.Timezone == "" || strings.EqualFold(c.Analysis.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return nil, fmt.Errorf("неизвестный часовой пояс %q: %w", c.Analysis.Timezone, err)
	}
	return loc, nil
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fmt.Errorf("таймауты server не могут быть отрицательными")
	}
	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}
	if c.Server.UploadRatePerMinute < 0 {
		return fmt.Errorf("server.upload_rate_per_minute должно быть неотрицательным (0 для отсутствия ограничений)")
	}
	if c.Server.UploadRatePerMinute > 0 && c.Server.UploadBurst <= 0 {
		return fmt.Errorf("server.upload_burst должно быть положительным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}
	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}
	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}
	if c.Processing.MaxEntrySizeMB <= 0 {
		return fmt.Errorf("processing.max_entry_size_mb должно быть положительным")
	}
	if c.Processing.MaxCachedChats < 0 {
		return fmt.Errorf("processing.max_cached_chats должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("analysis.timezone: %w", err)
	}
	if _, err := domain.ParseWindow(c.Analysis.DefaultWindow); err != nil {
		return fmt.Errorf("analysis.default_window: %w", err)
	}
	if c.Analysis.DefaultWordLength < 0 {
		return fmt.Errorf("analysis.default_word_length должно быть неотрицательным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть json или text")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
