package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
)

// BotConfig содержит конфигурацию для Telegram-бота
type BotConfig struct {
	Token           string          `yaml:"token"`
	BackendURL      string          `yaml:"backend_url"`
	PollingInterval time.Duration   `yaml:"polling_interval"`
	PollTimeout     time.Duration   `yaml:"poll_timeout"`    // предельное время ожидания одной задачи
	MaxPollErrors   int             `yaml:"max_poll_errors"` // ошибок опроса подряд до отказа
	ExcelThreshold  int             `yaml:"excel_threshold"` // число участников, начиная с которого отчет уходит в Excel
	HTTPTimeout     time.Duration   `yaml:"http_timeout"`
	MaxFileSizeMB   int             `yaml:"max_file_size_mb"`
	Render          exporter.Widths `yaml:"render"`
}

// Logging содержит настройки логирования бота.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config является оберткой для соответствия структуре YAML файла.
type Config struct {
	Bot     BotConfig `yaml:"bot"`
	Logging Logging   `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			BackendURL:      DefaultBackendURL,
			PollingInterval: DefaultPollingInterval,
			PollTimeout:     DefaultPollTimeout,
			MaxPollErrors:   DefaultMaxPollErrors,
			ExcelThreshold:  DefaultExcelThreshold,
			HTTPTimeout:     DefaultHTTPTimeout,
			MaxFileSizeMB:   DefaultMaxFileSizeMB,
			Render: exporter.Widths{
				Name:  DefaultNameColumnWidth,
				Value: DefaultValueColumnWidth,
			},
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadBotConfig загружает конфигурацию бота из указанного файла. Отсутствие
// файла не ошибка: токен и адрес бэкенда можно передать через BOT_TOKEN и
// BACKEND_URL (в том числе из .env).
func LoadBotConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bot config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read bot config file %s: %w", filename, err)
	}

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if url := os.Getenv("BACKEND_URL"); url != "" {
		cfg.Bot.BackendURL = url
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// Validate проверяет корректность конфигурации бота.
func (c *BotConfig) Validate() error {
	if c.Token == "" || c.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("bot.backend_url cannot be empty")
	}
	if c.PollingInterval <= 0 {
		return fmt.Errorf("bot.polling_interval must be positive")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("bot.poll_timeout must be positive")
	}
	if c.MaxPollErrors <= 0 {
		return fmt.Errorf("bot.max_poll_errors must be positive")
	}
	if c.ExcelThreshold <= 0 {
		return fmt.Errorf("bot.excel_threshold must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("bot.http_timeout must be positive")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("bot.max_file_size_mb must be positive")
	}
	if c.Render.Name <= 0 || c.Render.Value <= 0 {
		return fmt.Errorf("bot.render widths must be positive")
	}
	return nil
}

// ValidateFull проверяет всю конфигурацию, включая логирование.
func (c *Config) ValidateFull() error {
	if err := c.Bot.Validate(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text")
	}
	return nil
}
