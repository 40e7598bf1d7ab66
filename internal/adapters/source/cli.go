package source

import (
	"fmt"
	"os"

	"whatsapp-chat-analyzer/internal/ports"
)

// CliSource реализует интерфейс DataSource для чтения экспорта из файла,
// указанного в командной строке. Поддерживаются .txt и .zip.
type CliSource struct {
	filePath string
	opts     []Option
}

// NewCliSource создает новый экземпляр CliSource.
func NewCliSource(filePath string, opts ...Option) ports.DataSource {
	return &CliSource{filePath: filePath, opts: opts}
}

// Fetch читает файл по указанному пути и возвращает текст экспорта.
func (s *CliSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, fmt.Errorf("не указан путь к файлу")
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	text, err := Decode(data, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read export %s: %w", s.filePath, err)
	}
	return text, nil
}
