package source

import (
	"fmt"

	"whatsapp-chat-analyzer/internal/ports"
)

// MemorySource реализует интерфейс DataSource для данных, уже загруженных в память
// (например, документ, полученный ботом).
type MemorySource struct {
	data []byte
	opts []Option
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte, opts ...Option) ports.DataSource {
	return &MemorySource{data: data, opts: opts}
}

// Fetch возвращает текст экспорта. Исходный срез не изменяется.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, fmt.Errorf("data not set")
	}

	dataCopy := make([]byte, len(s.data))
	copy(dataCopy, s.data)

	return Decode(dataCopy, s.opts...)
}
