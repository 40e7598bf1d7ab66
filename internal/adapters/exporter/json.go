package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// JSONExporter реализует интерфейс Exporter для машинно-читаемого вывода.
type JSONExporter struct {
	out io.Writer
}

// NewJSONExporter создает новый экземпляр JSONExporter. nil означает stdout.
func NewJSONExporter(out io.Writer) ports.Exporter {
	if out == nil {
		out = os.Stdout
	}
	return &JSONExporter{out: out}
}

// ResultEnvelope - форма результата анализа в JSON: отчет или признак его отсутствия.
type ResultEnvelope struct {
	HasData bool           `json:"has_data"`
	Report  *domain.Report `json:"report,omitempty"`
}

// Export пишет отчет в виде JSON с отступами.
func (e *JSONExporter) Export(report *domain.Report) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ResultEnvelope{HasData: report != nil, Report: report}); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
