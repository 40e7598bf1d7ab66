package exporter

import (
	"fmt"
	"io"
	"os"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// NoDataMessage выводится, когда в выборке нет сообщений.
const NoDataMessage = "No messages match the selected window and participants."

// ConsoleExporter реализует интерфейс Exporter для вывода сводки в терминал.
type ConsoleExporter struct {
	out    io.Writer
	widths Widths
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter. nil означает stdout.
func NewConsoleExporter(out io.Writer, widths Widths) ports.Exporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleExporter{out: out, widths: widths}
}

// Export выводит сводку отчета.
func (e *ConsoleExporter) Export(report *domain.Report) error {
	if _, err := fmt.Fprintln(e.out, "--- Chat Summary ---"); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if report == nil {
		_, err := fmt.Fprintln(e.out, NoDataMessage)
		return err
	}
	if _, err := io.WriteString(e.out, RenderSummary(report, e.widths)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
