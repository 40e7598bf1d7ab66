// Команда analyzer строит отчет по локальному файлу экспорта без сервера.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/adapters/parser"
	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/domain"
	applog "whatsapp-chat-analyzer/internal/log"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/pkg/term"
	"whatsapp-chat-analyzer/internal/ports"
)

// Колонки таблицы участников, кроме имени, занимают фиксированную ширину.
const (
	valueColumns    = 7
	minNameWidth    = 10
	maxNameWidth    = 30
	defaultTermSize = 80
)

type options struct {
	window       string
	participants string
	wordLength   int
	timezone     string
	jsonOutput   bool
	xlsxPath     string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var opts options
	flag.StringVar(&opts.window, "window", cfg.Analysis.DefaultWindow, "Time window: all, week, month, year")
	flag.StringVar(&opts.participants, "participants", "", "Comma-separated participant names (all if empty)")
	flag.IntVar(&opts.wordLength, "word-length", cfg.Analysis.DefaultWordLength, "Exact word length for the vocabulary, 0 for words of 3+ letters")
	flag.StringVar(&opts.timezone, "timezone", cfg.Analysis.Timezone, "IANA time zone of the export, or Local")
	flag.BoolVar(&opts.jsonOutput, "json", false, "Write JSON even when stdout is a terminal")
	flag.StringVar(&opts.xlsxPath, "xlsx", "", "Also write an Excel workbook to this path")
	flag.Parse()

	if flag.NArg() != 1 {
		return errors.New("usage: analyzer [flags] <chat.txt|chat.zip|->")
	}

	// Логи идут в stderr, чтобы не смешиваться с отчетом.
	logger := applog.New(os.Stderr, cfg.Logging.Level, "text")
	slog.SetDefault(logger)

	cfg.Analysis.Timezone = opts.timezone
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	window, err := domain.ParseWindow(opts.window)
	if err != nil {
		return err
	}

	ds, err := newSource(flag.Arg(0), source.WithMaxEntrySize(cfg.MaxEntryBytes()))
	if err != nil {
		return err
	}
	data, err := ds.Fetch()
	if err != nil {
		return fmt.Errorf("не удалось прочитать экспорт: %w", err)
	}

	chat := parser.NewWhatsAppParser(parser.WithLocation(loc), parser.WithLogger(logger)).Parse(data)
	slog.Debug("Разобран чат",
		"messages", len(chat.Messages),
		"participants", len(chat.Participants),
		"dropped_lines", chat.Stats.DroppedLines)

	analyzer := services.NewAnalyticsService(services.WithLogger(logger))
	report, err := analyzer.Analyze(chat, domain.AnalysisOptions{
		Window:       window,
		Participants: splitNames(opts.participants),
		WordLength:   domain.VocabMode(opts.wordLength),
		Now:          time.Now().In(loc),
	})
	if err != nil && !errors.Is(err, domain.ErrNoData) {
		return err
	}

	if err := newExporter(opts.jsonOutput).Export(report); err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		if report == nil {
			slog.Warn("Нет данных, Excel-файл не создан", "path", opts.xlsxPath)
			return nil
		}
		if err := exporter.NewExcelExporter(opts.xlsxPath).Export(report); err != nil {
			return err
		}
		slog.Info("Excel-файл сохранен", "path", opts.xlsxPath)
	}
	return nil
}

// newSource читает файл по пути или, для "-", весь stdin.
func newSource(path string, opts ...source.Option) (ports.DataSource, error) {
	if path != "-" {
		return source.NewCliSource(path, opts...), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать stdin: %w", err)
	}
	return source.NewMemorySource(data, opts...), nil
}

// newExporter выбирает таблицу для терминала и JSON для конвейеров.
func newExporter(forceJSON bool) ports.Exporter {
	if forceJSON || !term.IsTerminal(os.Stdout) {
		return exporter.NewJSONExporter(os.Stdout)
	}
	widths := exporter.DefaultWidths
	fixed := valueColumns*(widths.Value+3) + 4
	widths.Name = term.Fit(term.Width(os.Stdout, defaultTermSize), fixed, minNameWidth, maxNameWidth)
	return exporter.NewConsoleExporter(os.Stdout, widths)
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
