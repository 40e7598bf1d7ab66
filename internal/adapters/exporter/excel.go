package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// Имена листов книги отчета.
const (
	SheetParticipants = "Participants"
	SheetAwards       = "Awards"
	SheetWords        = "Words"
	SheetEmojis       = "Emojis"
	SheetTimeline     = "Timeline"
	SheetHeatmap      = "Heatmap"
)

// BuildWorkbook собирает книгу Excel по отчету. Закрыть книгу должен вызывающий.
func BuildWorkbook(report *domain.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetParticipants); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetAwards, SheetWords, SheetEmojis, SheetTimeline, SheetHeatmap} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	names := make([]string, len(report.Participants))
	for i, p := range report.Participants {
		names[i] = p.Name
	}

	var rows [][]any
	for _, p := range report.Participants {
		rows = append(rows, []any{p.Name, p.Messages, p.Words, p.Media, p.Emojis, p.Links, p.Deleted, p.Edited,
			p.NightOwl, p.EarlyBird, p.Starters, p.DoubleTexts, p.AvgReplyMinutes, p.LongestMessage,
			p.Sentiment.Positive, p.Sentiment.Negative})
	}
	sheets := []struct {
		name    string
		headers []any
		rows    [][]any
	}{
		{SheetParticipants, []any{"Name", "Messages", "Words", "Media", "Emojis", "Links", "Deleted", "Edited",
			"Night owl", "Early bird", "Starters", "Double texts", "Avg reply (min)", "Longest message",
			"Positive", "Negative"}, rows},
		{SheetAwards, []any{"Award", "Winner", "Value", "Description"}, awardRows(report.Awards)},
		{SheetWords, frequencyHeaders("Word", names), frequencyRows(report.TopWords, names)},
		{SheetEmojis, frequencyHeaders("Emoji", names), frequencyRows(report.TopEmojis, names)},
		{SheetTimeline, append([]any{"Date"}, toAny(names)...), timelineRows(report.Timeline, names)},
		{SheetHeatmap, []any{"Date", "Count", "Level"}, heatmapRows(report.Heatmap)},
	}

	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.headers, s.rows); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func awardRows(awards []domain.Award) [][]any {
	rows := make([][]any, len(awards))
	for i, a := range awards {
		rows[i] = []any{a.Title, a.Winner, a.Value, a.Description}
	}
	return rows
}

func frequencyHeaders(key string, names []string) []any {
	return append([]any{key, "Total"}, toAny(names)...)
}

func frequencyRows(entries []domain.FrequencyEntry, names []string) [][]any {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		row := []any{e.Key, e.Total}
		for _, n := range names {
			row = append(row, e.Breakdown[n])
		}
		rows[i] = row
	}
	return rows
}

func timelineRows(timeline []domain.TimelineBucket, names []string) [][]any {
	rows := make([][]any, len(timeline))
	for i, b := range timeline {
		row := []any{b.Date}
		for _, n := range names {
			row = append(row, b.Counts[n])
		}
		rows[i] = row
	}
	return rows
}

func heatmapRows(cells []domain.HeatmapCell) [][]any {
	rows := make([][]any, len(cells))
	for i, c := range cells {
		rows[i] = []any{c.Date, c.Count, c.Level}
	}
	return rows
}

// ExcelExporter реализует интерфейс Exporter, сохраняя книгу в файл.
type ExcelExporter struct {
	path string
}

// NewExcelExporter создает новый экземпляр ExcelExporter.
func NewExcelExporter(path string) ports.Exporter {
	return &ExcelExporter{path: path}
}

// Export сохраняет книгу. Для пустой выборки файл не создается.
func (e *ExcelExporter) Export(report *domain.Report) error {
	if report == nil {
		return domain.ErrNoData
	}
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", e.path, err)
	}
	return nil
}
