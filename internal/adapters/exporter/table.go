package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"whatsapp-chat-analyzer/internal/domain"
)

// Widths задает ширину колонок текстовой таблицы в экранных символах.
type Widths struct {
	Name  int `yaml:"name"`
	Value int `yaml:"value"`
}

// DefaultWidths подходит и для терминала, и для моноширинного блока в Telegram.
var DefaultWidths = Widths{Name: 16, Value: 6}

func (w Widths) normalized() Widths {
	if w.Name <= 0 {
		w.Name = DefaultWidths.Name
	}
	if w.Value <= 0 {
		w.Value = DefaultWidths.Value
	}
	return w
}

var participantColumns = []string{"Msgs", "Words", "Media", "Emoji", "Links", "Start", "Reply"}

// RenderSummary формирует текстовую сводку отчета: таблицу участников,
// номинации, популярные слова и эмодзи.
func RenderSummary(report *domain.Report, widths Widths) string {
	w := widths.normalized()
	var sb strings.Builder

	fmt.Fprintf(&sb, "Messages: %d (next milestone: %d)\n", report.TotalMessages, report.Milestone.Next)
	fmt.Fprintf(&sb, "Streaks: longest %d days, current %d days\n", report.Streaks.Longest, report.Streaks.Current)
	fmt.Fprintf(&sb, "Daily average: %.1f, novels written: %.1f\n\n", report.Trivia.DailyAverage, report.Trivia.NovelsWritten)

	writeParticipantTable(&sb, report.Participants, w)

	sb.WriteString("\n--- Awards ---\n")
	for _, a := range report.Awards {
		fmt.Fprintf(&sb, "%s: %s. %s\n", a.Title, a.Winner, a.Description)
	}

	if len(report.TopWords) > 0 {
		sb.WriteString("\n--- Top Words ---\n")
		for i, e := range report.TopWords {
			fmt.Fprintf(&sb, "%2d. %s (%d)\n", i+1, e.Key, e.Total)
		}
	}
	if len(report.TopEmojis) > 0 {
		sb.WriteString("\n--- Top Emojis ---\n")
		parts := make([]string, len(report.TopEmojis))
		for i, e := range report.TopEmojis {
			parts[i] = fmt.Sprintf("%s %d", e.Key, e.Total)
		}
		sb.WriteString(strings.Join(parts, "  "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeParticipantTable(sb *strings.Builder, participants []domain.ParticipantStat, w Widths) {
	sb.WriteString("| " + "Name" + generatePadding("Name", w.Name) + " ")
	for _, col := range participantColumns {
		sb.WriteString("| " + generatePadding(col, w.Value) + col + " ")
	}
	sb.WriteString("|\n")

	sb.WriteString("|" + strings.Repeat("-", w.Name+2))
	for range participantColumns {
		sb.WriteString("|" + strings.Repeat("-", w.Value+2))
	}
	sb.WriteString("|\n")

	for _, p := range participants {
		values := []string{
			strconv.Itoa(p.Messages),
			strconv.Itoa(p.Words),
			strconv.Itoa(p.Media),
			strconv.Itoa(p.Emojis),
			strconv.Itoa(p.Links),
			strconv.Itoa(p.Starters),
			fmt.Sprintf("%.0fm", p.AvgReplyMinutes),
		}

		name := strings.ReplaceAll(strings.ToValidUTF8(p.Name, ""), "\n", " ")
		nameLines := wrapString(name, w.Name)
		for i, line := range nameLines {
			sb.WriteString("| " + line + generatePadding(line, w.Name) + " ")
			for _, v := range values {
				if i > 0 {
					v = ""
				}
				sb.WriteString("| " + generatePadding(v, w.Value) + v + " ")
			}
			sb.WriteString("|\n")
		}
	}
}

// generatePadding вычисляет отступ для строки с учетом поправки на CJK-символы.
func generatePadding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)

	// Некоторые клиенты рендерят CJK чуть шире, добавляем один пробел.
	hasCJK := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			hasCJK = true
			break
		}
	}
	if hasCJK && paddingNeeded >= 0 {
		paddingNeeded++
	}

	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// wrapString разбивает строку на части не шире width, по возможности по пробелам.
// Слово длиннее width режется посередине.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var currentLine strings.Builder
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
			lines = append(lines, splitByWidth(word, width)...)
			continue
		}

		lineLen := runewidth.StringWidth(currentLine.String())
		if lineLen > 0 && lineLen+1+wordWidth > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}
	return lines
}

func splitByWidth(word string, width int) []string {
	var lines []string
	runes := []rune(word)
	for len(runes) > 0 {
		i, currentWidth := 0, 0
		for i < len(runes) {
			rw := runewidth.RuneWidth(runes[i])
			if currentWidth+rw > width && i > 0 {
				break
			}
			currentWidth += rw
			i++
		}
		lines = append(lines, string(runes[:i]))
		runes = runes[i:]
	}
	return lines
}
