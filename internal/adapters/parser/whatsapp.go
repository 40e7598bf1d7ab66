package parser

import (
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/lexicon"
	"whatsapp-chat-analyzer/internal/ports"
)

const timestampPrefix = `^\[?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}),?\s(\d{1,2}:\d{2}(?::\d{2})?(?:\s?[AaPp][Mm])?)\]?\s-?\s?`

var (
	// headerPattern распознает строку, начинающую новое сообщение:
	// "12/31/23, 9:41 PM - Alice: текст" или "[31/12/2023, 21:41:05] Alice: текст".
	headerPattern = regexp.MustCompile(timestampPrefix + `([^:]+):\s(.*)$`)
	// eventPattern распознает служебное событие без отправителя.
	eventPattern = regexp.MustCompile(timestampPrefix + `(.+)$`)
)

// WhatsAppParser реализует интерфейс Parser для текстового экспорта WhatsApp.
type WhatsAppParser struct {
	loc   *time.Location
	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

// Option настраивает WhatsAppParser.
type Option func(*WhatsAppParser)

// WithLocation задает часовой пояс, в котором интерпретируются времена экспорта.
func WithLocation(loc *time.Location) Option {
	return func(p *WhatsAppParser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithClock задает источник текущего времени для нераспознанных дат.
func WithClock(now func() time.Time) Option {
	return func(p *WhatsAppParser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger устанавливает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(p *WhatsAppParser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithIDGenerator задает генератор идентификаторов сообщений.
func WithIDGenerator(gen func() string) Option {
	return func(p *WhatsAppParser) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// NewWhatsAppParser создает новый экземпляр WhatsAppParser.
func NewWhatsAppParser(opts ...Option) ports.Parser {
	p := &WhatsAppParser{
		loc:   time.Local,
		now:   time.Now,
		newID: uuid.NewString,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse восстанавливает сообщения из текста экспорта. Разбор никогда не
// завершается ошибкой: нераспознанные строки и даты учитываются в Chat.Stats.
func (p *WhatsAppParser) Parse(data []byte) *domain.Chat {
	chat := &domain.Chat{Messages: []domain.Message{}, Participants: []string{}}
	seen := make(map[string]struct{})
	stats := &chat.Stats

	var current *draft
	flush := func() {
		if current != nil {
			chat.Messages = append(chat.Messages, current.build())
			current = nil
		}
	}

	for _, raw := range strings.Split(string(data), "\n") {
		stats.Lines++
		line := normalizeLine(raw)
		if line == "" {
			stats.BlankLines++
			continue
		}

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			stats.Headers++
			flush()
			sender := strings.TrimSpace(m[3])
			if lexicon.IsSystemSender(sender) {
				stats.SystemMessages++
				continue
			}
			if _, ok := seen[sender]; !ok {
				seen[sender] = struct{}{}
				chat.Participants = append(chat.Participants, sender)
			}
			current = newDraft(p.newID(), p.timestamp(m[1], m[2], stats), sender, strings.TrimSpace(m[4]))
			continue
		}

		if m := eventPattern.FindStringSubmatch(line); m != nil && lexicon.IsSystemSender(m[3]) {
			stats.Headers++
			stats.SystemMessages++
			flush()
			continue
		}

		if current == nil {
			stats.DroppedLines++
			continue
		}
		stats.Continuations++
		current.appendLine(line)
	}
	flush()

	sort.SliceStable(chat.Messages, func(i, j int) bool {
		return chat.Messages[i].Timestamp.Before(chat.Messages[j].Timestamp)
	})

	p.log.Debug("Разбор экспорта завершен",
		"messages", len(chat.Messages),
		"participants", len(chat.Participants),
		"dropped_lines", stats.DroppedLines,
		"date_fallbacks", stats.DateFallbacks)
	return chat
}

func (p *WhatsAppParser) timestamp(datePart, timePart string, stats *domain.ParseStats) time.Time {
	ts, err := parseTimestamp(datePart, timePart, p.loc)
	if err != nil {
		stats.DateFallbacks++
		p.log.Debug("Не удалось разобрать дату, используется текущее время",
			"date", datePart, "time", timePart, "error", err)
		return p.now().In(p.loc)
	}
	return ts
}
