package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Ошибки уровня анализа. Разбор файла никогда не возвращает ошибок, аномалии
// строк и дат обрабатываются внутри парсера.
var (
	// ErrNoData означает, что после фильтрации не осталось ни одного сообщения.
	ErrNoData = errors.New("no messages match the selection")
	// ErrInvalidWindow возвращается для неизвестного временного окна.
	ErrInvalidWindow = errors.New("invalid time window")
	// ErrInvalidWordLength возвращается для отрицательной длины слова.
	ErrInvalidWordLength = errors.New("invalid word length")
)

// Message представляет одно сообщение, восстановленное из экспорта чата.
// После завершения разбора сообщение не изменяется.
type Message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	IsMedia   bool      `json:"is_media"`
	IsDeleted bool      `json:"is_deleted"`
	IsEdited  bool      `json:"is_edited"`
	LinkCount int       `json:"link_count"`
	Emojis    []string  `json:"emojis"`
	Words     []string  `json:"words"`
	CharCount int       `json:"char_count"`
	WordCount int       `json:"word_count"`
}

// ParseStats содержит диагностику одного прохода парсера.
type ParseStats struct {
	Lines          int `json:"lines"`
	BlankLines     int `json:"blank_lines"`
	Headers        int `json:"headers"`
	Continuations  int `json:"continuations"`
	DroppedLines   int `json:"dropped_lines"`
	SystemMessages int `json:"system_messages"`
	DateFallbacks  int `json:"date_fallbacks"`
}

// Chat - результат разбора: упорядоченные сообщения и участники
// в порядке первого появления.
type Chat struct {
	Messages     []Message  `json:"messages"`
	Participants []string   `json:"participants"`
	Stats        ParseStats `json:"stats"`
}

// Sentiment содержит счетчики ключевых слов тональности.
// Neutral зарезервирован и пока не заполняется.
type Sentiment struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// ParticipantStat накапливает показатели одного отправителя за один проход агрегации.
type ParticipantStat struct {
	Name            string    `json:"name"`
	Messages        int       `json:"messages"`
	Words           int       `json:"words"`
	Media           int       `json:"media"`
	Emojis          int       `json:"emojis"`
	Links           int       `json:"links"`
	Deleted         int       `json:"deleted"`
	Edited          int       `json:"edited"`
	Sentiment       Sentiment `json:"sentiment"`
	NightOwl        int       `json:"night_owl"`
	EarlyBird       int       `json:"early_bird"`
	DoubleTexts     int       `json:"double_texts"`
	SorryCount      int       `json:"sorry_count"`
	LaughCount      int       `json:"laugh_count"`
	LongestMessage  int       `json:"longest_message"`
	Starters        int       `json:"starters"`
	ReplySamples    []int     `json:"-"`
	AvgReplyMinutes float64   `json:"avg_reply_minutes"`
}

// FrequencyEntry - строка частотной таблицы слов или эмодзи.
// Инвариант: Total равен сумме значений Breakdown.
type FrequencyEntry struct {
	Key       string         `json:"key"`
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// FrequencyTable - частотная таблица, сохраняющая порядок обнаружения ключей.
type FrequencyTable struct {
	entries []*FrequencyEntry
	index   map[string]int
}

// NewFrequencyTable создает пустую таблицу.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{index: make(map[string]int)}
}

// Add увеличивает счетчик ключа для отправителя.
func (t *FrequencyTable) Add(key, sender string) {
	i, ok := t.index[key]
	if !ok {
		i = len(t.entries)
		t.index[key] = i
		t.entries = append(t.entries, &FrequencyEntry{Key: key, Breakdown: make(map[string]int)})
	}
	e := t.entries[i]
	e.Total++
	e.Breakdown[sender]++
}

// Get возвращает запись по ключу.
func (t *FrequencyTable) Get(key string) (FrequencyEntry, bool) {
	i, ok := t.index[key]
	if !ok {
		return FrequencyEntry{}, false
	}
	return *t.entries[i], true
}

// Len возвращает число различных ключей.
func (t *FrequencyTable) Len() int {
	return len(t.entries)
}

// Entries возвращает копии записей в порядке обнаружения.
func (t *FrequencyTable) Entries() []FrequencyEntry {
	out := make([]FrequencyEntry, len(t.entries))
	for i, e := range t.entries {
		breakdown := make(map[string]int, len(e.Breakdown))
		for k, v := range e.Breakdown {
			breakdown[k] = v
		}
		out[i] = FrequencyEntry{Key: e.Key, Total: e.Total, Breakdown: breakdown}
	}
	return out
}

// TimelineBucket - количество сообщений каждого отправителя за календарный день.
type TimelineBucket struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

// HeatmapCell - ячейка годовой тепловой карты.
type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// HourlyStat - количество сообщений за час суток.
type HourlyStat struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// WeekdayStat - количество сообщений за день недели.
type WeekdayStat struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ActivityMatrix - матрица 7×24, строки начинаются с воскресенья.
type ActivityMatrix [7][24]int

// Streaks - самая длинная и текущая серии активных дней.
type Streaks struct {
	Longest int `json:"longest"`
	Current int `json:"current"`
}

// Aggregate - результат одного прохода агрегации до постобработки.
type Aggregate struct {
	TotalMessages int                `json:"total_messages"`
	Participants  []*ParticipantStat `json:"participants"`
	Hourly        []HourlyStat       `json:"hourly"`
	Weekday       []WeekdayStat      `json:"weekday"`
	Matrix        ActivityMatrix     `json:"matrix"`
	Words         *FrequencyTable    `json:"-"`
	Emojis        *FrequencyTable    `json:"-"`
	DailyCounts   map[string]int     `json:"daily_counts"`
	Timeline      []TimelineBucket   `json:"timeline"`
	Streaks       Streaks            `json:"streaks"`
}

// Participant возвращает статистику отправителя по имени.
func (a *Aggregate) Participant(name string) *ParticipantStat {
	for _, p := range a.Participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Award - «номинация» с победителем.
type Award struct {
	Key         string  `json:"key"`
	Title       string  `json:"title"`
	Winner      string  `json:"winner"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// StarterCount - сколько раз отправитель начинал разговор после тишины.
type StarterCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ReplyStat - среднее время ответа отправителя в минутах.
type ReplyStat struct {
	Name       string  `json:"name"`
	AvgMinutes float64 `json:"avg_minutes"`
	Samples    int     `json:"samples"`
}

// Milestone - ближайшая «круглая» отметка числа сообщений.
type Milestone struct {
	Current int `json:"current"`
	Next    int `json:"next"`
}

// Totals - суммы по всем выбранным участникам.
type Totals struct {
	Messages int `json:"messages"`
	Words    int `json:"words"`
	Media    int `json:"media"`
	Emojis   int `json:"emojis"`
	Links    int `json:"links"`
	Deleted  int `json:"deleted"`
	Edited   int `json:"edited"`
}

// Trivia - забавные производные цифры для карточек.
type Trivia struct {
	NovelsWritten float64 `json:"novels_written"`
	ReadingHours  float64 `json:"reading_hours"`
	DailyAverage  float64 `json:"daily_average"`
}

// Report - итоговый неизменяемый снимок для слоя представления.
type Report struct {
	TotalMessages  int               `json:"total_messages"`
	Participants   []ParticipantStat `json:"participants"`
	Leaderboard    []string          `json:"leaderboard"`
	Timeline       []TimelineBucket  `json:"timeline"`
	Hourly         []HourlyStat      `json:"hourly"`
	Weekday        []WeekdayStat     `json:"weekday"`
	Matrix         ActivityMatrix    `json:"matrix"`
	Heatmap        []HeatmapCell     `json:"heatmap"`
	Starters       []StarterCount    `json:"starters"`
	ReplyStats     []ReplyStat       `json:"reply_stats"`
	TopWords       []FrequencyEntry  `json:"top_words"`
	TopEmojis      []FrequencyEntry  `json:"top_emojis"`
	Streaks        Streaks           `json:"streaks"`
	Milestone      Milestone         `json:"milestone"`
	Awards         []Award           `json:"awards"`
	Totals         Totals            `json:"totals"`
	Trivia         Trivia            `json:"trivia"`
	LexiconVersion string            `json:"lexicon_version"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Window - временное окно анализа.
type Window string

const (
	WindowAll   Window = "all"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

// ParseWindow разбирает строковое значение окна. Пустая строка означает "all".
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowAll, nil
	case WindowAll, WindowWeek, WindowMonth, WindowYear:
		return w, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
}

// VocabMode - фильтр длины слов: 0 означает «не короче 3», N>0 - «ровно N».
type VocabMode int

// AnalysisOptions описывает выборку для одного запуска анализа.
type AnalysisOptions struct {
	Window       Window
	Participants []string
	WordLength   VocabMode
	Now          time.Time
}
