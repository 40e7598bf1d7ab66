package services

import (
	"time"
	"unicode/utf8"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/lexicon"
	"whatsapp-chat-analyzer/internal/ports"
)

// DefaultMinWordLength - минимальная длина слова, когда точная длина не задана.
const DefaultMinWordLength = 3

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// AggregationServiceImpl реализует интерфейс Aggregator.
type AggregationServiceImpl struct{}

// NewAggregationService создает новый экземпляр AggregationServiceImpl.
func NewAggregationService() ports.Aggregator {
	return &AggregationServiceImpl{}
}

// accumulator - изменяемое состояние одного прохода агрегации.
type accumulator struct {
	agg      *domain.Aggregate
	byName   map[string]*domain.ParticipantStat
	mode     domain.VocabMode
	loc      *time.Location
	flow     flowState
	timeline map[int64]map[string]int
	active   map[int64]struct{}
	firstDay int64
	lastDay  int64
}

func newAccumulator(allowed []string, mode domain.VocabMode, loc *time.Location) *accumulator {
	acc := &accumulator{
		agg: &domain.Aggregate{
			Participants: make([]*domain.ParticipantStat, 0, len(allowed)),
			Hourly:       make([]domain.HourlyStat, 24),
			Weekday:      make([]domain.WeekdayStat, 7),
			Words:        domain.NewFrequencyTable(),
			Emojis:       domain.NewFrequencyTable(),
			DailyCounts:  make(map[string]int),
		},
		byName:   make(map[string]*domain.ParticipantStat, len(allowed)),
		mode:     mode,
		loc:      loc,
		timeline: make(map[int64]map[string]int),
		active:   make(map[int64]struct{}),
	}
	for h := range acc.agg.Hourly {
		acc.agg.Hourly[h].Hour = h
	}
	for d := range acc.agg.Weekday {
		acc.agg.Weekday[d].Day = weekdayNames[d]
	}
	for _, name := range allowed {
		if _, ok := acc.byName[name]; ok {
			continue
		}
		p := &domain.ParticipantStat{Name: name}
		acc.byName[name] = p
		acc.agg.Participants = append(acc.agg.Participants, p)
	}
	return acc
}

// Aggregate выполняет один проход по отобранным сообщениям. Возвращает false,
// если ни одно сообщение не принадлежит разрешенным отправителям.
// Время сообщений приводится к часовому поясу now.
func (s *AggregationServiceImpl) Aggregate(messages []domain.Message, allowed []string, mode domain.VocabMode, now time.Time) (*domain.Aggregate, bool) {
	if len(messages) == 0 {
		return nil, false
	}

	acc := newAccumulator(allowed, mode, now.Location())
	for i := range messages {
		acc.add(&messages[i])
	}
	if acc.agg.TotalMessages == 0 {
		return nil, false
	}

	acc.fillTimeline(allowed)
	acc.agg.Streaks = computeStreaks(acc.active, civilDay(now))
	return acc.agg, true
}

func (acc *accumulator) add(msg *domain.Message) {
	p, ok := acc.byName[msg.Sender]
	if !ok {
		return
	}
	agg := acc.agg
	agg.TotalMessages++

	p.Messages++
	p.Links += msg.LinkCount
	p.Emojis += len(msg.Emojis)
	if msg.IsMedia {
		p.Media++
	}
	if msg.IsDeleted {
		p.Deleted++
	}
	if msg.IsEdited {
		p.Edited++
	}
	p.LongestMessage = max(p.LongestMessage, msg.CharCount)

	ts := msg.Timestamp.In(acc.loc)
	hour, wd := ts.Hour(), int(ts.Weekday())
	agg.Hourly[hour].Count++
	agg.Weekday[wd].Count++
	agg.Matrix[wd][hour]++
	switch {
	case hour < 5:
		p.NightOwl++
	case hour < 9:
		p.EarlyBird++
	}

	day := civilDay(ts)
	agg.DailyCounts[ts.Format(dateLayout)]++
	acc.markDay(day, msg.Sender)

	if !msg.IsMedia {
		for _, w := range msg.Words {
			if !acc.wordAllowed(w) {
				continue
			}
			p.Words++
			agg.Words.Add(w, msg.Sender)
			if lexicon.IsPositive(w) {
				p.Sentiment.Positive++
			}
			if lexicon.IsNegative(w) {
				p.Sentiment.Negative++
			}
			if lexicon.IsApology(w) {
				p.SorryCount++
			}
			if lexicon.IsLaugh(w) {
				p.LaughCount++
			}
		}
	}
	for _, e := range msg.Emojis {
		agg.Emojis.Add(e, msg.Sender)
	}

	var ev flowEvent
	ev, acc.flow = acc.flow.step(msg)
	switch ev.Kind {
	case flowStarter:
		p.Starters++
	case flowReply:
		p.ReplySamples = append(p.ReplySamples, ev.Gap)
	case flowDoubleText:
		p.DoubleTexts++
	}
}

func (acc *accumulator) wordAllowed(w string) bool {
	n := utf8.RuneCountInString(w)
	if acc.mode > 0 {
		return n == int(acc.mode)
	}
	return n >= DefaultMinWordLength
}

func (acc *accumulator) markDay(day int64, sender string) {
	if len(acc.active) == 0 || day < acc.firstDay {
		acc.firstDay = day
	}
	if len(acc.active) == 0 || day > acc.lastDay {
		acc.lastDay = day
	}
	acc.active[day] = struct{}{}

	counts, ok := acc.timeline[day]
	if !ok {
		counts = make(map[string]int)
		acc.timeline[day] = counts
	}
	counts[sender]++
}

// fillTimeline строит непрерывную ленту от первого до последнего активного дня,
// где у каждого разрешенного отправителя есть явный счетчик.
func (acc *accumulator) fillTimeline(allowed []string) {
	acc.agg.Timeline = make([]domain.TimelineBucket, 0, acc.lastDay-acc.firstDay+1)
	for day := acc.firstDay; day <= acc.lastDay; day++ {
		counts := make(map[string]int, len(allowed))
		for _, name := range allowed {
			counts[name] = acc.timeline[day][name]
		}
		acc.agg.Timeline = append(acc.agg.Timeline, domain.TimelineBucket{Date: dayKey(day), Counts: counts})
	}
}
