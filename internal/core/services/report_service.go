package services

import (
	"fmt"
	"sort"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/lexicon"
	"whatsapp-chat-analyzer/internal/ports"
)

const (
	// TopN - длина списков популярных слов и эмодзи.
	TopN = 12
	// MilestoneStep - шаг «круглых» отметок числа сообщений.
	MilestoneStep = 5000
	// HeatmapDays - глубина тепловой карты в днях до текущего.
	HeatmapDays = 365

	wordsPerNovel  = 50000
	wordsPerMinute = 200
	noWinner       = "N/A"
)

// ReportServiceImpl реализует интерфейс ReportBuilder.
type ReportServiceImpl struct{}

// NewReportService создает новый экземпляр ReportServiceImpl.
func NewReportService() ports.ReportBuilder {
	return &ReportServiceImpl{}
}

// Build превращает агрегат в отчет. Агрегат не изменяется.
func (s *ReportServiceImpl) Build(agg *domain.Aggregate, now time.Time) *domain.Report {
	participants := make([]domain.ParticipantStat, len(agg.Participants))
	for i, p := range agg.Participants {
		participants[i] = *p
		participants[i].ReplySamples = append([]int(nil), p.ReplySamples...)
		participants[i].AvgReplyMinutes = mean(p.ReplySamples)
	}

	report := &domain.Report{
		TotalMessages:  agg.TotalMessages,
		Participants:   participants,
		Leaderboard:    leaderboard(participants),
		Timeline:       copyTimeline(agg.Timeline),
		Hourly:         append([]domain.HourlyStat(nil), agg.Hourly...),
		Weekday:        append([]domain.WeekdayStat(nil), agg.Weekday...),
		Matrix:         agg.Matrix,
		Heatmap:        buildHeatmap(agg.DailyCounts, now),
		Starters:       starters(participants),
		ReplyStats:     replyStats(participants),
		TopWords:       topEntries(agg.Words, TopN),
		TopEmojis:      topEntries(agg.Emojis, TopN),
		Streaks:        agg.Streaks,
		Milestone:      domain.Milestone{Current: agg.TotalMessages, Next: nextMilestone(agg.TotalMessages)},
		Awards:         buildAwards(participants),
		LexiconVersion: lexicon.Version,
		GeneratedAt:    now,
	}
	report.Totals = totals(participants)
	report.Trivia = trivia(report.Totals.Words, agg.TotalMessages, len(agg.Timeline))
	return report
}

func mean(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0
	for _, v := range samples {
		sum += v
	}
	return float64(sum) / float64(len(samples))
}

func nextMilestone(total int) int {
	return (total + MilestoneStep - 1) / MilestoneStep * MilestoneStep
}

// topEntries возвращает не более n записей по убыванию итога.
// При равенстве сохраняется порядок обнаружения.
func topEntries(table *domain.FrequencyTable, n int) []domain.FrequencyEntry {
	if table == nil {
		return []domain.FrequencyEntry{}
	}
	entries := table.Entries()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// HeatmapLevel переводит число сообщений за день в уровень 0-4.
func HeatmapLevel(count int) int {
	switch {
	case count > 100:
		return 4
	case count > 50:
		return 3
	case count > 20:
		return 2
	case count > 0:
		return 1
	default:
		return 0
	}
}

// buildHeatmap строит ячейки с now-365 по now включительно.
func buildHeatmap(daily map[string]int, now time.Time) []domain.HeatmapCell {
	today := civilDay(now)
	cells := make([]domain.HeatmapCell, 0, HeatmapDays+1)
	for day := today - HeatmapDays; day <= today; day++ {
		key := dayKey(day)
		count := daily[key]
		cells = append(cells, domain.HeatmapCell{Date: key, Count: count, Level: HeatmapLevel(count)})
	}
	return cells
}

func copyTimeline(src []domain.TimelineBucket) []domain.TimelineBucket {
	out := make([]domain.TimelineBucket, len(src))
	for i, b := range src {
		counts := make(map[string]int, len(b.Counts))
		for k, v := range b.Counts {
			counts[k] = v
		}
		out[i] = domain.TimelineBucket{Date: b.Date, Counts: counts}
	}
	return out
}

func leaderboard(participants []domain.ParticipantStat) []string {
	sorted := append([]domain.ParticipantStat(nil), participants...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Messages > sorted[j].Messages })
	names := make([]string, len(sorted))
	for i, p := range sorted {
		names[i] = p.Name
	}
	return names
}

func starters(participants []domain.ParticipantStat) []domain.StarterCount {
	out := make([]domain.StarterCount, len(participants))
	for i, p := range participants {
		out[i] = domain.StarterCount{Name: p.Name, Count: p.Starters}
	}
	return out
}

// replyStats возвращает участников с хотя бы одним ответом, самые медленные первыми.
func replyStats(participants []domain.ParticipantStat) []domain.ReplyStat {
	out := make([]domain.ReplyStat, 0, len(participants))
	for _, p := range participants {
		if len(p.ReplySamples) == 0 {
			continue
		}
		out = append(out, domain.ReplyStat{Name: p.Name, AvgMinutes: p.AvgReplyMinutes, Samples: len(p.ReplySamples)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgMinutes > out[j].AvgMinutes })
	return out
}

func totals(participants []domain.ParticipantStat) domain.Totals {
	var t domain.Totals
	for _, p := range participants {
		t.Messages += p.Messages
		t.Words += p.Words
		t.Media += p.Media
		t.Emojis += p.Emojis
		t.Links += p.Links
		t.Deleted += p.Deleted
		t.Edited += p.Edited
	}
	return t
}

func trivia(words, messages, days int) domain.Trivia {
	if days == 0 {
		days = 1
	}
	return domain.Trivia{
		NovelsWritten: float64(words) / wordsPerNovel,
		ReadingHours:  float64(words) / wordsPerMinute / 60,
		DailyAverage:  float64(messages) / float64(days),
	}
}

// award описывает одну номинацию: метрику и шаблон описания.
type award struct {
	key    string
	title  string
	metric func(p domain.ParticipantStat) int
	desc   func(value int) string
}

func fixed(text string) func(int) string {
	return func(int) string { return text }
}

var maxAwards = []award{
	{"yapper", "📢 The Yapper", func(p domain.ParticipantStat) int { return p.Words },
		func(v int) string { return fmt.Sprintf("Sent %d words total.", v) }},
	{"night_owl", "🦉 Night Owl", func(p domain.ParticipantStat) int { return p.NightOwl },
		fixed("Most active between 12 AM - 5 AM.")},
	{"instigator", "🧨 Instigator", func(p domain.ParticipantStat) int { return p.Starters },
		fixed("Revives dead chats after hours of silence.")},
	{"media_mogul", "📸 Media Mogul", func(p domain.ParticipantStat) int { return p.Media },
		fixed("Spams photos and videos the most.")},
	{"double_texter", "📱 Double Texter", func(p domain.ParticipantStat) int { return p.DoubleTexts },
		fixed("Sends multiple messages in a row.")},
	{"novelist", "📜 Novelist", func(p domain.ParticipantStat) int { return p.LongestMessage },
		fixed("Wrote the single longest text message.")},
	{"laughing_stock", "😂 Laughing Stock", func(p domain.ParticipantStat) int { return p.LaughCount },
		fixed("Uses 'haha', 'lol', 'rofl' the most.")},
	{"apologist", "🥺 The Apologist", func(p domain.ParticipantStat) int { return p.SorryCount },
		fixed("Says 'sorry' way too much.")},
	{"link_lord", "🔗 Link Lord", func(p domain.ParticipantStat) int { return p.Links },
		fixed("Shares the most URLs.")},
}

// buildAwards вычисляет десять номинаций. При равенстве побеждает участник,
// стоящий раньше в списке выбранных.
func buildAwards(participants []domain.ParticipantStat) []domain.Award {
	awards := make([]domain.Award, 0, len(maxAwards)+1)
	awards = append(awards, ghostAward(participants))

	for _, a := range maxAwards {
		winner := domain.Award{Key: a.key, Title: a.title, Winner: noWinner, Description: a.desc(0)}
		best := -1
		for _, p := range participants {
			if v := a.metric(p); v > best {
				best = v
				winner.Winner = p.Name
				winner.Value = float64(v)
				winner.Description = a.desc(v)
			}
		}
		awards = append(awards, winner)
	}
	return awards
}

// ghostAward выбирает участника с минимальным средним временем ответа среди тех,
// кто отвечал хотя бы раз.
func ghostAward(participants []domain.ParticipantStat) domain.Award {
	ghost := domain.Award{Key: "ghost", Title: "👻 The Ghost", Winner: noWinner, Description: "Takes ~0m to reply."}
	found := false
	for _, p := range participants {
		if len(p.ReplySamples) == 0 {
			continue
		}
		if !found || p.AvgReplyMinutes < ghost.Value {
			found = true
			ghost.Winner = p.Name
			ghost.Value = p.AvgReplyMinutes
		}
	}
	if found {
		ghost.Description = fmt.Sprintf("Takes ~%.0fm to reply.", ghost.Value)
	}
	return ghost
}
