package services

import (
	"sort"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

const dateLayout = "2006-01-02"

// civilDay возвращает номер календарного дня t в его собственном часовом поясе.
// Номера соседних дат отличаются ровно на единицу независимо от перехода на летнее время.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func dayKey(day int64) string {
	return time.Unix(day*86400, 0).UTC().Format(dateLayout)
}

// computeStreaks считает самую длинную серию подряд идущих активных дней и
// текущую серию, которая учитывается, только если последний активный день
// сегодня или вчера.
func computeStreaks(active map[int64]struct{}, today int64) domain.Streaks {
	if len(active) == 0 {
		return domain.Streaks{}
	}
	days := make([]int64, 0, len(active))
	for d := range active {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	var streaks domain.Streaks
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			run++
			continue
		}
		streaks.Longest = max(streaks.Longest, run)
		run = 1
	}
	streaks.Longest = max(streaks.Longest, run)

	if today-days[len(days)-1] <= 1 {
		streaks.Current = run
	}
	return streaks
}
