package services

import (
	"time"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// FilterServiceImpl реализует интерфейс Filter.
type FilterServiceImpl struct{}

// NewFilterService создает новый экземпляр FilterServiceImpl.
func NewFilterService() ports.Filter {
	return &FilterServiceImpl{}
}

// Filter возвращает сообщения не раньше начала окна от разрешенных отправителей.
// Порядок входной последовательности сохраняется, вход не изменяется.
func (s *FilterServiceImpl) Filter(messages []domain.Message, window domain.Window, allowed []string, now time.Time) []domain.Message {
	boundary := WindowStart(window, now)
	set := senderSet(allowed)

	out := make([]domain.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Timestamp.Before(boundary) {
			continue
		}
		if _, ok := set[msg.Sender]; !ok {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// WindowStart возвращает нижнюю границу окна в часовом поясе now.
// Неделя начинается с воскресенья. Для "all" возвращается нулевое время.
func WindowStart(window domain.Window, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch window {
	case domain.WindowWeek:
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	case domain.WindowMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case domain.WindowYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}
	}
}

func senderSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
