package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-chat-analyzer/internal/domain"
)

func TestWindowStart(t *testing.T) {
	testCases := []struct {
		window domain.Window
		want   time.Time
	}{
		{domain.WindowAll, time.Time{}},
		{domain.WindowWeek, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC)},
		{domain.WindowMonth, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{domain.WindowYear, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(string(tc.window), func(t *testing.T) {
			assert.True(t, tc.want.Equal(WindowStart(tc.window, testNow)), "получено %v", WindowStart(tc.window, testNow))
		})
	}

	t.Run("неделя в воскресенье начинается сегодня", func(t *testing.T) {
		sunday := time.Date(2024, time.March, 17, 23, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC), WindowStart(domain.WindowWeek, sunday))
	})

	t.Run("неделя через границу месяца", func(t *testing.T) {
		tuesday := time.Date(2024, time.April, 2, 8, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), WindowStart(domain.WindowWeek, tuesday))
	})
}

func TestFilter(t *testing.T) {
	messages := []domain.Message{
		newMsg("Alice", time.Date(2023, time.December, 31, 10, 0, 0, 0, time.UTC), "old"),
		newMsg("Bob", at(1, 0, 0), "month start"),
		newMsg("Alice", at(16, 23, 59), "before week"),
		newMsg("Carol", at(17, 0, 0), "week start"),
		newMsg("Alice", at(20, 11, 0), "today"),
	}
	all := []string{"Alice", "Bob", "Carol"}
	svc := NewFilterService()

	t.Run("окна", func(t *testing.T) {
		assert.Len(t, svc.Filter(messages, domain.WindowAll, all, testNow), 5)
		assert.Len(t, svc.Filter(messages, domain.WindowYear, all, testNow), 4)
		assert.Len(t, svc.Filter(messages, domain.WindowMonth, all, testNow), 4)

		week := svc.Filter(messages, domain.WindowWeek, all, testNow)
		require.Len(t, week, 2)
		assert.Equal(t, "week start", week[0].Content, "граница окна включается")
		assert.Equal(t, "today", week[1].Content)
	})

	t.Run("участники", func(t *testing.T) {
		out := svc.Filter(messages, domain.WindowAll, []string{"Alice"}, testNow)
		require.Len(t, out, 3)
		for _, m := range out {
			assert.Equal(t, "Alice", m.Sender)
		}
		assert.Empty(t, svc.Filter(messages, domain.WindowAll, nil, testNow))
	})

	t.Run("вход не изменяется", func(t *testing.T) {
		before := append([]domain.Message(nil), messages...)
		out := svc.Filter(messages, domain.WindowWeek, []string{"Carol"}, testNow)
		require.Len(t, out, 1)
		out[0].Sender = "Mallory"
		assert.Equal(t, before, messages)
	})
}
