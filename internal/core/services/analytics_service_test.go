package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whatsapp-chat-analyzer/internal/domain"
)

func sampleChat() *domain.Chat {
	return &domain.Chat{
		Messages: []domain.Message{
			newMsg("Alice", at(1, 10, 0), "hello there"),
			newMsg("Bob", at(18, 10, 5), "general kenobi"),
			newMsg("Alice", at(19, 10, 7), "lol"),
		},
		Participants: []string{"Alice", "Bob"},
	}
}

func TestAnalyze(t *testing.T) {
	svc := NewAnalyticsService(WithClock(func() time.Time { return testNow }))

	t.Run("все участники по умолчанию", func(t *testing.T) {
		report, err := svc.Analyze(sampleChat(), domain.AnalysisOptions{})
		require.NoError(t, err)
		assert.Equal(t, 3, report.TotalMessages)
		require.Len(t, report.Participants, 2)
		assert.Equal(t, "Alice", report.Participants[0].Name)
		assert.True(t, testNow.Equal(report.GeneratedAt))
	})

	t.Run("окно и участники", func(t *testing.T) {
		report, err := svc.Analyze(sampleChat(), domain.AnalysisOptions{
			Window:       domain.WindowWeek,
			Participants: []string{"Alice"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.TotalMessages)
		require.Len(t, report.Participants, 1)
	})

	t.Run("нет данных", func(t *testing.T) {
		_, err := svc.Analyze(sampleChat(), domain.AnalysisOptions{Participants: []string{"Mallory"}})
		assert.ErrorIs(t, err, domain.ErrNoData)

		_, err = svc.Analyze(&domain.Chat{}, domain.AnalysisOptions{})
		assert.ErrorIs(t, err, domain.ErrNoData)

		_, err = svc.Analyze(nil, domain.AnalysisOptions{})
		assert.ErrorIs(t, err, domain.ErrNoData)
	})

	t.Run("некорректные параметры", func(t *testing.T) {
		_, err := svc.Analyze(sampleChat(), domain.AnalysisOptions{Window: "decade"})
		assert.True(t, errors.Is(err, domain.ErrInvalidWindow))

		_, err = svc.Analyze(sampleChat(), domain.AnalysisOptions{WordLength: -1})
		assert.True(t, errors.Is(err, domain.ErrInvalidWordLength))
	})

	t.Run("явный Now важнее часов сервиса", func(t *testing.T) {
		now := at(2, 0, 0)
		report, err := svc.Analyze(sampleChat(), domain.AnalysisOptions{Window: domain.WindowMonth, Now: now})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-02", report.Heatmap[len(report.Heatmap)-1].Date)
	})
}

func TestAnalyze_Stages(t *testing.T) {
	chat := sampleChat()
	filtered := chat.Messages[1:]
	agg := &domain.Aggregate{TotalMessages: 2}
	want := &domain.Report{TotalMessages: 2}

	filter := new(mockFilter)
	aggregator := new(mockAggregator)
	reporter := new(mockReporter)
	filter.On("Filter", chat.Messages, domain.WindowYear, chat.Participants, testNow).Return(filtered).Once()
	aggregator.On("Aggregate", filtered, chat.Participants, domain.VocabMode(4), testNow).Return(agg, true).Once()
	reporter.On("Build", agg, testNow).Return(want).Once()

	svc := NewAnalyticsService(WithStages(filter, aggregator, reporter))
	got, err := svc.Analyze(chat, domain.AnalysisOptions{Window: "YEAR", WordLength: 4, Now: testNow})

	require.NoError(t, err)
	assert.Same(t, want, got)
	filter.AssertExpectations(t)
	aggregator.AssertExpectations(t)
	reporter.AssertExpectations(t)

	t.Run("агрегатор без данных", func(t *testing.T) {
		aggregator := new(mockAggregator)
		aggregator.On("Aggregate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, false).Once()
		reporter := new(mockReporter)

		svc := NewAnalyticsService(WithStages(nil, aggregator, reporter))
		_, err := svc.Analyze(chat, domain.AnalysisOptions{Now: testNow})
		assert.ErrorIs(t, err, domain.ErrNoData)
		reporter.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
	})
}
