package services

import (
	"time"

	"github.com/stretchr/testify/mock"

	"whatsapp-chat-analyzer/internal/domain"
)

type mockFilter struct{ mock.Mock }

func (m *mockFilter) Filter(messages []domain.Message, window domain.Window, allowed []string, now time.Time) []domain.Message {
	args := m.Called(messages, window, allowed, now)
	if res := args.Get(0); res != nil {
		return res.([]domain.Message)
	}
	return nil
}

type mockAggregator struct{ mock.Mock }

func (m *mockAggregator) Aggregate(messages []domain.Message, allowed []string, mode domain.VocabMode, now time.Time) (*domain.Aggregate, bool) {
	args := m.Called(messages, allowed, mode, now)
	if res := args.Get(0); res != nil {
		return res.(*domain.Aggregate), args.Bool(1)
	}
	return nil, args.Bool(1)
}

type mockReporter struct{ mock.Mock }

func (m *mockReporter) Build(agg *domain.Aggregate, now time.Time) *domain.Report {
	args := m.Called(agg, now)
	if res := args.Get(0); res != nil {
		return res.(*domain.Report)
	}
	return nil
}
