package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-chat-analyzer/cmd/bot/config"
	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/domain"
)

// mockServerClient - мок для ServerAPI.
type mockServerClient struct {
	mu            sync.Mutex
	startTaskFunc func(ctx context.Context, file DocumentFile) (*StartTaskResponse, error)
	statuses      []string
	statusErr     error
	statusCalls   int
	result        *exporter.ResultEnvelope
	resultErr     error
	queries       []ResultQuery
}

func (m *mockServerClient) StartTask(ctx context.Context, file DocumentFile) (*StartTaskResponse, error) {
	if m.startTaskFunc != nil {
		return m.startTaskFunc(ctx, file)
	}
	return &StartTaskResponse{TaskID: "mock-task-id"}, nil
}

func (m *mockServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	status := "completed"
	if len(m.statuses) > 0 {
		status, m.statuses = m.statuses[0], m.statuses[1:]
	}
	return &TaskStatusResponse{TaskID: taskID, Status: status, ErrorMessage: "broken file"}, nil
}

func (m *mockServerClient) GetTaskResult(ctx context.Context, taskID string, query ResultQuery) (*exporter.ResultEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.resultErr != nil {
		return nil, m.resultErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &exporter.ResultEnvelope{}, nil
}

// sentRecorder собирает отправленные ботом сообщения.
type sentRecorder struct {
	mu   sync.Mutex
	msgs []tgbotapi.Chattable
}

func (r *sentRecorder) send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return tgbotapi.Message{}, nil
}

func (r *sentRecorder) all() []tgbotapi.Chattable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), r.msgs...)
}

func (r *sentRecorder) texts() []string {
	var out []string
	for _, m := range r.all() {
		if mc, ok := m.(tgbotapi.MessageConfig); ok {
			out = append(out, mc.Text)
		}
	}
	return out
}

func testConfig() config.BotConfig {
	return config.BotConfig{
		PollingInterval: 10 * time.Millisecond,
		PollTimeout:     5 * time.Second,
		MaxPollErrors:   3,
		ExcelThreshold:  5,
		MaxFileSizeMB:   1,
		Render:          exporter.DefaultWidths,
	}
}

// newTestBot создает бота с моками для тестирования.
func newTestBot(t *testing.T, cfg config.BotConfig, serverClient ServerAPI) (*Bot, *sentRecorder) {
	t.Helper()
	rec := &sentRecorder{}
	bot := &Bot{
		cfg:                  cfg,
		serverClient:         serverClient,
		taskStore:            NewTaskStore(),
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		httpClient:           http.DefaultClient,
		sendMessageFunc:      rec.send,
		getFileDirectURLFunc: func(fileID string) (string, error) { return "", errors.New("not configured") },
	}
	return bot, rec
}

func testReport(participants int) *domain.Report {
	report := &domain.Report{TotalMessages: 10, GeneratedAt: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)}
	for i := 0; i < participants; i++ {
		report.Participants = append(report.Participants, domain.ParticipantStat{Name: string(rune('A' + i)), Messages: 1})
	}
	return report
}

func documentMessage(chatID int64, name, caption string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Caption:  caption,
		Document: &tgbotapi.Document{FileID: "file-" + name, FileName: name, FileSize: 100},
	}
}

func TestBot_HandleDocument(t *testing.T) {
	ctx := context.Background()

	// Тестовый сервер имитирует файловое хранилище Telegram.
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("12/03/2024, 10:00 - Alice: hi\n"))
	}))
	defer fileServer.Close()

	t.Run("файл передается бэкенду и опрос доставляет отчет", func(t *testing.T) {
		uploaded := make(chan string, 1)
		client := &mockServerClient{
			startTaskFunc: func(ctx context.Context, file DocumentFile) (*StartTaskResponse, error) {
				data, err := io.ReadAll(file.Content)
				require.NoError(t, err)
				uploaded <- file.Name + ":" + string(data)
				return &StartTaskResponse{TaskID: "task-1"}, nil
			},
			statuses: []string{"pending", "processing", "completed"},
			result:   &exporter.ResultEnvelope{HasData: true, Report: testReport(2)},
		}
		bot, rec := newTestBot(t, testConfig(), client)
		bot.getFileDirectURLFunc = func(fileID string) (string, error) { return fileServer.URL + "/" + fileID, nil }

		bot.handleDocument(ctx, documentMessage(1, "WhatsApp Chat.txt", "month"))

		assert.Equal(t, "WhatsApp Chat.txt:12/03/2024, 10:00 - Alice: hi\n", <-uploaded)
		require.Eventually(t, func() bool {
			_, active := bot.taskStore.Active(1)
			return !active
		}, time.Second, 10*time.Millisecond)

		msgs := rec.all()
		require.Len(t, msgs, 2)
		assert.Contains(t, msgs[0].(tgbotapi.MessageConfig).Text, "поставлен в очередь")
		result := msgs[1].(tgbotapi.MessageConfig)
		assert.Equal(t, tgbotapi.ModeHTML, result.ParseMode)
		assert.True(t, strings.HasPrefix(result.Text, "<pre><code>"))
		assert.Contains(t, result.Text, "Messages: 10")

		require.Len(t, client.queries, 1)
		assert.Equal(t, "month", client.queries[0].Window)
	})

	t.Run("отклоняет файл, если задача уже выполняется", func(t *testing.T) {
		bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
		bot.taskStore.Reserve(789)
		bot.taskStore.Assign(789, "some-active-task-id")

		bot.handleDocument(ctx, documentMessage(789, "chat.zip", ""))

		texts := rec.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "Пожалуйста, подождите завершения предыдущей задачи")
	})

	t.Run("неподдерживаемый формат", func(t *testing.T) {
		bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
		bot.handleDocument(ctx, documentMessage(5, "result.json", ""))

		texts := rec.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], ".txt или .zip")
	})

	t.Run("слишком большой файл", func(t *testing.T) {
		bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
		msg := documentMessage(5, "chat.txt", "")
		msg.Document.FileSize = 2 << 20

		bot.handleDocument(ctx, msg)
		assert.Contains(t, rec.texts()[0], "слишком большой")
	})

	t.Run("неизвестный период в подписи", func(t *testing.T) {
		bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
		bot.handleDocument(ctx, documentMessage(5, "chat.txt", "decade"))
		assert.Contains(t, rec.texts()[0], "период")
	})

	t.Run("ошибка бэкенда освобождает слот", func(t *testing.T) {
		client := &mockServerClient{
			startTaskFunc: func(ctx context.Context, file DocumentFile) (*StartTaskResponse, error) {
				return nil, &APIError{StatusCode: http.StatusTooManyRequests}
			},
		}
		bot, rec := newTestBot(t, testConfig(), client)
		bot.getFileDirectURLFunc = func(fileID string) (string, error) { return fileServer.URL, nil }

		bot.handleDocument(ctx, documentMessage(6, "chat.txt", ""))

		_, active := bot.taskStore.Active(6)
		assert.False(t, active)
		assert.Contains(t, rec.texts()[0], "Не удалось начать обработку")
	})
}

func TestBot_PollTaskStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("ошибка задачи", func(t *testing.T) {
		client := &mockServerClient{statuses: []string{"processing", "failed"}}
		bot, rec := newTestBot(t, testConfig(), client)
		bot.taskStore.Reserve(1)
		bot.taskStore.Assign(1, "task-1")

		bot.pollTaskStatus(ctx, 1, "task-1", domain.WindowAll)

		texts := rec.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "broken file")
		_, active := bot.taskStore.Active(1)
		assert.False(t, active)
	})

	t.Run("отмена контекста", func(t *testing.T) {
		bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		bot.pollTaskStatus(cancelled, 1, "task-1", domain.WindowAll)
		assert.Empty(t, rec.all())
	})

	t.Run("бэкенд постоянно отвечает 500", func(t *testing.T) {
		client := &mockServerClient{statusErr: &APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}}
		bot, rec := newTestBot(t, testConfig(), client)
		bot.taskStore.Reserve(1)
		bot.taskStore.Assign(1, "task-1")

		bot.pollTaskStatus(ctx, 1, "task-1", domain.WindowAll)

		assert.Equal(t, []string{"Сервер анализа недоступен. Попробуйте отправить файл позже."}, rec.texts())
		assert.Equal(t, 3, client.statusCalls)
		_, active := bot.taskStore.Active(1)
		assert.False(t, active, "слот чата должен освободиться")
		assert.True(t, bot.taskStore.Reserve(1))
	})

	t.Run("истек срок ожидания", func(t *testing.T) {
		cfg := testConfig()
		cfg.PollTimeout = 50 * time.Millisecond
		client := &mockServerClient{}
		for i := 0; i < 100; i++ {
			client.statuses = append(client.statuses, "processing")
		}
		bot, rec := newTestBot(t, cfg, client)
		bot.taskStore.Reserve(1)
		bot.taskStore.Assign(1, "task-1")

		bot.pollTaskStatus(ctx, 1, "task-1", domain.WindowAll)

		texts := rec.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "слишком долго")
		_, active := bot.taskStore.Active(1)
		assert.False(t, active)
	})
}

func TestBot_ProcessCompletedTask(t *testing.T) {
	ctx := context.Background()

	t.Run("нет данных", func(t *testing.T) {
		client := &mockServerClient{result: &exporter.ResultEnvelope{HasData: false}}
		bot, rec := newTestBot(t, testConfig(), client)

		bot.processCompletedTask(ctx, 1, "task-1", domain.WindowWeek)
		assert.Equal(t, []string{"В выбранном периоде нет сообщений."}, rec.texts())
	})

	t.Run("Excel при большом числе участников", func(t *testing.T) {
		client := &mockServerClient{result: &exporter.ResultEnvelope{HasData: true, Report: testReport(5)}}
		bot, rec := newTestBot(t, testConfig(), client)

		bot.processCompletedTask(ctx, 1, "task-1", domain.WindowAll)

		msgs := rec.all()
		require.Len(t, msgs, 1)
		doc, ok := msgs[0].(tgbotapi.DocumentConfig)
		require.True(t, ok)
		file, ok := doc.File.(tgbotapi.FileBytes)
		require.True(t, ok)
		assert.Equal(t, "chat_report_2024-03-20_12-00-00.xlsx", file.Name)
		assert.Equal(t, []byte("PK"), file.Bytes[:2])
	})

	t.Run("длинная сводка уходит файлом", func(t *testing.T) {
		report := testReport(4)
		for i := 0; i < 300; i++ {
			report.TopWords = append(report.TopWords, domain.FrequencyEntry{Key: strings.Repeat("w", 20) + string(rune('a'+i%26)), Total: 1})
		}
		cfg := testConfig()
		cfg.ExcelThreshold = 100
		client := &mockServerClient{result: &exporter.ResultEnvelope{HasData: true, Report: report}}
		bot, rec := newTestBot(t, cfg, client)

		bot.sendTextResult(1, report)

		msgs := rec.all()
		require.Len(t, msgs, 1)
		doc, ok := msgs[0].(tgbotapi.DocumentConfig)
		require.True(t, ok, "ожидался документ, получено %T", msgs[0])
		file := doc.File.(tgbotapi.FileBytes)
		assert.True(t, strings.HasSuffix(file.Name, ".txt"))
		assert.NotContains(t, string(file.Bytes), "<pre>")
	})

	t.Run("имена экранируются", func(t *testing.T) {
		report := testReport(0)
		report.Participants = []domain.ParticipantStat{{Name: "<b>Eve</b>", Messages: 3}}
		bot, rec := newTestBot(t, testConfig(), &mockServerClient{})

		bot.sendTextResult(1, report)

		text := rec.texts()[0]
		assert.NotContains(t, text, "<b>")
		assert.Contains(t, text, "&lt;b&gt;")
	})

	t.Run("ошибка получения отчета", func(t *testing.T) {
		client := &mockServerClient{resultErr: &APIError{StatusCode: http.StatusGone}}
		bot, rec := newTestBot(t, testConfig(), client)

		bot.processCompletedTask(ctx, 1, "task-1", domain.WindowAll)
		assert.Contains(t, rec.texts()[0], "Не удалось получить результаты")
	})
}

func TestBot_HandleCommand(t *testing.T) {
	bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
	for _, cmd := range []string{"/start", "/help", "/unknown"} {
		msg := &tgbotapi.Message{
			Chat:     &tgbotapi.Chat{ID: 1},
			Text:     cmd,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		}
		bot.handleMessage(context.Background(), msg)
	}

	texts := rec.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Добро пожаловать")
	assert.Contains(t, texts[1], ".zip")
	assert.Equal(t, "Я не знаю такой команды.", texts[2])
}

func TestTaskStore(t *testing.T) {
	s := NewTaskStore()
	started := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return started }

	assert.True(t, s.Reserve(1))
	assert.False(t, s.Reserve(1), "второй файл в тот же чат отклоняется")
	assert.True(t, s.Reserve(2))

	task, ok := s.Active(1)
	require.True(t, ok)
	assert.Empty(t, task.TaskID)
	assert.Equal(t, started, task.StartedAt)

	s.Assign(1, "task")
	task, _ = s.Active(1)
	assert.Equal(t, "task", task.TaskID)
	assert.Equal(t, started, task.StartedAt, "Assign не сбрасывает время начала")
	assert.Equal(t, 2, s.Len())

	s.Release(1)
	_, ok = s.Active(1)
	assert.False(t, ok)
	assert.True(t, s.Reserve(1))
}

func TestBot_StatusCommand(t *testing.T) {
	bot, rec := newTestBot(t, testConfig(), &mockServerClient{})
	send := func() {
		bot.handleMessage(context.Background(), &tgbotapi.Message{
			Chat:     &tgbotapi.Chat{ID: 7},
			Text:     "/status",
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}},
		})
	}

	send()
	bot.taskStore.Reserve(7)
	send()
	bot.taskStore.Assign(7, "task-42")
	send()

	texts := rec.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Активных задач нет")
	assert.Contains(t, texts[1], "передается на сервер")
	assert.Contains(t, texts[2], "task-42")
}
