package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whatsapp-chat-analyzer/cmd/bot/config"
	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/domain"
)

const (
	startCommand  = "start"
	helpCommand   = "help"
	statusCommand = "status"

	// maxMessageLength - предел длины текстового сообщения Telegram.
	maxMessageLength = 4096
)

const helpText = "Отправьте мне экспорт чата WhatsApp: файл .txt или архив .zip " +
	"(«Экспорт чата» в меню чата, можно без медиафайлов).\n\n" +
	"В подписи к файлу можно указать период: week, month, year или all.\n\n" +
	"• Я обрабатываю один файл за раз, /status покажет текущую задачу.\n" +
	"• Файлы не сохраняются на сервере и обрабатываются на лету."

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.BotConfig
	serverClient ServerAPI
	taskStore    *TaskStore
	logger       *slog.Logger
	httpClient   *http.Client

	// Подменяются в тестах.
	sendMessageFunc      func(msg tgbotapi.Chattable) (tgbotapi.Message, error)
	getFileDirectURLFunc func(fileID string) (string, error)
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, serverClient ServerAPI, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	return &Bot{
		api:                  api,
		cfg:                  cfg,
		serverClient:         serverClient,
		taskStore:            taskStore,
		logger:               logger,
		httpClient:           &http.Client{Timeout: cfg.HTTPTimeout},
		sendMessageFunc:      api.Send,
		getFileDirectURLFunc: api.GetFileDirectURL,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.reply(msg.Chat.ID, "Пожалуйста, отправьте мне файл экспорта чата WhatsApp (.txt или .zip).")
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand:
		b.reply(msg.Chat.ID, "Добро пожаловать! Я собираю статистику по чатам WhatsApp.\n\n"+helpText)
	case helpCommand:
		b.reply(msg.Chat.ID, helpText)
	case statusCommand:
		b.reply(msg.Chat.ID, b.statusText(msg.Chat.ID))
	default:
		b.reply(msg.Chat.ID, "Я не знаю такой команды.")
	}
}

func (b *Bot) statusText(chatID int64) string {
	task, ok := b.taskStore.Active(chatID)
	if !ok {
		return "Активных задач нет. Отправьте файл экспорта, чтобы начать."
	}
	elapsed := time.Since(task.StartedAt).Round(time.Second)
	if task.TaskID == "" {
		return fmt.Sprintf("Файл передается на сервер (%s).", elapsed)
	}
	return fmt.Sprintf("Задача %s обрабатывается (%s).", task.TaskID, elapsed)
}

// isSupportedFile сообщает, похоже ли имя файла на экспорт WhatsApp.
func isSupportedFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt", ".zip":
		return true
	}
	return false
}

// handleDocument обрабатывает входящий документ (файл).
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document
	logger := b.logger.With(slog.Int64("chat_id", chatID))

	if !isSupportedFile(doc.FileName) {
		b.reply(chatID, "Я понимаю только экспорт WhatsApp в формате .txt или .zip.")
		return
	}
	if limit := b.cfg.MaxFileSizeMB << 20; limit > 0 && doc.FileSize > limit {
		b.reply(chatID, fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", b.cfg.MaxFileSizeMB))
		return
	}

	window, err := domain.ParseWindow(msg.Caption)
	if err != nil {
		b.reply(chatID, "Не удалось распознать период в подписи. Используйте week, month, year или all.")
		return
	}

	// 1. Занимаем слот чата, чтобы параллельные файлы отклонялись.
	if !b.taskStore.Reserve(chatID) {
		logger.Warn("user tried to start a new task while another is active")
		b.reply(chatID, "Пожалуйста, подождите завершения предыдущей задачи, прежде чем начинать новую.")
		return
	}

	taskID, err := b.uploadDocument(ctx, doc)
	if err != nil {
		b.taskStore.Release(chatID)
		logger.Error("failed to start task", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось начать обработку файла. Пожалуйста, попробуйте позже.")
		return
	}

	logger = logger.With(slog.String("task_id", taskID))
	logger.Info("task started on backend", slog.String("window", string(window)))

	b.taskStore.Assign(chatID, taskID)
	go b.pollTaskStatus(context.Background(), chatID, taskID, window)

	b.reply(chatID, "✅ Файл получен и поставлен в очередь на обработку. Ожидайте результата.")
}

// uploadDocument скачивает файл из Telegram и передает его бэкенду.
func (b *Bot) uploadDocument(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	fileURL, err := b.getFileDirectURLFunc(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file direct url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	startResp, err := b.serverClient.StartTask(ctx, DocumentFile{Name: doc.FileName, Content: resp.Body})
	if err != nil {
		return "", fmt.Errorf("failed to start task on backend: %w", err)
	}
	return startResp.TaskID, nil
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sendMessageFunc(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// pollTaskStatus асинхронно опрашивает статус задачи на бэкенд-сервере.
// Опрос прекращается по PollTimeout или после MaxPollErrors ошибок подряд,
// слот чата при этом освобождается.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string, window domain.Window) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Release(chatID)

	if b.cfg.PollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.PollTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(b.cfg.PollingInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Warn("polling timed out", slog.Duration("timeout", b.cfg.PollTimeout))
				b.reply(chatID, "Сервер слишком долго обрабатывает файл. Попробуйте отправить его позже.")
				return
			}
			logger.Warn("polling cancelled by context")
			return
		case <-ticker.C:
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if err != nil {
				logger.Error("failed to get task status", slog.String("error", err.Error()))
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
					b.reply(chatID, "Задача потеряна сервером. Отправьте файл еще раз.")
					return
				}
				failures++
				if b.cfg.MaxPollErrors > 0 && failures >= b.cfg.MaxPollErrors {
					logger.Warn("polling aborted after repeated errors", slog.Int("failures", failures))
					b.reply(chatID, "Сервер анализа недоступен. Попробуйте отправить файл позже.")
					return
				}
				continue
			}
			failures = 0

			switch status.Status {
			case "completed":
				logger.Info("task completed", slog.Int("messages", status.MessageCount))
				b.processCompletedTask(ctx, chatID, taskID, window)
				return
			case "failed":
				logger.Warn("task failed", slog.String("reason", status.ErrorMessage))
				b.reply(chatID, fmt.Sprintf("Произошла ошибка при обработке файла: %s", status.ErrorMessage))
				return
			case "pending", "processing":
				logger.Debug("task is in progress", slog.String("status", status.Status))
			default:
				logger.Warn("unknown task status", slog.String("status", status.Status))
			}
		}
	}
}

// processCompletedTask получает отчет и отправляет его пользователю.
func (b *Bot) processCompletedTask(ctx context.Context, chatID int64, taskID string, window domain.Window) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))

	result, err := b.serverClient.GetTaskResult(ctx, taskID, ResultQuery{Window: string(window)})
	if err != nil {
		logger.Error("failed to fetch report", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось получить результаты для выполненной задачи. Пожалуйста, попробуйте позже.")
		return
	}

	if !result.HasData || result.Report == nil {
		b.reply(chatID, "В выбранном периоде нет сообщений.")
		return
	}

	report := result.Report
	if len(report.Participants) >= b.cfg.ExcelThreshold {
		logger.Info("participant count is over threshold, sending excel file", slog.Int("participants", len(report.Participants)))
		b.sendExcelResult(chatID, report)
		return
	}
	b.sendTextResult(chatID, report)
}

func (b *Bot) sendExcelResult(chatID int64, report *domain.Report) {
	f, err := exporter.BuildWorkbook(report)
	if err != nil {
		b.logger.Error("failed to build workbook", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось сгенерировать Excel-файл.")
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			b.logger.Error("failed to close excel file", slog.String("error", err.Error()))
		}
	}()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		b.logger.Error("failed to write excel to buffer", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось сгенерировать Excel-файл.")
		return
	}

	fileName := fmt.Sprintf("chat_report_%s.xlsx", report.GeneratedAt.Format("2006-01-02_15-04-05"))
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: buf.Bytes()})
	msg.Caption = fmt.Sprintf("Анализ завершен: %d сообщений, %d участников.", report.TotalMessages, len(report.Participants))
	b.sendMessage(msg)
}

// sendTextResult отправляет сводку моноширинным блоком HTML, а слишком
// длинную сводку прикладывает текстовым файлом.
func (b *Bot) sendTextResult(chatID int64, report *domain.Report) {
	summary := strings.ToValidUTF8(exporter.RenderSummary(report, b.cfg.Render), "")
	text := "<pre><code>" + html.EscapeString(summary) + "</code></pre>"

	if len(text) > maxMessageLength {
		b.logger.Warn("сгенерированный текст слишком длинный, отправка в виде файла", "length", len(text))
		b.sendResultAsTextFile(chatID, report, summary)
		return
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(reply)
}

// sendResultAsTextFile отправляет сводку в виде текстового файла.
func (b *Bot) sendResultAsTextFile(chatID int64, report *domain.Report, summary string) {
	fileName := fmt.Sprintf("chat_report_%s.txt", report.GeneratedAt.Format("2006-01-02_15-04-05"))
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: []byte(summary)})
	msg.Caption = fmt.Sprintf("Анализ завершен: %d сообщений. Сводка слишком большая для одного сообщения, поэтому она прикреплена в виде файла.", report.TotalMessages)
	b.sendMessage(msg)
}
