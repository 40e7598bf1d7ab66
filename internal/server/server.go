package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/metrics"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/server/usecase"
)

// taskTTL определяет, сколько хранится запись о задаче.
const taskTTL = 24 * time.Hour

// ChatProcessor определяет интерфейс варианта использования, который разбирает и анализирует чаты.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, filePath string) (*usecase.ChatSummary, error)
	ProcessByHash(ctx context.Context, hash string) (*usecase.ChatSummary, error)
	Analyze(ctx context.Context, hash string, opts domain.AnalysisOptions) (*domain.Report, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server

	cfg            *config.Config
	taskStore      *TaskStore
	processor      ChatProcessor
	limiter        *UploadLimiter
	metrics        metrics.MetricsCollector
	metricsHandler http.Handler
	log            *slog.Logger
}

// Option настраивает Server.
type Option func(*Server)

// WithMetrics задает сборщик метрик задач.
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMetricsHandler публикует обработчик метрик на /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New создает новый экземпляр Server
func New(cfg *config.Config, processor ChatProcessor, taskStore *TaskStore, opts ...Option) (*Server, error) {
	if cfg == nil || processor == nil || taskStore == nil {
		return nil, errors.New("конфигурация, обработчик и хранилище задач обязательны")
	}

	s := &Server{
		cfg:       cfg,
		taskStore: taskStore,
		processor: processor,
		metrics:   metrics.NopCollector{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Server.UploadRatePerMinute > 0 {
		s.limiter = NewUploadLimiter(cfg.Server.UploadRatePerMinute, cfg.Server.UploadBurst)
	}

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Промежуточное ПО
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware)
			}
			r.Post("/process", s.handleProcess)
		})
		r.Post("/process-by-hash", s.handleProcessByHash)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tasks":  s.taskStore.CountByStatus(),
	})
}

// handleProcess принимает файл экспорта (txt или zip) в поле формы "file".
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "файл превышает допустимый размер")
			return
		}
		writeError(w, http.StatusBadRequest, "не удалось разобрать форму")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "не удалось получить файл из формы")
		return
	}
	defer file.Close()

	out, err := os.CreateTemp("", "chat_*.upload")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "не удалось создать временный файл")
		return
	}
	tempFilePath := out.Name()
	_, copyErr := io.Copy(out, file)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tempFilePath)
		writeError(w, http.StatusInternalServerError, "не удалось сохранить загруженный файл")
		return
	}

	taskID := uuid.NewString()
	s.log.Info("Получен файл", "task_id", taskID, "filename", header.Filename, "size", header.Size)
	s.startTask(taskID, func(ctx context.Context) (*usecase.ChatSummary, error) {
		defer os.Remove(tempFilePath)
		return s.processor.ProcessChat(ctx, tempFilePath)
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleProcessByHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "не удалось декодировать тело запроса")
		return
	}
	if req.Hash == "" {
		writeError(w, http.StatusBadRequest, "требуется хеш")
		return
	}

	taskID := uuid.NewString()
	s.startTask(taskID, func(ctx context.Context) (*usecase.ChatSummary, error) {
		return s.processor.ProcessByHash(ctx, req.Hash)
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// startTask создает задачу и выполняет run в отдельной горутине с таймаутом из конфигурации.
func (s *Server) startTask(taskID string, run func(ctx context.Context) (*usecase.ChatSummary, error)) {
	s.taskStore.CreateTask(taskID, taskTTL)
	s.metrics.RecordTask(string(TaskStatusPending))

	go func() {
		s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

		ctx := context.Background()
		if s.cfg.Processing.TaskTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.Processing.TaskTimeout)
			defer cancel()
		}

		summary, err := run(ctx)
		if err != nil {
			s.log.Warn("Задача завершилась с ошибкой", "task_id", taskID, "error", err)
			s.taskStore.UpdateTaskError(taskID, err.Error())
			s.metrics.RecordTask(string(TaskStatusFailed))
			return
		}
		s.taskStore.UpdateTaskResult(taskID, summary)
		s.metrics.RecordTask(string(TaskStatusCompleted))
		s.log.Info("Задача выполнена", "task_id", taskID, "hash", summary.Hash, "messages", summary.MessageCount)
	}()
}

// taskStatusResponse описывает ответ о состоянии задачи.
type taskStatusResponse struct {
	TaskID       string             `json:"task_id"`
	Status       TaskStatus         `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	ChatHash     string             `json:"chat_hash,omitempty"`
	Participants []string           `json:"participants,omitempty"`
	MessageCount int                `json:"message_count"`
	ParseStats   *domain.ParseStats `json:"parse_stats,omitempty"`
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "задача не найдена")
		return
	}

	resp := taskStatusResponse{
		TaskID:       task.ID,
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage,
	}
	if task.Summary != nil {
		resp.ChatHash = task.Summary.Hash
		resp.Participants = task.Summary.Participants
		resp.MessageCount = task.Summary.MessageCount
		resp.ParseStats = &task.Summary.ParseStats
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTaskResult строит отчет по чату задачи с параметрами
// window, participant (повторяемый), participants (через запятую) и word_length.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "задача не найдена")
		return
	}
	if task.Status != TaskStatusCompleted || task.Summary == nil {
		writeError(w, http.StatusBadRequest, "задача не завершена")
		return
	}

	opts, err := s.analysisOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.processor.Analyze(r.Context(), task.Summary.Hash, opts)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, exporter.ResultEnvelope{HasData: true, Report: report})
	case errors.Is(err, domain.ErrNoData):
		writeJSON(w, http.StatusOK, exporter.ResultEnvelope{HasData: false})
	case errors.Is(err, usecase.ErrChatNotFound):
		writeError(w, http.StatusGone, "разобранный чат удален из кеша, загрузите файл повторно")
	case errors.Is(err, domain.ErrInvalidWindow), errors.Is(err, domain.ErrInvalidWordLength):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("Не удалось построить отчет", "task_id", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "не удалось построить отчет")
	}
}

// analysisOptions читает параметры анализа из запроса; отсутствующие берутся из конфигурации.
func (s *Server) analysisOptions(r *http.Request) (domain.AnalysisOptions, error) {
	q := r.URL.Query()

	windowParam := q.Get("window")
	if windowParam == "" {
		windowParam = s.cfg.Analysis.DefaultWindow
	}
	window, err := domain.ParseWindow(windowParam)
	if err != nil {
		return domain.AnalysisOptions{}, err
	}

	wordLength := s.cfg.Analysis.DefaultWordLength
	if v := q.Get("word_length"); v != "" {
		wordLength, err = strconv.Atoi(v)
		if err != nil || wordLength < 0 {
			return domain.AnalysisOptions{}, domain.ErrInvalidWordLength
		}
	}

	return domain.AnalysisOptions{
		Window:       window,
		Participants: participantsFromQuery(q),
		WordLength:   domain.VocabMode(wordLength),
	}, nil
}

// participantsFromQuery собирает участников из повторяемого participant
// (имя целиком, допускает запятые) и списка participants через запятую.
func participantsFromQuery(q url.Values) []string {
	var participants []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name = strings.TrimSpace(name); name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		participants = append(participants, name)
	}

	for _, name := range q["participant"] {
		add(name)
	}
	for _, list := range q["participants"] {
		for _, name := range strings.Split(list, ",") {
			add(name)
		}
	}
	return participants
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// StartCleanup запускает периодическую очистку просроченных задач и
// лимитеров неактивных клиентов до отмены ctx.
func (s *Server) StartCleanup(ctx context.Context, interval time.Duration) {
	s.taskStore.StartCleanupTicker(ctx, interval)
	if s.limiter == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.limiter.Cleanup(2 * interval); n > 0 {
					s.log.Debug("Удалены лимитеры неактивных клиентов", "count", n)
				}
			}
		}
	}()
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}
