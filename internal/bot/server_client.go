package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/domain"
)

// ServerAPI описывает операции бэкенда, которыми пользуется бот.
type ServerAPI interface {
	StartTask(ctx context.Context, file DocumentFile) (*StartTaskResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error)
	GetTaskResult(ctx context.Context, taskID string, query ResultQuery) (*exporter.ResultEnvelope, error)
}

// ServerClient - клиент для взаимодействия с API бэкенд-сервера.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	return &ServerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout, // Общий таймаут для запросов
		},
	}
}

// API-ответы
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID       string             `json:"task_id"`
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	ChatHash     string             `json:"chat_hash,omitempty"`
	Participants []string           `json:"participants,omitempty"`
	MessageCount int                `json:"message_count"`
	ParseStats   *domain.ParseStats `json:"parse_stats,omitempty"`
}

// ResultQuery задает параметры анализа. Пустые поля означают значения сервера по умолчанию.
type ResultQuery struct {
	Window       string
	Participants []string
	WordLength   *int
}

func (q ResultQuery) encode() string {
	v := url.Values{}
	if q.Window != "" {
		v.Set("window", q.Window)
	}
	for _, name := range q.Participants {
		v.Add("participant", name)
	}
	if q.WordLength != nil {
		v.Set("word_length", strconv.Itoa(*q.WordLength))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// DocumentFile представляет файл для загрузки.
type DocumentFile struct {
	Name    string
	Content io.Reader
}

// StartTask отправляет файл экспорта на сервер для начала обработки.
func (c *ServerClient) StartTask(ctx context.Context, file DocumentFile) (*StartTaskResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file for %s: %w", file.Name, err)
	}
	if _, err = io.Copy(fw, file.Content); err != nil {
		return nil, fmt.Errorf("failed to copy file content for %s: %w", file.Name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/process", &b)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result StartTaskResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health проверяет доступность бэкенда.
func (c *ServerClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(req, http.StatusOK, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("backend status %q", body.Status)
	}
	return nil
}

// ProcessByHash запускает задачу по хешу ранее загруженного файла.
func (c *ServerClient) ProcessByHash(ctx context.Context, hash string) (*StartTaskResponse, error) {
	body, err := json.Marshal(map[string]string{"hash": hash})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/process-by-hash", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result StartTaskResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result TaskStatusResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskResult запрашивает отчет по выполненной задаче.
func (c *ServerClient) GetTaskResult(ctx context.Context, taskID string, query ResultQuery) (*exporter.ResultEnvelope, error) {
	target := c.baseURL + "/api/v1/tasks/" + url.PathEscape(taskID) + "/result" + query.encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result exporter.ResultEnvelope
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// APIError описывает ответ сервера с неожиданным статусом.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
}

func (c *ServerClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
