package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"whatsapp-chat-analyzer/internal/server/usecase"
)

var (
	// ErrTaskNotFound возвращается для неизвестного или удаленного идентификатора задачи.
	ErrTaskNotFound = errors.New("задача не найдена")
	// ErrTaskFinished возвращается при попытке изменить завершенную задачу.
	ErrTaskFinished = errors.New("задача уже завершена")
)

// TaskStatus представляет статус задачи обработки
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Finished сообщает, что статус окончательный.
func (s TaskStatus) Finished() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task описывает загрузку чата и ее результат.
type Task struct {
	ID           string
	Status       TaskStatus
	Summary      *usecase.ChatSummary
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// TaskStore хранит задачи в памяти до истечения их срока.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// TaskStoreOption настраивает TaskStore.
type TaskStoreOption func(*TaskStore)

// WithTaskClock задает источник текущего времени.
func WithTaskClock(now func() time.Time) TaskStoreOption {
	return func(ts *TaskStore) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTaskStore создает пустое хранилище задач.
func NewTaskStore(opts ...TaskStoreOption) *TaskStore {
	ts := &TaskStore{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// CreateTask регистрирует задачу в статусе pending.
func (ts *TaskStore) CreateTask(taskID string, ttl time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	ts.tasks[taskID] = &Task{
		ID:        taskID,
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// update применяет изменение к незавершенной задаче.
func (ts *TaskStore) update(taskID string, apply func(*Task)) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	task, ok := ts.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if task.Status.Finished() {
		return fmt.Errorf("%w: %s (%s)", ErrTaskFinished, taskID, task.Status)
	}
	apply(task)
	task.UpdatedAt = ts.now()
	return nil
}

// UpdateTaskStatus переводит задачу в промежуточный статус.
func (ts *TaskStore) UpdateTaskStatus(taskID string, status TaskStatus) error {
	return ts.update(taskID, func(t *Task) { t.Status = status })
}

// UpdateTaskResult сохраняет сводку по чату и завершает задачу.
func (ts *TaskStore) UpdateTaskResult(taskID string, summary *usecase.ChatSummary) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusCompleted
		t.Summary = summary
	})
}

// UpdateTaskError завершает задачу с ошибкой.
func (ts *TaskStore) UpdateTaskError(taskID string, errorMessage string) error {
	return ts.update(taskID, func(t *Task) {
		t.Status = TaskStatusFailed
		t.ErrorMessage = errorMessage
	})
}

// GetTask возвращает копию задачи.
func (ts *TaskStore) GetTask(taskID string) (Task, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	task, ok := ts.tasks[taskID]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return *task, nil
}

// CountByStatus возвращает число хранимых задач в каждом статусе.
func (ts *TaskStore) CountByStatus() map[TaskStatus]int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	counts := make(map[TaskStatus]int, 4)
	for _, task := range ts.tasks {
		counts[task.Status]++
	}
	return counts
}

// CleanupExpired удаляет просроченные задачи и возвращает их количество.
func (ts *TaskStore) CleanupExpired() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	removed := 0
	for id, task := range ts.tasks {
		if now.After(task.ExpiresAt) {
			delete(ts.tasks, id)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker периодически удаляет просроченные задачи до отмены ctx.
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts.CleanupExpired()
			}
		}
	}()
}
