package bot

import (
	"sync"
	"time"
)

// ActiveTask описывает загрузку, которую бот сейчас отслеживает для чата.
// Пустой TaskID означает, что файл еще передается бэкенду.
type ActiveTask struct {
	TaskID    string
	StartedAt time.Time
}

// TaskStore закрепляет за каждым чатом Telegram не более одной активной задачи.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[int64]ActiveTask
	now   func() time.Time
}

// NewTaskStore создает пустое хранилище.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[int64]ActiveTask),
		now:   time.Now,
	}
}

// Reserve занимает слот чата. Возвращает false, если у чата уже есть задача.
func (s *TaskStore) Reserve(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.tasks[chatID]; busy {
		return false
	}
	s.tasks[chatID] = ActiveTask{StartedAt: s.now()}
	return true
}

// Assign привязывает идентификатор задачи бэкенда к занятому слоту.
func (s *TaskStore) Assign(chatID int64, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[chatID]
	if task.StartedAt.IsZero() {
		task.StartedAt = s.now()
	}
	task.TaskID = taskID
	s.tasks[chatID] = task
}

// Active возвращает задачу чата, если она есть.
func (s *TaskStore) Active(chatID int64) (ActiveTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[chatID]
	return task, ok
}

// Release освобождает слот чата.
func (s *TaskStore) Release(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, chatID)
}

// Len возвращает число чатов с активными задачами.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
