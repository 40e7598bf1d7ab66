package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

// CacheItem представляет разобранный чат, сохраненный в памяти.
type CacheItem struct {
	Chat      *domain.Chat
	StoredAt  time.Time
	ExpiresAt time.Time
}

// CacheStore хранит разобранные чаты по хешу содержимого файла, чтобы анализ
// с новыми параметрами не требовал повторного разбора.
type CacheStore struct {
	mu         sync.RWMutex
	items      map[string]*CacheItem
	maxEntries int
	now        func() time.Time
	log        *slog.Logger
}

// Option настраивает CacheStore.
type Option func(*CacheStore)

// WithMaxEntries ограничивает число чатов в кэше. При переполнении вытесняется
// чат с ближайшим сроком истечения. 0 снимает ограничение.
func WithMaxEntries(n int) Option {
	return func(cs *CacheStore) {
		if n > 0 {
			cs.maxEntries = n
		}
	}
}

// WithClock задает источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(cs *CacheStore) {
		if now != nil {
			cs.now = now
		}
	}
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(cs *CacheStore) {
		if l != nil {
			cs.log = l
		}
	}
}

// NewCacheStore создает новый экземпляр CacheStore.
func NewCacheStore(opts ...Option) *CacheStore {
	cs := &CacheStore{
		items: make(map[string]*CacheItem),
		now:   time.Now,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Get возвращает чат по хешу, если срок его хранения не истек.
func (cs *CacheStore) Get(key string) (*CacheItem, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	item, ok := cs.items[key]
	if !ok || cs.now().After(item.ExpiresAt) {
		return nil, false
	}
	return item, true
}

// Put сохраняет чат на ttl. Повторная запись того же ключа продлевает срок.
func (cs *CacheStore) Put(key string, chat *domain.Chat, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	if _, exists := cs.items[key]; !exists && cs.maxEntries > 0 && len(cs.items) >= cs.maxEntries {
		cs.evictLocked(now)
	}
	cs.items[key] = &CacheItem{
		Chat:      chat,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// evictLocked освобождает место: сначала удаляет просроченные элементы,
// а если таких нет, то элемент с ближайшим сроком истечения.
func (cs *CacheStore) evictLocked(now time.Time) {
	if cs.removeExpiredLocked(now) > 0 {
		return
	}
	var victim string
	var soonest time.Time
	for key, item := range cs.items {
		if victim == "" || item.ExpiresAt.Before(soonest) {
			victim, soonest = key, item.ExpiresAt
		}
	}
	if victim != "" {
		delete(cs.items, victim)
		cs.log.Debug("Чат вытеснен из кэша", "hash", victim)
	}
}

// Delete удаляет чат из кэша.
func (cs *CacheStore) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.items, key)
}

// Count возвращает число элементов, включая еще не удаленные просроченные.
func (cs *CacheStore) Count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.items)
}

// CleanupExpired удаляет просроченные элементы и возвращает их число.
func (cs *CacheStore) CleanupExpired() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.removeExpiredLocked(cs.now())
}

func (cs *CacheStore) removeExpiredLocked(now time.Time) int {
	removed := 0
	for key, item := range cs.items {
		if now.After(item.ExpiresAt) {
			delete(cs.items, key)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker периодически удаляет просроченные элементы до отмены ctx.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := cs.CleanupExpired(); n > 0 {
					cs.log.Info("Просроченные чаты удалены из кэша", "removed", n)
				}
			}
		}
	}()
}

// CalculateFileHash вычисляет SHA-256 содержимого файла в hex.
func CalculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("не удалось прочитать файл: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

