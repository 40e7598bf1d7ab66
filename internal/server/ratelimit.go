package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter хранит лимитер клиента и время последнего обращения.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// UploadLimiter ограничивает частоту загрузок с одного IP-адреса.
type UploadLimiter struct {
	perMinute int
	burst     int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewUploadLimiter создает лимитер на perMinute загрузок в минуту с запасом burst.
func NewUploadLimiter(perMinute, burst int) *UploadLimiter {
	return &UploadLimiter{
		perMinute: perMinute,
		burst:     burst,
		now:       time.Now,
		clients:   make(map[string]*clientLimiter),
	}
}

func (l *UploadLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.burst)}
		l.clients[key] = cl
	}
	cl.lastAccess = l.now()
	return cl.limiter
}

// Middleware отклоняет запросы сверх лимита ответом 429 с заголовком Retry-After.
func (l *UploadLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !l.limiterFor(key).Allow() {
			slog.Warn("Превышен лимит загрузок", "client", key)
			l.writeTooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup удаляет лимитеры клиентов, не обращавшихся дольше idle.
func (l *UploadLimiter) Cleanup(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, cl := range l.clients {
		if now.Sub(cl.lastAccess) > idle {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Count возвращает число отслеживаемых клиентов.
func (l *UploadLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *UploadLimiter) writeTooManyRequests(w http.ResponseWriter) {
	// Время до пополнения одного токена, с округлением вверх.
	retryAfter := (60 + l.perMinute - 1) / l.perMinute
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"error": "слишком много загрузок, повторите позже",
	})
}

// clientIP берет адрес из RemoteAddr (его подменяет middleware.RealIP).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}
