// ratelimit — ограничение частоты запросов по ключу клиента.
//
// Алгоритм — fixed window: счётчик на пару (политика, ключ) в пределах
// текущего окна; на границе окна счётчик детерминированно сбрасывается.
// Инкремент и сравнение с лимитом — одна неделимая операция на ключ,
// чтобы два конкурентных запроса не прочитали один и тот же счётчик
// до лимита (классическая гонка check-then-act).
//
// Счётчики по умолчанию живут в памяти процесса (MemoryStore); при
// наличии Redis используется разделяемый RedisStore (см. redis.go).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/pribylovaa/go-service-template/internal/config"
)

// Policy — именованная политика: не более Limit запросов на ключ в окно Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// PolicyFromConfig строит политику из секции конфигурации.
func PolicyFromConfig(name string, cfg config.RateLimitPolicy) Policy {
	return Policy{Name: name, Limit: cfg.Limit, Window: cfg.Window}
}

// Store инкрементирует счётчик окна и возвращает новое значение.
// Реализация обязана выполнять инкремент атомарно по ключу.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter применяет политики к ключам клиентов.
type Limiter struct {
	store Store
}

// New создаёт Limiter поверх заданного хранилища счётчиков.
func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Allow регистрирует попытку запроса от clientKey в рамках политики
// и сообщает, укладывается ли она в лимит.
//
// Попытка учитывается даже если запрос позже будет отклонён или оборван:
// лимитер намеренно консервативен, откатов счётчика нет.
func (l *Limiter) Allow(ctx context.Context, p Policy, clientKey string) (bool, error) {
	count, err := l.store.Incr(ctx, p.Name+":"+clientKey, p.Window)
	if err != nil {
		return false, err
	}

	return count <= int64(p.Limit), nil
}

type window struct {
	start time.Time
	count int64
}

// MemoryStore — per-process хранилище счётчиков.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryStore создаёт хранилище и запускает фоновую чистку
// устаревших окон.
func NewMemoryStore(cleanupEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}

	if cleanupEvery > 0 {
		go s.cleanup(cleanupEvery)
	}

	return s
}

// Incr — атомарный инкремент счётчика текущего окна.
func (s *MemoryStore) Incr(_ context.Context, key string, windowDur time.Duration) (int64, error) {
	bucket := s.now().Truncate(windowDur)

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[key]
	if w == nil || !w.start.Equal(bucket) {
		w = &window{start: bucket}
		s.windows[key] = w
	}

	w.count++
	return w.count, nil
}

// cleanup периодически удаляет окна, закончившиеся раньше текущего тика.
func (s *MemoryStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		now := s.now()

		s.mu.Lock()
		for key, w := range s.windows {
			if now.Sub(w.start) > 2*every {
				delete(s.windows, key)
			}
		}
		s.mu.Unlock()
	}
}
