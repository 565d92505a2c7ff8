package keylock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrLockTimeout не удалось взять блокировку до отмены контекста
var ErrLockTimeout = errors.New("keylock: lock acquisition timeout")

// Locker мьютексы по строковому ключу
// Записи удаляются, когда ключ никто не держит и никто не ждет
type Locker struct {
	mu      sync.Mutex
	locks   map[string]*entry
	timeout time.Duration
}

type entry struct {
	ch   chan struct{}
	refs int
}

type Option func(*Locker)

// WithTimeout ограничивает ожидание всех ключей в Do. fn выполняется уже без этого ограничения
func WithTimeout(d time.Duration) Option {
	return func(l *Locker) {
		l.timeout = d
	}
}

func New(opts ...Option) *Locker {
	l := &Locker{locks: make(map[string]*entry)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire блокирует ключ. Возвращает функцию освобождения, которую нужно вызвать ровно один раз
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.unref(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, fmt.Errorf("%w: key=%s: %v", ErrLockTimeout, key, ctx.Err())
	}
}

// Do берет все ключи в отсортированном порядке, выполняет fn и отпускает их
func (l *Locker) Do(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	sorted := unique(keys)

	releases := make([]func(), 0, len(sorted))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()

	acquireCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	for _, key := range sorted {
		release, err := l.Acquire(acquireCtx, key)
		if err != nil {
			return err
		}
		releases = append(releases, release)
	}

	return fn(ctx)
}

// Len количество ключей, которые сейчас кто-то держит или ждет
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func unique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
