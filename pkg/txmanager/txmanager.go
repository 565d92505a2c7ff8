package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"
)

var (
	// ErrBeginTx ошибка начала транзакции
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommitTx ошибка коммита
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")

	// ErrRetriesExhausted транзакция так и не прошла после всех попыток
	ErrRetriesExhausted = errors.New("txmanager: serialization retries exhausted")

	// ErrLockTimeout не удалось взять advisory lock за lock_timeout
	ErrLockTimeout = errors.New("txmanager: lock acquisition timeout")
)

// Коды ошибок PostgreSQL
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

const (
	DefaultMaxRetries = 3
	retryBackoff      = 10 * time.Millisecond
)

// TxBeginner то, что умеет начинать транзакции (dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// RetryObserver получает уведомление о каждом повторе транзакции
type RetryObserver interface {
	IncTxRetry()
}

// TransactionManager выполняет функции в транзакции, передавая её через context
type TransactionManager struct {
	db          TxBeginner
	maxRetries  int
	lockTimeout time.Duration
	observer    RetryObserver
}

// Option настройка TransactionManager
type Option func(*TransactionManager)

// WithMaxRetries количество попыток при дедлоке или конфликте сериализации
func WithMaxRetries(n int) Option {
	return func(m *TransactionManager) {
		if n > 0 {
			m.maxRetries = n
		}
	}
}

// WithLockTimeout устанавливает SET LOCAL lock_timeout в транзакциях DoKeyed
func WithLockTimeout(d time.Duration) Option {
	return func(m *TransactionManager) {
		m.lockTimeout = d
	}
}

// WithRetryObserver подключает метрики повторов
func WithRetryObserver(o RetryObserver) Option {
	return func(m *TransactionManager) {
		m.observer = o
	}
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db TxBeginner, opts ...Option) *TransactionManager {
	m := &TransactionManager{db: db, maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DoKeyed выполняет fn в транзакции READ COMMITTED, предварительно взяв
// pg_advisory_xact_lock на каждый ключ. Ключи сортируются, чтобы разные запросы
// брали блокировки в одном порядке.
//
// Уровень именно READ COMMITTED: каждый запрос после захвата блокировки получает
// свежий снимок и видит всё, что закоммитил предыдущий владелец ключа.
// В SERIALIZABLE снимок фиксируется на первом SELECT, то есть до ожидания
// блокировки, и ждавшие транзакции падали бы с 40001.
// Дедлок (40P01) и конфликт сериализации (40001) повторяются до maxRetries раз
func (m *TransactionManager) DoKeyed(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if attempt > 0 {
			if m.observer != nil {
				m.observer.IncTxRetry()
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrRetriesExhausted, ctx.Err())
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		err := m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(txCtx context.Context) error {
			if err := m.lockKeys(txCtx, sorted); err != nil {
				return err
			}
			return fn(txCtx)
		})
		if err == nil {
			return nil
		}
		if IsLockTimeout(err) {
			return fmt.Errorf("%w: %v", ErrLockTimeout, err)
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (m *TransactionManager) lockKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, nil)

	if m.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err := executor.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, key := range keys {
		if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return err
		}
	}
	return nil
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	// Вложенный вызов переиспользует внешнюю транзакцию
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if IsRetryable(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrCommitTx, err)
	}
	return nil
}

// IsRetryable true для конфликтов сериализации и дедлоков
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
	}
	return false
}

// IsLockTimeout true, если сработал lock_timeout
func IsLockTimeout(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeLockNotAvailable
	}
	return false
}
