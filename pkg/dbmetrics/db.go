package dbmetrics

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Collector то, что нужно обёртке от pkg/metrics
type Collector interface {
	ObserveDBQuery(operation string, d time.Duration)
	SetPoolStats(stats sql.DBStats)
}

// DefaultPoolStatsInterval период сбора статистики connection pool
const DefaultPoolStatsInterval = 15 * time.Second

// DB обёртка над *sql.DB, которая пишет метрики запросов
// collector может быть nil - тогда это тонкая обёртка без метрик
type DB struct {
	db        *sql.DB
	collector Collector
}

// Wrap оборачивает *sql.DB без фонового сбора статистики pool
func Wrap(db *sql.DB, collector Collector) *DB {
	return &DB{db: db, collector: collector}
}

// WrapWithDefault оборачивает *sql.DB и запускает сбор статистики pool до закрытия stopCh
func WrapWithDefault(db *sql.DB, collector Collector, stopCh <-chan struct{}) *DB {
	w := Wrap(db, collector)
	if collector != nil {
		go w.collectPoolStats(DefaultPoolStatsInterval, stopCh)
	}
	return w
}

func (w *DB) collectPoolStats(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.collector.SetPoolStats(w.db.Stats())
		case <-stopCh:
			return
		}
	}
}

func (w *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer w.observe(query, time.Now())
	return w.db.ExecContext(ctx, query, args...)
}

func (w *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer w.observe(query, time.Now())
	return w.db.QueryContext(ctx, query, args...)
}

func (w *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer w.observe(query, time.Now())
	return w.db.QueryRowContext(ctx, query, args...)
}

// BeginTx начинает транзакцию; запросы внутри неё тоже попадают в метрики
func (w *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	tx, err := w.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, parent: w}, nil
}

func (w *DB) PingContext(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

func (w *DB) observe(query string, start time.Time) {
	if w.collector == nil {
		return
	}
	w.collector.ObserveDBQuery(Operation(query), time.Since(start))
}

// Tx транзакция с метриками
type Tx struct {
	tx     *sql.Tx
	parent *DB
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer t.parent.observe(query, time.Now())
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer t.parent.observe(query, time.Now())
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer t.parent.observe(query, time.Now())
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Operation первое слово запроса в нижнем регистре (select, insert, ...)
func Operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
