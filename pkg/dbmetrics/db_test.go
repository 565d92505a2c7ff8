package dbmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTx struct {
	DBExecutor
}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

func TestOperation(t *testing.T) {
	assert.Equal(t, "select", Operation("SELECT id FROM reservations"))
	assert.Equal(t, "insert", Operation("  INSERT INTO payments (id) VALUES ($1)"))
	assert.Equal(t, "unknown", Operation(""))
}

func TestGetExecutor(t *testing.T) {
	db := Wrap(nil, nil)
	ctx := context.Background()

	assert.False(t, IsInTransaction(ctx))
	assert.Same(t, db, GetExecutor(ctx, db))

	tx := &fakeTx{}
	txCtx := WithTx(ctx, tx)

	assert.True(t, IsInTransaction(txCtx))
	assert.Same(t, tx, GetExecutor(txCtx, db))
}
