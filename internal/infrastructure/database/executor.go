package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Executor is satisfied by both *sqlx.DB and *sqlx.Tx. Repositories are
// written against this interface instead of a concrete type so that a
// single repository implementation works whether or not an application
// service has opened an ambient transaction around it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type contextKey string

const executorContextKey contextKey = "db_executor"

// WithExecutor returns a context carrying tx as the ambient executor.
// Repositories resolve it via ExecutorFromContext instead of always
// hitting the pooled *sqlx.DB directly; this is what makes a
// multi-repository call sequence inside an application service
// transactional.
func WithExecutor(ctx context.Context, tx Executor) context.Context {
	return context.WithValue(ctx, executorContextKey, tx)
}

// ExecutorFromContext returns the ambient executor set by WithExecutor, or
// fallback (normally the pooled *sqlx.DB) if none was set.
func ExecutorFromContext(ctx context.Context, fallback Executor) Executor {
	if tx, ok := ctx.Value(executorContextKey).(Executor); ok {
		return tx
	}
	return fallback
}

// SqlxDB wraps a *sqlx.DB to provide transaction helpers alongside the
// Executor methods it already satisfies via embedding.
type SqlxDB struct {
	*sqlx.DB
}

// NewSqlxDB adapts an existing *sql.DB connection (as produced by
// NewConnection) into an *sqlx.DB using the same postgres driver.
func NewSqlxDB(db *sql.DB) *SqlxDB {
	return &SqlxDB{DB: sqlx.NewDb(db, "postgres")}
}

// WithTx runs fn with a fresh Read-Committed transaction bound to the
// context via WithExecutor, committing on success and rolling back on any
// error or panic. This is the transactional boundary every mutating
// application-service method opens exactly once.
func (s *SqlxDB) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	tx, err := s.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(WithExecutor(ctx, tx), tx)
	return err
}
