package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/pkg/fault"
	"github.com/paulexconde/formbuilder/pkg/store"
)

// DefaultTable holds one row per collection key.
const DefaultTable = "formbuilder_kv"

// SQLStore keeps every key as one row of a two-column table. It works against
// Postgres ("postgres") and SQLite ("sqlite3"); placeholders are rebound per driver.
type SQLStore struct {
	db        *sqlx.DB
	tablename string
	hooks     store.Hooks
	mu        sync.RWMutex
	log       logger.Logger
}

// OpenSQL connects and pings the database.
func OpenSQL(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return db, nil
}

func NewSQLStore(db *sqlx.DB, tablename string, log logger.Logger) *SQLStore {
	if tablename == "" {
		tablename = DefaultTable
	}

	return &SQLStore{
		db:        db,
		tablename: tablename,
		log:       log,
	}
}

func (s *SQLStore) Base() *sqlx.DB {
	return s.db
}

func (s *SQLStore) SetHooks(hooks store.Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks.AfterSave = append(s.hooks.AfterSave, hooks.AfterSave...)
}

// EnsureSchema creates the backing table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, s.tablename)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.tablename, err)
	}

	return nil
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := s.db.Rebind(fmt.Sprintf("SELECT body FROM %s WHERE name = ?", s.tablename))

	var body string
	if err := s.db.GetContext(ctx, &body, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return []byte(body), nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := s.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (name, body) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP",
		s.tablename,
	))

	if _, err = tx.ExecContext(ctx, query, key, string(value)); err != nil {
		err = translate(err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.mu.RLock()
	hooks := s.hooks.AfterSave
	s.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, key, len(value))
	}

	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func translate(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fault.ErrUniqueViolation
		case "23503": // foreign_key_violation
			return fault.ErrForeignKeyViolation
		}
	}
	return err
}

// LogWrites is an AfterSave hook that records each durable write.
func LogWrites(log logger.Logger) store.AfterSaveHook {
	return func(ctx context.Context, key string, size int) {
		log.DebugContext(ctx, "collection saved", "key", key, "bytes", size)
	}
}
