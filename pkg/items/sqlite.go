package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"insider-hq/relay/pkg/config"
)

// SQLiteStore persists items in a SQLite database. The driver is either
// "sqlite" (modernc.org/sqlite, pure Go) or "sqlite3" (mattn/go-sqlite3, CGO).
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (and creates when needed) the database at cfg.Path.
func NewSQLiteStore(ctx context.Context, cfg config.SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	driver := cfg.Driver
	if driver == "" {
		driver = config.DefaultSQLiteDriver
	}
	if driver != "sqlite" && driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = config.DefaultSQLiteBusyTimeout
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports a single writer; one connection also keeps the
	// pragmas below in effect.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		path:   cfg.Path,
		logger: slog.Default().With("component", "items.sqlite"),
		now:    time.Now,
	}
	if err := s.initialize(ctx, busy); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("item store opened", "path", cfg.Path, "driver", driver)
	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context, busy time.Duration) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", busy.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertSchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", schemaVersion, version)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, path string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE path = ?`, path)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", path, err)
	}
	return it, nil
}

func (s *SQLiteStore) Put(ctx context.Context, it *Item) error {
	if err := normalize(it); err != nil {
		return err
	}
	details, err := marshalDetails(it.Details)
	if err != nil {
		return err
	}
	updated := s.now().UTC()

	_, err = s.db.ExecContext(ctx, upsertItem,
		it.Path, it.Kind(), it.Type, it.ID, it.Enabled, it.Title, it.Icon, details, updated.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", it.Path, err)
	}
	it.UpdatedAt = updated
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, kind string) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if kind == "" {
		rows, err = s.db.QueryContext(ctx, selectColumns+` ORDER BY seq`)
	} else {
		rows, err = s.db.QueryContext(ctx, selectColumns+` WHERE kind = ? ORDER BY seq`, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return nil
}

// Maintain checkpoints the WAL and lets SQLite refresh its statistics.
func (s *SQLiteStore) Maintain(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("wal checkpoint failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		it      Item
		details string
		updated int64
	)
	if err := row.Scan(&it.Path, &it.Type, &it.ID, &it.Enabled, &it.Title, &it.Icon, &details, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(details), &it.Details); err != nil {
		return nil, fmt.Errorf("corrupt details for %s: %w", it.Path, err)
	}
	it.UpdatedAt = time.Unix(0, updated).UTC()
	return &it, nil
}

func marshalDetails(details map[string]any) (string, error) {
	if details == nil {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("details are not serializable: %w", err)
	}
	return string(b), nil
}
