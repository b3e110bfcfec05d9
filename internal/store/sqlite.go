package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/logging"
	"binomial-pricer/internal/payoff"
	"binomial-pricer/pkg/utils"
)

const maxNameLength = 64

// SQLiteStore implements PortfolioStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	retry  utils.RetryConfig
}

// NewSQLiteStore opens (creating if needed) the position library at dbPath.
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.NewStoreError("open", dbPath, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStoreError("open", dbPath, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	retry := utils.DefaultRetryConfig()
	retry.Retryable = isBusy
	s := &SQLiteStore{db: db, logger: logger, retry: retry}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewStoreError("init", dbPath, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
	}

	return s, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		notation TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_portfolios_updated ON portfolios(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func validateName(name string) error {
	if name == "" {
		return apperrors.NewInvalidArgument("name", name, "must not be empty")
	}
	if len(name) > maxNameLength {
		return apperrors.NewInvalidArgument("name", name, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return apperrors.NewInvalidArgument("name", name, "must not contain whitespace")
	}
	return nil
}

// isBusy reports whether err is a lock conflict with another connection
// that outlasted the busy timeout.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// exec runs a write statement, retrying lock conflicts.
func (s *SQLiteStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return utils.RetryWithResult(ctx, s.retry, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
}

func dbError(operation, name string, err error) error {
	return apperrors.NewStoreError(operation, name, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
}

// SavePortfolio stores position under name, replacing any existing
// definition with that name. The row id and creation time survive a
// replacement.
func (s *SQLiteStore) SavePortfolio(ctx context.Context, name string, position payoff.Position, description string) (saved *SavedPortfolio, err error) {
	defer func() { logging.LogStore(s.logger, "save", name, err) }()

	if err := validateName(name); err != nil {
		return nil, err
	}
	if position == nil {
		return nil, apperrors.NewInvalidArgument("position", nil, "must not be nil")
	}

	now := time.Now().UTC()
	_, err = s.exec(ctx, `
		INSERT INTO portfolios (id, name, notation, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			notation = excluded.notation,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, uuid.NewString(), name, payoff.Format(position), description, now, now)
	if err != nil {
		return nil, dbError("save", name, err)
	}

	return s.GetPortfolio(ctx, name)
}

// GetPortfolio retrieves a saved position by name.
func (s *SQLiteStore) GetPortfolio(ctx context.Context, name string) (*SavedPortfolio, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, notation, description, created_at, updated_at
		FROM portfolios WHERE name = ?
	`, name)

	var p SavedPortfolio
	if err := row.Scan(&p.ID, &p.Name, &p.Notation, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewStoreError("get", name, apperrors.ErrNotFound)
		}
		return nil, dbError("get", name, err)
	}
	return &p, nil
}

// ListPortfolios returns saved positions ordered by name.
func (s *SQLiteStore) ListPortfolios(ctx context.Context, filter PortfolioFilter) ([]SavedPortfolio, error) {
	query := "SELECT id, name, notation, description, created_at, updated_at FROM portfolios WHERE 1=1"
	args := []interface{}{}

	if filter.Prefix != "" {
		query += " AND substr(name, 1, ?) = ?"
		args = append(args, len(filter.Prefix), filter.Prefix)
	}

	query += " ORDER BY name"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("list", "", err)
	}
	defer rows.Close()

	var out []SavedPortfolio
	for rows.Next() {
		var p SavedPortfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Notation, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, dbError("list", "", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list", "", err)
	}
	return out, nil
}

// DeletePortfolio removes a saved position.
func (s *SQLiteStore) DeletePortfolio(ctx context.Context, name string) (err error) {
	defer func() { logging.LogStore(s.logger, "delete", name, err) }()

	res, err := s.exec(ctx, "DELETE FROM portfolios WHERE name = ?", name)
	if err != nil {
		return dbError("delete", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("delete", name, err)
	}
	if n == 0 {
		return apperrors.NewStoreError("delete", name, apperrors.ErrNotFound)
	}
	return nil
}

var _ PortfolioStore = (*SQLiteStore)(nil)
