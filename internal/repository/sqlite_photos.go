package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchemaVersion is stored in PRAGMA user_version once all migrations ran.
// 1: photos(user_id, timestamp); 2: chat_id column and (chat_id, timestamp) index.
const sqliteSchemaVersion = 2

const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL"

// sqliteDSN appends the connection parameters to a file path or DSN that may
// already carry its own query string.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqliteParams
}

func isMemoryDSN(path string) bool {
	return strings.HasPrefix(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// SQLitePhotoRepository stores photo events in a SQLite database file.
type SQLitePhotoRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewSQLitePhotoRepository opens (or creates) the database at path and migrates it.
// WAL mode with a busy timeout lets concurrent chats write while a query runs.
func NewSQLitePhotoRepository(path string, opts ...Option) (*SQLitePhotoRepository, error) {
	o := buildOptions(opts)
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, storeError("open", err)
	}
	if isMemoryDSN(path) {
		// every new connection would open its own empty database
		db.SetMaxOpenConns(1)
	}
	r := &SQLitePhotoRepository{db: db, logger: o.logger}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLitePhotoRepository) migrate(ctx context.Context) error {
	var version int
	if err := r.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return storeError("migrate", err)
	}
	if _, err := r.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS photos (
            chat_id INTEGER,
            user_id INTEGER,
            timestamp INTEGER
        )`); err != nil {
		return storeError("migrate", err)
	}
	ok, err := r.hasColumn(ctx, "chat_id")
	if err != nil {
		return storeError("migrate", err)
	}
	if !ok {
		r.logger.Info(ctx, "adding chat_id column to photos", logger.Int("schema_version", version))
		if _, err := r.db.ExecContext(ctx, `ALTER TABLE photos ADD COLUMN chat_id INTEGER`); err != nil {
			return storeError("migrate", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_photos_chat_ts ON photos (chat_id, timestamp)`); err != nil {
		return storeError("migrate", err)
	}
	if version < sqliteSchemaVersion {
		// PRAGMA does not take bind parameters.
		if _, err := r.db.ExecContext(ctx, `PRAGMA user_version = 2`); err != nil {
			return storeError("migrate", err)
		}
		r.logger.Info(ctx, "photo store migrated", logger.Int("from", version), logger.Int("to", sqliteSchemaVersion))
	}
	return nil
}

func (r *SQLitePhotoRepository) hasColumn(ctx context.Context, column string) (bool, error) {
	rows, err := r.db.QueryContext(ctx, `PRAGMA table_info(photos)`)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (r *SQLitePhotoRepository) RecordPhoto(ctx context.Context, chatID, userID, timestamp int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO photos (chat_id, user_id, timestamp) VALUES (?, ?, ?)`, chatID, userID, timestamp)
	if err != nil {
		return storeError("record_photo", err)
	}
	return nil
}

func (r *SQLitePhotoRepository) TopUsers(ctx context.Context, chatID, since int64, limit int) ([]model.UserCount, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT user_id, COUNT(*) AS cnt
        FROM photos
        WHERE chat_id = ? AND timestamp >= ?
        GROUP BY user_id
        ORDER BY cnt DESC, user_id ASC
        LIMIT ?`, chatID, since, limit)
	if err != nil {
		return nil, storeError("top_users", err)
	}
	return scanUserCounts(rows)
}

func (r *SQLitePhotoRepository) Close() error {
	return r.db.Close()
}

// scanUserCounts drains rows of (user_id, count) and closes them.
func scanUserCounts(rows *sql.Rows) ([]model.UserCount, error) {
	defer rows.Close()
	result := []model.UserCount{}
	for rows.Next() {
		var uc model.UserCount
		if err := rows.Scan(&uc.UserID, &uc.Count); err != nil {
			return nil, storeError("top_users", err)
		}
		result = append(result, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("top_users", err)
	}
	return result, nil
}
