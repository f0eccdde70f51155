package repository

import (
	"context"
	"database/sql"

	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresPhotoRepository stores photo events in a Postgres database.
type PostgresPhotoRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresPhotoRepository(connStr string, opts ...Option) (*PostgresPhotoRepository, error) {
	o := buildOptions(opts)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, storeError("open", err)
	}
	r := &PostgresPhotoRepository{db: db, logger: o.logger}
	if err := r.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresPhotoRepository) init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS photos (
            chat_id BIGINT,
            user_id BIGINT NOT NULL,
            "timestamp" BIGINT NOT NULL
        )`); err != nil {
		return storeError("migrate", err)
	}
	var hasChatID bool
	if err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = current_schema() AND table_name = 'photos' AND column_name = 'chat_id'
        )`).Scan(&hasChatID); err != nil {
		return storeError("migrate", err)
	}
	if !hasChatID {
		r.logger.Info(ctx, "adding chat_id column to photos")
		if _, err := r.db.ExecContext(ctx, `ALTER TABLE photos ADD COLUMN IF NOT EXISTS chat_id BIGINT`); err != nil {
			return storeError("migrate", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_photos_chat_ts ON photos (chat_id, "timestamp")`); err != nil {
		return storeError("migrate", err)
	}
	return nil
}

func (r *PostgresPhotoRepository) RecordPhoto(ctx context.Context, chatID, userID, timestamp int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO photos (chat_id, user_id, "timestamp") VALUES ($1, $2, $3)`, chatID, userID, timestamp)
	if err != nil {
		return storeError("record_photo", err)
	}
	return nil
}

func (r *PostgresPhotoRepository) TopUsers(ctx context.Context, chatID, since int64, limit int) ([]model.UserCount, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT user_id, COUNT(*) AS cnt
        FROM photos
        WHERE chat_id = $1 AND "timestamp" >= $2
        GROUP BY user_id
        ORDER BY cnt DESC, user_id ASC
        LIMIT $3`, chatID, since, limit)
	if err != nil {
		return nil, storeError("top_users", err)
	}
	return scanUserCounts(rows)
}

func (r *PostgresPhotoRepository) Close() error {
	return r.db.Close()
}
