package repository

import (
	"context"
	"fmt"

	"github.com/ilinovom/photo-stats-bot/internal/model"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
)

// PhotoRepository is the append-only log of photo events.
type PhotoRepository interface {
	// RecordPhoto stores one event. It returns only after the write is committed.
	RecordPhoto(ctx context.Context, chatID, userID, timestamp int64) error
	// TopUsers returns at most limit users of the chat with photos sent at or after
	// since, ordered by count desc and then by user id asc.
	TopUsers(ctx context.Context, chatID, since int64, limit int) ([]model.UserCount, error)
	Close() error
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	logger logger.Logger
}

// WithLogger sets the logger used for migration messages.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the photo repository for the given driver, with migrations applied.
func Open(driver, dsn string, opts ...Option) (PhotoRepository, error) {
	switch driver {
	case DriverSQLite, "sqlite":
		return NewSQLitePhotoRepository(dsn, opts...)
	case DriverPostgres, "postgres":
		return NewPostgresPhotoRepository(dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

var (
	_ PhotoRepository = (*SQLitePhotoRepository)(nil)
	_ PhotoRepository = (*PostgresPhotoRepository)(nil)
)
