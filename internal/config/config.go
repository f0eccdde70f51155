// Package config loads the bot configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"time"
)

// Message keys used by the command handlers.
const (
	MsgStartFirst        = "start_first"
	MsgStartAgain        = "start_again"
	MsgPeriodPrompt      = "period_prompt"
	MsgPeriodNotNumber   = "period_not_number"
	MsgPeriodNotPositive = "period_not_positive"
	MsgEmptyPeriod       = "empty_period"
	MsgLeaderboardHeader = "leaderboard_header"
	MsgLeaderboardLine   = "leaderboard_line"
	MsgUserFallback      = "user_fallback"
	MsgInternalError     = "internal_error"
	MsgCancelled         = "cancelled"
)

type Config struct {
	// TelegramToken authenticates the bot. Required.
	TelegramToken string `koanf:"telegram_token"`

	// DBDriver selects the photo store: sqlite3 or pgx.
	DBDriver string `koanf:"db_driver"`
	// DBDSN is a file path for sqlite3 or a connection string for pgx.
	DBDSN string `koanf:"db_dsn"`

	LogLevel string `koanf:"log_level"`

	// MetricsAddr enables the Prometheus endpoint when not empty, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Workers is the number of update handlers; one chat always maps to the same worker.
	Workers int `koanf:"workers"`

	TopLimit          int           `koanf:"top_limit"`
	NameLookupTimeout time.Duration `koanf:"name_lookup_timeout"`
	PollTimeout       time.Duration `koanf:"poll_timeout"`

	// Messages holds reply texts by key. Entries from the file override defaults.
	Messages map[string]string `koanf:"messages"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DBDriver:          "sqlite3",
		DBDSN:             "photo_stats.db",
		LogLevel:          "info",
		Workers:           8,
		TopLimit:          5,
		NameLookupTimeout: 3 * time.Second,
		PollTimeout:       30 * time.Second,
		Messages:          DefaultMessages(),
	}
}

// DefaultMessages returns the built-in reply texts.
func DefaultMessages() map[string]string {
	return map[string]string{
		MsgStartFirst:        "Привет! Я буду отслеживать количество отправленных фото в этой группе.",
		MsgStartAgain:        "Привет! Я уже отслеживаю количество отправленных фото в этой группе.",
		MsgPeriodPrompt:      "Введите период в днях для анализа:",
		MsgPeriodNotNumber:   "❌ Введите корректное число дней",
		MsgPeriodNotPositive: "Период должен быть больше 0 дней",
		MsgEmptyPeriod:       "📭 За последние %d дней фото не отправлялись",
		MsgLeaderboardHeader: "🏆 Топ участников за %d дней:",
		MsgLeaderboardLine:   "%d. %s — %d фото",
		MsgUserFallback:      "Пользователь %d",
		MsgInternalError:     "⚠️ Произошла ошибка при обработке запроса",
		MsgCancelled:         "🚫 Операция отменена",
	}
}
