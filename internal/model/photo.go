package model

// PhotoEvent is a single photo sent by a user in a chat. Events are append-only.
type PhotoEvent struct {
	ChatID    int64 `json:"chat_id"`
	UserID    int64 `json:"user_id"`
	Timestamp int64 `json:"timestamp"` // unix seconds
}

// UserCount is one row of the per-user photo aggregate.
type UserCount struct {
	UserID int64 `json:"user_id"`
	Count  int   `json:"count"`
}
