package model

// LeaderboardEntry is a ranked user with a display name ready for rendering.
type LeaderboardEntry struct {
	Rank        int
	UserID      int64
	DisplayName string
	Count       int
	// Resolved is false when DisplayName is the fallback label.
	Resolved bool
}

// Leaderboard is the top-N list for a chat over PeriodDays.
type Leaderboard struct {
	ChatID     int64
	PeriodDays int
	Entries    []LeaderboardEntry
}

// Empty reports whether no photos were sent in the period.
func (l *Leaderboard) Empty() bool {
	return len(l.Entries) == 0
}
