package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one transfer attempt, lock waits included.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultHistoryPageSize is how many movements a history iterator fetches per page.
	DefaultHistoryPageSize = 100

	// reconcileConcurrency bounds parallel per-account replays.
	reconcileConcurrency = 8
)
