package model

import "time"

// SessionProgressEntry is the guest-user counterpart of ProgressRecord,
// keyed by item only. Identity is the browsing session itself; entries
// live in Redis and die with the session TTL or after migration.
type SessionProgressEntry struct {
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
