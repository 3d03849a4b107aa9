package model

import "time"

// Repository is an upstream repository tracked by the board.
type Repository struct {
	ID            int64
	Owner         string
	Name          string
	FullName      string // owner/name, globally unique
	IsActive      bool
	WebhookID     int64  // upstream hook id, 0 when no hook is registered
	WebhookSecret string // per-repository hook secret, "" when unset
	DefaultBranch string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
