package model

import "time"

// SyncStatus is the lifecycle state of a sync run.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailure SyncStatus = "failure"
)

// Sync trigger sources.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerWebhook   = "webhook"
)

// SyncLog records one sync run. RepositoryID is nil for fleet-wide runs.
// A row is created in running status and finalized exactly once.
type SyncLog struct {
	ID           int64
	RepositoryID *int64
	Status       SyncStatus
	Trigger      string
	PRsProcessed int
	PRsCreated   int
	PRsUpdated   int
	ErrorMessage string
	DurationMS   int64
	StartedAt    time.Time
	CompletedAt  *time.Time
}
