package models

import "time"

// SyncTask is a persisted unit of work for the sheets sync worker.
type SyncTask struct {
	ID          int64
	TaskType    string
	ProductID   int64
	Payload     string
	Status      string
	RetryCount  int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
	NextRetryAt *time.Time
}
