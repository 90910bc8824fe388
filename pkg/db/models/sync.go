package models

import (
	"time"
)

const (
	RunTypeEnumerate = "enumerate"
	RunTypeDownload  = "download"
)

const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusInterrupted         = "interrupted"
)

// SyncRun tracks one invocation of a mutating operation
type SyncRun struct {
	ID          uint   `gorm:"primaryKey"`
	RunType     string `gorm:"type:text;not null;index:idx_sync_runs_type"`
	StartedAt   time.Time
	CompletedAt *time.Time

	FilesFound int64  `gorm:"default:0"`
	FilesNew   int64  `gorm:"default:0"`
	Status     string `gorm:"type:text;not null"`

	// Error tracking
	ErrorCount int    `gorm:"default:0"`
	LastError  string `gorm:"type:text"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

// Finished reports whether the run reached a terminal state that covered the whole scan.
func (r *SyncRun) Finished() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusCompletedWithErrors
}
