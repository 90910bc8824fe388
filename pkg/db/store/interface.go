package store

import (
	"context"
	"errors"

	"github.com/mwantia/photosync/pkg/db/models"
)

var (
	ErrStoreLocked    = errors.New("store locked by another process")
	ErrRecordNotFound = errors.New("record not found")
)

// ManifestStore defines the interface for manifest persistence.
// Every mutation is committed on its own; no transaction spans a whole run.
type ManifestStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// File operations
	UpsertFileRecord(ctx context.Context, record *models.FileRecord) (bool, error)
	GetFileRecord(ctx context.Context, id string) (*models.FileRecord, error)
	HasFileRecord(ctx context.Context, id string) (bool, error)
	FilesByContentHash(ctx context.Context, hash string) ([]models.FileRecord, error)
	HasContentHash(ctx context.Context, hash string) (bool, error)
	ListFileRecords(ctx context.Context, limit, offset int) ([]models.FileRecord, error)

	// Run operations
	BeginRun(ctx context.Context, runType string) (uint, error)
	CompleteRun(ctx context.Context, id uint, result RunResult) error
	LastCompletedRun(ctx context.Context, runType string) (*models.SyncRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error)

	// Download operations
	UpsertDownloadRecord(ctx context.Context, record *models.DownloadRecord) error
	GetDownloadRecord(ctx context.Context, hash string) (*models.DownloadRecord, error)
	CountDownloads(ctx context.Context) (int64, error)

	// Dedup queries
	PendingContent(ctx context.Context, limit int) ([]models.FileRecord, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// RunResult holds the values written when a sync run is finalized
type RunResult struct {
	FilesFound int64
	FilesNew   int64
	Status     string
	ErrorCount int
	LastError  string
}
