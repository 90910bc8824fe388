package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/photosync/pkg/db/migrations"
	"github.com/mwantia/photosync/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var defaultPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
}

// SQLiteStore implements ManifestStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
	now  func() time.Time
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
	NowFunc  func() time.Time
}

// NewSQLiteStore creates a new SQLite-backed manifest store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = func() time.Time {
			return time.Now().UTC()
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:  logger.Default.LogMode(cfg.LogLevel),
		NowFunc: cfg.NowFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
		now:  cfg.NowFunc,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range defaultPragmas {
		if err := s.db.WithContext(ctx).Exec(pragma).Error; err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// File operations

// UpsertFileRecord inserts the record if its id is unknown and reports true.
// For known ids only last_seen is touched, except that a missing content hash
// is filled in once the remote reports one.
func (s *SQLiteStore) UpsertFileRecord(ctx context.Context, record *models.FileRecord) (bool, error) {
	if record == nil || record.ID == "" {
		return false, fmt.Errorf("file record requires an id")
	}

	now := s.now()
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := *record
		row.FirstSeen = now
		row.LastSeen = now

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			created = true
			return nil
		}

		if err := tx.Model(&models.FileRecord{}).
			Where("id = ?", record.ID).
			Update("last_seen", now).Error; err != nil {
			return err
		}

		if record.ContentHash == nil {
			return nil
		}
		return tx.Model(&models.FileRecord{}).
			Where("id = ? AND content_hash IS NULL", record.ID).
			Updates(map[string]any{
				"content_hash": *record.ContentHash,
				"size":         record.Size,
			}).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert file %s: %w", record.ID, err)
	}
	return created, nil
}

func (s *SQLiteStore) GetFileRecord(ctx context.Context, id string) (*models.FileRecord, error) {
	var file models.FileRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &file, nil
}

func (s *SQLiteStore) HasFileRecord(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FileRecord{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *SQLiteStore) FilesByContentHash(ctx context.Context, hash string) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := s.db.WithContext(ctx).
		Where("content_hash = ?", hash).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

func (s *SQLiteStore) HasContentHash(ctx context.Context, hash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FileRecord{}).Where("content_hash = ?", hash).Limit(1).Count(&count).Error
	return count > 0, err
}

func (s *SQLiteStore) ListFileRecords(ctx context.Context, limit, offset int) ([]models.FileRecord, error) {
	var files []models.FileRecord
	query := s.db.WithContext(ctx).Order("id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&files).Error
	return files, err
}

// Run operations

func (s *SQLiteStore) BeginRun(ctx context.Context, runType string) (uint, error) {
	run := models.SyncRun{
		RunType:   runType,
		StartedAt: s.now(),
		Status:    models.RunStatusRunning,
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, fmt.Errorf("failed to begin %s run: %w", runType, err)
	}
	return run.ID, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, id uint, result RunResult) error {
	res := s.db.WithContext(ctx).Model(&models.SyncRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed_at": s.now(),
			"files_found":  result.FilesFound,
			"files_new":    result.FilesNew,
			"status":       result.Status,
			"error_count":  result.ErrorCount,
			"last_error":   result.LastError,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete run %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to complete run %d: %w", id, ErrRecordNotFound)
	}
	return nil
}

// LastCompletedRun returns the most recent finished run of the given type, or nil if there is none.
func (s *SQLiteStore) LastCompletedRun(ctx context.Context, runType string) (*models.SyncRun, error) {
	var runs []models.SyncRun
	err := s.db.WithContext(ctx).
		Where("run_type = ? AND status IN ?", runType, []string{models.RunStatusCompleted, models.RunStatusCompletedWithErrors}).
		Order("completed_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	query := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// Download operations

func (s *SQLiteStore) UpsertDownloadRecord(ctx context.Context, record *models.DownloadRecord) error {
	if record == nil || record.ContentHash == "" {
		return fmt.Errorf("download record requires a content hash")
	}
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = s.now()
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to record download of %s: %w", record.ContentHash, err)
	}
	return nil
}

func (s *SQLiteStore) GetDownloadRecord(ctx context.Context, hash string) (*models.DownloadRecord, error) {
	var record models.DownloadRecord
	err := s.db.WithContext(ctx).Where("content_hash = ?", hash).First(&record).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

func (s *SQLiteStore) CountDownloads(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.DownloadRecord{}).Count(&count).Error
	return count, err
}

// Dedup queries

// pendingRepresentatives selects one file id per hash that has no download record yet.
func (s *SQLiteStore) pendingRepresentatives() *gorm.DB {
	downloaded := s.db.Model(&models.DownloadRecord{}).Select("content_hash")
	return s.db.Model(&models.FileRecord{}).
		Select("MIN(id)").
		Where("content_hash IS NOT NULL").
		Where("content_hash NOT IN (?)", downloaded).
		Group("content_hash")
}

// PendingContent returns one representative record per undownloaded hash, largest first.
func (s *SQLiteStore) PendingContent(ctx context.Context, limit int) ([]models.FileRecord, error) {
	var files []models.FileRecord
	query := s.db.WithContext(ctx).
		Where("id IN (?)", s.pendingRepresentatives()).
		Order("size DESC").
		Order("content_hash ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to query pending content: %w", err)
	}
	return files, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	db := s.db.WithContext(ctx)

	err := db.Raw(`
		SELECT
			COUNT(*) AS total_files,
			COALESCE(SUM(size), 0) AS total_size,
			COUNT(DISTINCT content_hash) AS unique_hashes,
			COUNT(CASE WHEN content_hash IS NULL THEN 1 END) AS unhashed_files
		FROM files
	`).Row().Scan(&stats.TotalFiles, &stats.TotalSize, &stats.UniqueHashes, &stats.UnhashedFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}

	err = db.Raw(`
		SELECT COUNT(*), COALESCE(SUM(f.size), 0)
		FROM downloads d
		LEFT JOIN files f ON f.id = d.source_id
	`).Row().Scan(&stats.DownloadedFiles, &stats.DownloadedSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get download stats: %w", err)
	}

	err = db.Model(&models.FileRecord{}).
		Select("COUNT(*), COALESCE(SUM(size), 0)").
		Where("id IN (?)", s.pendingRepresentatives()).
		Row().Scan(&stats.PendingFiles, &stats.PendingSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending stats: %w", err)
	}

	return &stats, nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

var _ ManifestStore = (*SQLiteStore)(nil)
