package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/mwantia/photosync/pkg/db/store"
)

// DiskUsage is the result of walking the download directory
type DiskUsage struct {
	Dir          string
	Exists       bool
	Files        int64
	Bytes        int64
	PartialFiles int64
}

type StatusReport struct {
	Stats         models.Stats
	Progress      float64
	LastEnumerate *models.SyncRun
	LastDownload  *models.SyncRun
	Disk          DiskUsage
}

// Reporter aggregates manifest state and cross-checks it against the disk
type Reporter struct {
	store store.ManifestStore
	dir   string
}

func NewReporter(s store.ManifestStore, downloadDir string) *Reporter {
	return &Reporter{
		store: s,
		dir:   downloadDir,
	}
}

func (r *Reporter) Report(ctx context.Context) (*StatusReport, error) {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest stats: %w", err)
	}

	report := &StatusReport{Stats: *stats}
	if stats.UniqueHashes > 0 {
		report.Progress = float64(stats.DownloadedFiles) / float64(stats.UniqueHashes) * 100
	}

	if report.LastEnumerate, err = r.store.LastCompletedRun(ctx, models.RunTypeEnumerate); err != nil {
		return nil, fmt.Errorf("failed to read last enumerate run: %w", err)
	}
	if report.LastDownload, err = r.store.LastCompletedRun(ctx, models.RunTypeDownload); err != nil {
		return nil, fmt.Errorf("failed to read last download run: %w", err)
	}

	disk, err := scanDisk(r.dir)
	if err != nil {
		return nil, err
	}
	report.Disk = *disk

	return report, nil
}

func scanDisk(dir string) (*DiskUsage, error) {
	usage := &DiskUsage{Dir: dir}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return usage, nil
		}
		return nil, fmt.Errorf("failed to stat download directory: %w", err)
	}
	usage.Exists = true

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		if strings.HasSuffix(entry.Name(), partialSuffix) {
			usage.PartialFiles++
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		usage.Files++
		usage.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan download directory: %w", err)
	}

	return usage, nil
}
