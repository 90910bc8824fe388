package manifest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/mwantia/photosync/pkg/db/store"
	"github.com/mwantia/photosync/pkg/log"
)

// DownloadOptions limits a single download run
type DownloadOptions struct {
	// Limit caps the number of candidates processed; zero means no limit
	Limit           int
	VerifyIntegrity bool
}

// DownloadResult counts the outcome of every processed candidate
type DownloadResult struct {
	RunID             uint
	Candidates        int
	Downloaded        int
	Skipped           int
	Failed            int
	RetrievalFailures int
	IntegrityFailures int
	Bytes             int64
	StaleRemoved      int
	Status            string
}

type outcome int

const (
	outcomeDownloaded outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Downloader fetches pending content one hash at a time
type Downloader struct {
	cfg       config.DownloadConfig
	store     store.ManifestStore
	retrieval RetrievalService
	log       log.LoggerService

	progress io.Writer
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewDownloader(cfg config.DownloadConfig, s store.ManifestStore, retrieval RetrievalService, logger log.LoggerService) *Downloader {
	d := &Downloader{
		cfg:       cfg,
		store:     s,
		retrieval: retrieval,
		log:       logger,
		sleep:     sleepContext,
	}
	if cfg.Progress {
		d.progress = os.Stderr
	}
	return d
}

// SetProgressOutput redirects the progress bar; nil disables it
func (d *Downloader) SetProgressOutput(w io.Writer) {
	d.progress = w
}

// Download processes the pending set, largest content first. Item failures are
// counted and never stop the run. An expired session, a cancelled context or a
// failing store write stops the run; the error is returned with the counters.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, error) {
	if err := os.MkdirAll(d.cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	runID, err := d.store.BeginRun(ctx, models.RunTypeDownload)
	if err != nil {
		return nil, fmt.Errorf("failed to begin download run: %w", err)
	}

	result := &DownloadResult{RunID: runID}
	result.StaleRemoved = d.removeStaleParts()

	var fatal error
	var lastError string

	pending, err := d.store.PendingContent(ctx, opts.Limit)
	if err != nil {
		fatal = err
	}
	result.Candidates = len(pending)

	var total int64
	for _, record := range pending {
		total += record.Size
	}
	if fatal == nil {
		d.log.Info("Files to download: %d (%s)", len(pending), humanize.Bytes(uint64(total)))
	}

	bar := d.startProgress(len(pending))

	for idx := range pending {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}

		record := &pending[idx]
		out, n, err := d.process(ctx, record, opts.VerifyIntegrity)
		if bar != nil {
			bar.Increment()
		}

		switch out {
		case outcomeDownloaded:
			result.Downloaded++
			result.Bytes += n
			d.log.Debug("[%d/%d] Downloaded %s (%s)", idx+1, len(pending), record.Name, humanize.Bytes(uint64(n)))
		case outcomeSkipped:
			result.Skipped++
			d.log.Debug("[%d/%d] Skipped (exists): %s", idx+1, len(pending), record.Name)
		case outcomeFailed:
			if isFatal(ctx, err) {
				fatal = err
				break
			}

			result.Failed++
			lastError = err.Error()

			var integrityErr *IntegrityError
			var retrievalErr *remote.RetrievalError
			switch {
			case errors.As(err, &integrityErr):
				result.IntegrityFailures++
				d.log.Warn("[%d/%d] MD5 mismatch for %s: expected %s, got %s", idx+1, len(pending), record.Name, integrityErr.Expected, integrityErr.Actual)
			case errors.As(err, &retrievalErr):
				result.RetrievalFailures++
				d.log.Warn("[%d/%d] Failed to fetch %s: %v", idx+1, len(pending), record.Name, err)
			default:
				d.log.Warn("[%d/%d] Failed %s: %v", idx+1, len(pending), record.Name, err)
			}
		}

		if fatal != nil {
			break
		}
	}

	if bar != nil {
		bar.Finish()
	}

	switch {
	case fatal != nil:
		result.Status = models.RunStatusInterrupted
		lastError = fatal.Error()
	case result.Failed > 0:
		result.Status = models.RunStatusCompletedWithErrors
	default:
		result.Status = models.RunStatusCompleted
	}

	runResult := store.RunResult{
		FilesFound: int64(result.Candidates),
		FilesNew:   int64(result.Downloaded),
		Status:     result.Status,
		ErrorCount: result.Failed,
		LastError:  lastError,
	}
	if err := d.store.CompleteRun(context.WithoutCancel(ctx), runID, runResult); err != nil {
		return result, errors.Join(fatal, fmt.Errorf("failed to complete run %d: %w", runID, err))
	}

	if fatal != nil {
		d.log.Error("Download interrupted: %v", fatal)
		return result, fatal
	}

	d.log.Info("Download %s: %d downloaded, %d skipped, %d failed",
		result.Status, result.Downloaded, result.Skipped, result.Failed)
	return result, nil
}

func (d *Downloader) process(ctx context.Context, record *models.FileRecord, verify bool) (outcome, int64, error) {
	hash := record.Hash()
	path, err := ContentPath(d.cfg.Dir, hash, ExtensionFor(record))
	if err != nil {
		return outcomeFailed, 0, err
	}

	// size match counts as done without rehashing
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() == record.Size {
		err := d.store.UpsertDownloadRecord(ctx, &models.DownloadRecord{
			ContentHash: hash,
			LocalPath:   path,
			SourceID:    record.ID,
			Verified:    false,
		})
		if err != nil {
			return outcomeFailed, 0, fmt.Errorf("%w: %w", errStoreWrite, err)
		}
		return outcomeSkipped, 0, nil
	}

	attempts := d.cfg.Retries + 1
	for attempt := 1; ; attempt++ {
		n, err := d.fetch(ctx, record, hash, path, verify)

		// every attempt is followed by the configured delay, failed or not
		pauseErr := d.sleep(ctx, d.cfg.GetDelay())

		if err == nil {
			err := d.store.UpsertDownloadRecord(ctx, &models.DownloadRecord{
				ContentHash: hash,
				LocalPath:   path,
				SourceID:    record.ID,
				Verified:    verify,
			})
			if err != nil {
				return outcomeFailed, n, fmt.Errorf("%w: %w", errStoreWrite, err)
			}
			return outcomeDownloaded, n, nil
		}

		if attempt >= attempts || isFatal(ctx, err) || !remote.IsRetryable(err) {
			return outcomeFailed, 0, err
		}
		if pauseErr != nil {
			return outcomeFailed, 0, pauseErr
		}

		backoff := time.Duration(attempt) * d.cfg.GetRetryBackoff()
		d.log.Debug("Retrying %s in %s (attempt %d/%d): %v", record.ID, backoff, attempt+1, attempts, err)
		if err := d.sleep(ctx, backoff); err != nil {
			return outcomeFailed, 0, err
		}
	}
}

// fetch streams the content into a temporary file next to path, checks its
// hash and moves it into place.
func (d *Downloader) fetch(ctx context.Context, record *models.FileRecord, hash, path string, verify bool) (int64, error) {
	body, err := d.retrieval.Fetch(ctx, record.ID)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, hash+".*"+partialSuffix)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := md5.New()
	n, copyErr := io.Copy(io.MultiWriter(tmp, hasher), body)
	closeErr := tmp.Close()

	if copyErr != nil {
		os.Remove(tmpPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, &remote.RetrievalError{
			ID:        record.ID,
			Code:      remote.CodeNetworkError,
			Message:   copyErr.Error(),
			Retryable: true,
			Err:       copyErr,
		}
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write %s: %w", tmpPath, closeErr)
	}

	if verify {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, hash) {
			os.Remove(tmpPath)
			removeMismatchedTarget(path, record.Size)
			return 0, &IntegrityError{
				ID:       record.ID,
				Expected: hash,
				Actual:   actual,
			}
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return n, nil
}

// removeStaleParts deletes temporary files left behind by interrupted runs
func (d *Downloader) removeStaleParts() int {
	removed := 0
	_ = filepath.WalkDir(d.cfg.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), partialSuffix) {
			if err := os.Remove(path); err != nil {
				d.log.Warn("Failed to remove stale file %s: %v", path, err)
				return nil
			}
			removed++
		}
		return nil
	})

	if removed > 0 {
		d.log.Info("Removed %d stale partial files", removed)
	}
	return removed
}

// removeMismatchedTarget deletes a leftover file at path whose size does not
// match the expected content.
func removeMismatchedTarget(path string, size int64) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == size {
		return
	}
	os.Remove(path)
}

func (d *Downloader) startProgress(total int) *pb.ProgressBar {
	if d.progress == nil || total == 0 {
		return nil
	}

	bar := pb.New(total)
	bar.SetWriter(d.progress)
	bar.SetTemplate(`{{counters . }} {{bar . }} {{percent . }} {{etime . }}`)
	return bar.Start()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
