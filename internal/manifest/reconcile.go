package manifest

import (
	"context"
	"errors"
	"fmt"
	"iter"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/mwantia/photosync/pkg/db/store"
	"github.com/mwantia/photosync/pkg/log"
)

// RunSummary is the outcome of one reconcile pass
type RunSummary struct {
	RunID           uint
	FilesFound      int64
	FilesNew        int64
	TotalFiles      int64
	UniqueHashes    int64
	Duplicates      int64
	PartitionErrors int
	Status          string
}

// Reconciler merges observed remote items into the manifest
type Reconciler struct {
	store store.ManifestStore
	log   log.LoggerService
}

func NewReconciler(s store.ManifestStore, logger log.LoggerService) *Reconciler {
	return &Reconciler{
		store: s,
		log:   logger,
	}
}

// Reconcile consumes items and upserts every distinct id once. Partition
// errors are counted and the run ends as completed_with_errors; any other
// error stops the pass, marks the run interrupted and is returned together
// with the summary so far.
func (r *Reconciler) Reconcile(ctx context.Context, items iter.Seq2[remote.Item, error]) (*RunSummary, error) {
	runID, err := r.store.BeginRun(ctx, models.RunTypeEnumerate)
	if err != nil {
		return nil, fmt.Errorf("failed to begin enumerate run: %w", err)
	}

	summary := &RunSummary{RunID: runID}
	seen := mapset.NewThreadUnsafeSet[string]()

	var fatal error
	var lastError string

	for item, err := range items {
		if err != nil {
			var partitionErr *remote.PartitionError
			if errors.As(err, &partitionErr) {
				summary.PartitionErrors++
				lastError = err.Error()
				r.log.Warn("Skipping partition: %v", err)
				continue
			}

			fatal = err
			break
		}

		if item.ID == "" || seen.Contains(item.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}

		record := fileRecordFromItem(item)
		created, err := r.store.UpsertFileRecord(ctx, &record)
		if err != nil {
			fatal = fmt.Errorf("%w: %w", errStoreWrite, err)
			break
		}

		seen.Add(item.ID)
		summary.FilesFound++
		if created {
			summary.FilesNew++
			r.log.Debug("New file %s (%s)", record.ID, record.Name)
		}
	}

	switch {
	case fatal != nil:
		summary.Status = models.RunStatusInterrupted
		lastError = fatal.Error()
	case summary.PartitionErrors > 0:
		summary.Status = models.RunStatusCompletedWithErrors
	default:
		summary.Status = models.RunStatusCompleted
	}

	// finalize even when ctx was cancelled
	finalizeCtx := context.WithoutCancel(ctx)
	result := store.RunResult{
		FilesFound: summary.FilesFound,
		FilesNew:   summary.FilesNew,
		Status:     summary.Status,
		ErrorCount: summary.PartitionErrors,
		LastError:  lastError,
	}
	if err := r.store.CompleteRun(finalizeCtx, runID, result); err != nil {
		return summary, errors.Join(fatal, fmt.Errorf("failed to complete run %d: %w", runID, err))
	}

	if fatal != nil {
		r.log.Error("Enumeration interrupted after %d items: %v", summary.FilesFound, fatal)
		return summary, fatal
	}

	stats, err := r.store.Stats(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to read manifest stats: %w", err)
	}
	summary.TotalFiles = stats.TotalFiles
	summary.UniqueHashes = stats.UniqueHashes
	summary.Duplicates = stats.Duplicates()

	r.log.Info("Enumeration %s: %d found, %d new, %d total, %d unique",
		summary.Status, summary.FilesFound, summary.FilesNew, summary.TotalFiles, summary.UniqueHashes)

	return summary, nil
}
