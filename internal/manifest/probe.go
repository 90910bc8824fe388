package manifest

import (
	"context"
	"errors"
	"fmt"
	"iter"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/store"
	"github.com/mwantia/photosync/pkg/log"
)

// MaxVerifySamples bounds each sample list kept in a VerifyReport
const MaxVerifySamples = 20

// NewItem describes a remote item missing from the manifest
type NewItem struct {
	ID      string
	Name    string
	Hash    string
	Size    int64
	Created string

	// DuplicateOf lists the manifest ids already carrying the same hash
	DuplicateOf []string
}

// VerifyReport classifies items seen by a probe scan that the manifest does not know
type VerifyReport struct {
	ManifestFiles   int64
	ManifestHashes  int64
	Scanned         int
	NewFiles        int
	TrulyNew        int
	Duplicates      int
	PartitionErrors int
	Samples         []NewItem

	DuplicateSamples []NewItem
}

// Probe compares a partial scan against the manifest without writing to it
type Probe struct {
	store store.ManifestStore
	index *DedupIndex
	log   log.LoggerService
}

func NewProbe(s store.ManifestStore, logger log.LoggerService) *Probe {
	return &Probe{
		store: s,
		index: NewDedupIndex(s),
		log:   logger,
	}
}

// Verify classifies every unknown item as duplicate content when its hash is
// already in the manifest, else as truly new.
func (p *Probe) Verify(ctx context.Context, items iter.Seq2[remote.Item, error]) (*VerifyReport, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest stats: %w", err)
	}

	report := &VerifyReport{
		ManifestFiles:  stats.TotalFiles,
		ManifestHashes: stats.UniqueHashes,
	}
	seen := mapset.NewThreadUnsafeSet[string]()

	for item, err := range items {
		if err != nil {
			var partitionErr *remote.PartitionError
			if errors.As(err, &partitionErr) {
				report.PartitionErrors++
				p.log.Warn("Skipping partition: %v", err)
				continue
			}
			return report, err
		}

		if item.ID == "" || !seen.Add(item.ID) {
			continue
		}
		report.Scanned++

		known, err := p.store.HasFileRecord(ctx, item.ID)
		if err != nil {
			return report, err
		}
		if known {
			continue
		}
		report.NewFiles++

		hash := ""
		if h := item.Hash(); h != nil {
			hash = *h
		}

		status, _, err := p.index.Status(ctx, hash)
		if err != nil {
			return report, err
		}
		if status != ContentUnknown {
			report.Duplicates++
			if len(report.DuplicateSamples) < MaxVerifySamples {
				sample, err := p.duplicateSample(ctx, item, hash)
				if err != nil {
					return report, err
				}
				report.DuplicateSamples = append(report.DuplicateSamples, sample)
			}
			continue
		}

		report.TrulyNew++
		if len(report.Samples) < MaxVerifySamples {
			report.Samples = append(report.Samples, NewItem{
				ID:      item.ID,
				Name:    item.Name,
				Hash:    hash,
				Size:    item.ContentProperties.Size,
				Created: item.CreatedDate,
			})
		}
	}

	p.log.Info("Verify scanned %d items: %d new (%d truly new, %d duplicates)",
		report.Scanned, report.NewFiles, report.TrulyNew, report.Duplicates)
	return report, nil
}

func (p *Probe) duplicateSample(ctx context.Context, item remote.Item, hash string) (NewItem, error) {
	files, err := p.index.Files(ctx, hash)
	if err != nil {
		return NewItem{}, err
	}

	sample := NewItem{
		ID:      item.ID,
		Name:    item.Name,
		Hash:    hash,
		Size:    item.ContentProperties.Size,
		Created: item.CreatedDate,
	}
	for _, file := range files {
		sample.DuplicateOf = append(sample.DuplicateOf, file.ID)
	}
	return sample, nil
}
