package manifest

import (
	"context"
	"errors"

	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/mwantia/photosync/pkg/db/store"
)

type ContentStatus int

const (
	// ContentUnknown means no file record carries the hash
	ContentUnknown ContentStatus = iota
	// ContentPending means the hash is known but not downloaded yet
	ContentPending
	// ContentDownloaded means a download record exists for the hash
	ContentDownloaded
)

func (s ContentStatus) String() string {
	switch s {
	case ContentPending:
		return "pending"
	case ContentDownloaded:
		return "downloaded"
	default:
		return "unknown"
	}
}

// DedupIndex maps content hashes to the records sharing them and to their
// download state. Every lookup queries the store.
type DedupIndex struct {
	store store.ManifestStore
}

func NewDedupIndex(s store.ManifestStore) *DedupIndex {
	return &DedupIndex{store: s}
}

// Files returns every file record carrying hash
func (d *DedupIndex) Files(ctx context.Context, hash string) ([]models.FileRecord, error) {
	return d.store.FilesByContentHash(ctx, hash)
}

// Status classifies hash and returns its download record when there is one
func (d *DedupIndex) Status(ctx context.Context, hash string) (ContentStatus, *models.DownloadRecord, error) {
	if hash == "" {
		return ContentUnknown, nil, nil
	}

	known, err := d.store.HasContentHash(ctx, hash)
	if err != nil {
		return ContentUnknown, nil, err
	}
	if !known {
		return ContentUnknown, nil, nil
	}

	record, err := d.store.GetDownloadRecord(ctx, hash)
	if errors.Is(err, store.ErrRecordNotFound) {
		return ContentPending, nil, nil
	}
	if err != nil {
		return ContentUnknown, nil, err
	}
	return ContentDownloaded, record, nil
}
