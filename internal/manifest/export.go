package manifest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/mwantia/photosync/pkg/db/store"
)

const exportPageSize = 500

type exportRow struct {
	ID          string     `csv:"id"`
	Name        string     `csv:"name"`
	ContentHash string     `csv:"content_hash"`
	Size        int64      `csv:"size"`
	ContentType string     `csv:"content_type"`
	Extension   string     `csv:"extension"`
	ContentDate *time.Time `csv:"content_date,omitempty"`
	Source      string     `csv:"source"`
	FirstSeen   time.Time  `csv:"first_seen"`
	LastSeen    time.Time  `csv:"last_seen"`
	Status      string     `csv:"status"`
	LocalPath   string     `csv:"local_path,omitempty"`
}

// Exporter writes the manifest as CSV
type Exporter struct {
	store store.ManifestStore
	index *DedupIndex
}

func NewExporter(s store.ManifestStore) *Exporter {
	return &Exporter{
		store: s,
		index: NewDedupIndex(s),
	}
}

// Export writes one row per file record and returns the number of rows
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	writer := csv.NewWriter(w)
	encoder := csvutil.NewEncoder(writer)
	encoder.AutoHeader = false

	if err := encoder.EncodeHeader(exportRow{}); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := 0
	for offset := 0; ; offset += exportPageSize {
		records, err := e.store.ListFileRecords(ctx, exportPageSize, offset)
		if err != nil {
			return rows, fmt.Errorf("failed to list file records: %w", err)
		}

		for _, record := range records {
			status, download, err := e.index.Status(ctx, record.Hash())
			if err != nil {
				return rows, err
			}

			row := exportRow{
				ID:          record.ID,
				Name:        record.Name,
				ContentHash: record.Hash(),
				Size:        record.Size,
				ContentType: record.ContentType,
				Extension:   record.Extension,
				ContentDate: record.ContentDate,
				Source:      record.Source,
				FirstSeen:   record.FirstSeen,
				LastSeen:    record.LastSeen,
				Status:      status.String(),
			}
			if download != nil {
				row.LocalPath = download.LocalPath
			}

			if err := encoder.Encode(row); err != nil {
				return rows, fmt.Errorf("failed to encode %s: %w", record.ID, err)
			}
			rows++
		}

		if len(records) < exportPageSize {
			break
		}
	}

	writer.Flush()
	return rows, writer.Error()
}
