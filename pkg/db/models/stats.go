package models

// Stats is an aggregate view over the manifest tables
type Stats struct {
	TotalFiles    int64
	TotalSize     int64
	UniqueHashes  int64
	UnhashedFiles int64

	DownloadedFiles int64
	DownloadedSize  int64

	PendingFiles int64
	PendingSize  int64
}

// Duplicates returns the number of hashed records that share content with another record.
func (s *Stats) Duplicates() int64 {
	return s.TotalFiles - s.UnhashedFiles - s.UniqueHashes
}
