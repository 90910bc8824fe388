package models

import (
	"time"
)

// FileRecord represents a single remote item that has been observed at least once.
// Rows are never deleted; the table is an append-only presence ledger.
type FileRecord struct {
	ID   string `gorm:"primaryKey;type:text"`
	Name string `gorm:"type:text"`

	// Content metadata. ContentHash stays NULL until the remote reports it,
	// such records are tracked but excluded from dedup and downloads.
	ContentHash *string `gorm:"type:text;index:idx_files_content_hash"`
	Size        int64   `gorm:"not null;default:0"`
	ContentType string  `gorm:"type:text"`
	Extension   string  `gorm:"type:text"`

	// Remote timestamps
	CreatedDate  *time.Time
	ModifiedDate *time.Time
	ContentDate  *time.Time
	Source       string `gorm:"type:text"`

	// Ledger timestamps
	FirstSeen time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"not null;index:idx_files_last_seen"`
}

func (FileRecord) TableName() string {
	return "files"
}

// Hash returns the content hash or an empty string if it is unknown.
func (f *FileRecord) Hash() string {
	if f.ContentHash == nil {
		return ""
	}
	return *f.ContentHash
}
