package models

import (
	"time"
)

// DownloadRecord marks a content hash as retrieved. There is at most one row per
// hash, regardless of how many FileRecords share it.
type DownloadRecord struct {
	ContentHash  string    `gorm:"primaryKey;type:text"`
	LocalPath    string    `gorm:"type:text;not null"`
	DownloadedAt time.Time `gorm:"not null"`
	SourceID     string    `gorm:"type:text;not null;index:idx_downloads_source"`
	Verified     bool      `gorm:"default:false"`
}

func (DownloadRecord) TableName() string {
	return "downloads"
}
