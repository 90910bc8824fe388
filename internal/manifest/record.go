package manifest

import (
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/models"
)

func fileRecordFromItem(item remote.Item) models.FileRecord {
	props := item.ContentProperties

	name := item.Name
	if name == "" {
		name = "unknown"
	}
	source := item.CreatedBy
	if source == "" {
		source = "unknown"
	}

	return models.FileRecord{
		ID:           item.ID,
		Name:         name,
		ContentHash:  item.Hash(),
		Size:         props.Size,
		ContentType:  props.ContentType,
		Extension:    props.Extension,
		CreatedDate:  remote.ParseTime(item.CreatedDate),
		ModifiedDate: remote.ParseTime(item.ModifiedDate),
		ContentDate:  remote.ParseTime(props.ContentDate),
		Source:       source,
	}
}
