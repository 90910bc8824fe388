package remote

import (
	"strings"
	"time"
)

// Item is a raw record as returned by the remote search endpoint
type Item struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Kind              string            `json:"kind,omitempty"`
	CreatedDate       string            `json:"createdDate,omitempty"`
	ModifiedDate      string            `json:"modifiedDate,omitempty"`
	CreatedBy         string            `json:"createdBy,omitempty"`
	ContentProperties ContentProperties `json:"contentProperties"`
}

type ContentProperties struct {
	MD5         string `json:"md5,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
	Extension   string `json:"extension,omitempty"`
	ContentDate string `json:"contentDate,omitempty"`
}

type searchResponse struct {
	Count int    `json:"count"`
	Data  []Item `json:"data"`
}

// Hash returns the lower-cased MD5 or nil if the remote did not report one
func (i Item) Hash() *string {
	md5 := strings.ToLower(strings.TrimSpace(i.ContentProperties.MD5))
	if md5 == "" {
		return nil
	}
	return &md5
}

// ParseTime parses a remote timestamp. Empty or malformed values yield nil.
func ParseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
