package manifest

import (
	"context"
	"io"
	"iter"

	"github.com/mwantia/photosync/internal/remote"
)

// ListingSource yields raw remote items for the partitions of a scope.
// Each partition is scanned until it stops growing.
type ListingSource interface {
	Items(ctx context.Context, scope remote.Scope) iter.Seq2[remote.Item, error]
}

// RetrievalService returns the raw content of a remote item
type RetrievalService interface {
	Fetch(ctx context.Context, id string) (io.ReadCloser, error)
}

var (
	_ ListingSource    = (*remote.Client)(nil)
	_ RetrievalService = (*remote.Client)(nil)
)
