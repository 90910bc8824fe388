package manifest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"iter"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/store"
	"github.com/mwantia/photosync/pkg/log"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "manifest.db"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// listing yields the given entries in order; an entry with a non-nil err is yielded as error
type entry struct {
	item remote.Item
	err  error
}

func listing(entries ...entry) iter.Seq2[remote.Item, error] {
	return func(yield func(remote.Item, error) bool) {
		for _, e := range entries {
			if !yield(e.item, e.err) {
				return
			}
		}
	}
}

func items(list ...remote.Item) iter.Seq2[remote.Item, error] {
	entries := make([]entry, 0, len(list))
	for _, item := range list {
		entries = append(entries, entry{item: item})
	}
	return listing(entries...)
}

func photo(id, hash string, size int64) remote.Item {
	return remote.Item{
		ID:   id,
		Name: id + ".jpg",
		ContentProperties: remote.ContentProperties{
			MD5:         hash,
			Size:        size,
			ContentType: "image/jpeg",
			Extension:   "JPG",
		},
	}
}

// fakeRetrieval serves fixed payloads and records every fetch
type fakeRetrieval struct {
	mutex    sync.Mutex
	payloads map[string][]byte
	errs     map[string][]error
	calls    map[string]int
}

func newFakeRetrieval() *fakeRetrieval {
	return &fakeRetrieval{
		payloads: make(map[string][]byte),
		errs:     make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeRetrieval) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.calls[id]++
	if queued := f.errs[id]; len(queued) > 0 {
		f.errs[id] = queued[1:]
		return nil, queued[0]
	}

	payload, ok := f.payloads[id]
	if !ok {
		return nil, &remote.RetrievalError{ID: id, Code: remote.CodeNotFound, StatusCode: 404}
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (f *fakeRetrieval) Calls(id string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls[id]
}

func testDownloadConfig(dir string) config.DownloadConfig {
	return config.DownloadConfig{
		Dir:          dir,
		Verify:       true,
		Delay:        "0s",
		RetryBackoff: "0s",
	}
}

func newTestDownloader(t *testing.T, s store.ManifestStore, retrieval RetrievalService, cfg config.DownloadConfig) *Downloader {
	t.Helper()

	d := NewDownloader(cfg, s, retrieval, log.NewDiscardLogger())
	d.SetProgressOutput(nil)
	return d
}
