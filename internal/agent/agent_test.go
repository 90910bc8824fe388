package agent

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/internal/manifest"
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/mwantia/photosync/pkg/db/store"
	"github.com/mwantia/photosync/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	items    []remote.Item
	payloads map[string][]byte
	scopes   []remote.Scope
}

func (f *fakeRemote) Items(ctx context.Context, scope remote.Scope) iter.Seq2[remote.Item, error] {
	f.scopes = append(f.scopes, scope)
	return func(yield func(remote.Item, error) bool) {
		for _, item := range f.items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (f *fakeRemote) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	payload, ok := f.payloads[id]
	if !ok {
		return nil, &remote.RetrievalError{ID: id, Code: remote.CodeNotFound}
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func newFakeRemote(payloads map[string]string) *fakeRemote {
	f := &fakeRemote{payloads: make(map[string][]byte)}
	for id, payload := range payloads {
		sum := md5.Sum([]byte(payload))
		f.items = append(f.items, remote.Item{
			ID:   id,
			Name: id + ".png",
			ContentProperties: remote.ContentProperties{
				MD5:         hex.EncodeToString(sum[:]),
				Size:        int64(len(payload)),
				ContentType: "image/png",
			},
		})
		f.payloads[id] = []byte(payload)
	}
	return f
}

func testConfig(t *testing.T) *config.BaseConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetDefault()
	cfg.Store.Path = filepath.Join(dir, "data", "manifest.db")
	cfg.Remote.SessionFile = filepath.Join(dir, "data", "session.json")
	cfg.Download.Dir = filepath.Join(dir, "downloads")
	cfg.Download.Delay = "0s"
	cfg.Download.Progress = false
	cfg.ShutdownTimeout = "1s"
	return &cfg
}

func openAgent(t *testing.T, cfg *config.BaseConfig, opts ...Option) *SyncAgent {
	t.Helper()

	opts = append(opts, WithLogger(log.NewDiscardLogger()))
	a := NewAgent(cfg, opts...)
	require.NoError(t, a.Open(context.Background()))
	t.Cleanup(func() {
		_ = a.Close()
	})
	return a
}

func TestAgent_ReconcileDownloadStatus(t *testing.T) {
	cfg := testConfig(t)
	fake := newFakeRemote(map[string]string{
		"p1": "first picture",
		"p2": "second picture, a bit longer",
	})
	a := openAgent(t, cfg, WithListingSource(fake), WithRetrievalService(fake))
	ctx := context.Background()

	summary, err := a.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.FilesNew)
	assert.Equal(t, []remote.Scope{remote.ScopeFull}, fake.scopes)

	result, err := a.Download(ctx, manifest.DownloadOptions{VerifyIntegrity: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downloaded)

	report, err := a.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Stats.DownloadedFiles)
	assert.InDelta(t, 100.0, report.Progress, 0.001)
	assert.Equal(t, int64(2), report.Disk.Files)
	require.NotNil(t, report.LastEnumerate)

	var buf bytes.Buffer
	rows, err := a.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, strings.Count(buf.String(), "downloaded"))

	// the lock is released after each mutating run
	other := store.NewLock(cfg.Store.Path)
	require.NoError(t, other.Lock())
	require.NoError(t, other.Unlock())
}

func TestAgent_VerifyUsesProbeScope(t *testing.T) {
	cfg := testConfig(t)
	fake := newFakeRemote(map[string]string{"p1": "picture"})
	a := openAgent(t, cfg, WithListingSource(fake), WithRetrievalService(fake))

	report, err := a.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TrulyNew)
	assert.Equal(t, []remote.Scope{remote.ScopeProbe}, fake.scopes)
}

func TestAgent_LockedStoreRejectsMutation(t *testing.T) {
	cfg := testConfig(t)
	fake := newFakeRemote(map[string]string{"p1": "picture"})
	a := openAgent(t, cfg, WithListingSource(fake), WithRetrievalService(fake))
	ctx := context.Background()

	other := store.NewLock(cfg.Store.Path)
	require.NoError(t, other.Lock())
	defer other.Unlock()

	_, err := a.Reconcile(ctx, false)
	assert.ErrorIs(t, err, store.ErrStoreLocked)

	_, err = a.Download(ctx, manifest.DownloadOptions{VerifyIntegrity: true})
	assert.ErrorIs(t, err, store.ErrStoreLocked)

	// read-only operations ignore the lock
	report, err := a.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Stats.TotalFiles)
	assert.Nil(t, report.LastEnumerate)
}

func TestAgent_MissingSessionFailsBeforeMutation(t *testing.T) {
	cfg := testConfig(t)
	a := openAgent(t, cfg)
	ctx := context.Background()

	_, err := a.Reconcile(ctx, false)
	assert.ErrorIs(t, err, remote.ErrSessionMissing)

	_, err = a.Download(ctx, manifest.DownloadOptions{})
	assert.ErrorIs(t, err, remote.ErrSessionMissing)

	_, err = a.Verify(ctx)
	assert.ErrorIs(t, err, remote.ErrSessionMissing)

	s, err := a.manifestStore(ctx)
	require.NoError(t, err)
	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAgent_NotOpen(t *testing.T) {
	cfg := testConfig(t)
	a := NewAgent(cfg, WithLogger(log.NewDiscardLogger()))

	assert.False(t, a.ManifestExists())

	_, err := a.Status(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestAgent_LastRunsRecorded(t *testing.T) {
	cfg := testConfig(t)
	fake := newFakeRemote(map[string]string{"p1": "picture"})
	a := openAgent(t, cfg, WithListingSource(fake), WithRetrievalService(fake))
	ctx := context.Background()

	_, err := a.Reconcile(ctx, false)
	require.NoError(t, err)
	_, err = a.Download(ctx, manifest.DownloadOptions{Limit: 5, VerifyIntegrity: true})
	require.NoError(t, err)

	report, err := a.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, report.LastDownload)
	assert.Equal(t, models.RunStatusCompleted, report.LastDownload.Status)
	assert.True(t, a.ManifestExists())
}

func TestAgent_OpenExistingDoesNotCreateManifest(t *testing.T) {
	cfg := testConfig(t)

	a := NewAgent(cfg, WithLogger(log.NewDiscardLogger()))
	err := a.OpenExisting(context.Background())
	assert.ErrorIs(t, err, ErrNoManifest)
	assert.False(t, a.ManifestExists())
	assert.NoFileExists(t, cfg.Store.Path)

	created := openAgent(t, cfg)
	require.NoError(t, created.Close())

	reopened := NewAgent(cfg, WithLogger(log.NewDiscardLogger()))
	require.NoError(t, reopened.OpenExisting(context.Background()))
	t.Cleanup(func() {
		_ = reopened.Close()
	})

	report, err := reopened.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Stats.TotalFiles)
}

func TestAgent_ComponentsGetNamedLoggers(t *testing.T) {
	cfg := testConfig(t)
	fake := newFakeRemote(map[string]string{"p1": "picture"})

	var buf bytes.Buffer
	logger := log.NewLoggerServiceWithWriter("photosync", config.LogConfig{Level: "DEBUG", NoColor: true, NoTerminal: true}, &buf)

	a := NewAgent(cfg, WithLogger(logger), WithListingSource(fake), WithRetrievalService(fake))
	require.NoError(t, a.Open(context.Background()))
	t.Cleanup(func() {
		_ = a.Close()
	})

	_, err := a.Reconcile(context.Background(), false)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[photosync/reconcile] New file p1")
}
