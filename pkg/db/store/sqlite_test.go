package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*SQLiteStore, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s, err := NewSQLiteStore(SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "manifest.db"),
		NowFunc: clock.Now,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, clock
}

func hash(s string) *string {
	return &s
}

func TestUpsertFileRecord_NewThenTouched(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	created, err := s.UpsertFileRecord(ctx, &models.FileRecord{ID: "a1", Name: "one.jpg", ContentHash: hash("h1"), Size: 100})
	require.NoError(t, err)
	assert.True(t, created)

	first, err := s.GetFileRecord(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, first.FirstSeen.Equal(first.LastSeen))

	clock.Advance(time.Hour)

	created, err = s.UpsertFileRecord(ctx, &models.FileRecord{ID: "a1", Name: "renamed.jpg", ContentHash: hash("other"), Size: 5})
	require.NoError(t, err)
	assert.False(t, created)

	second, err := s.GetFileRecord(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "one.jpg", second.Name)
	assert.Equal(t, "h1", second.Hash())
	assert.Equal(t, int64(100), second.Size)
	assert.True(t, second.FirstSeen.Equal(first.FirstSeen))
	assert.True(t, second.LastSeen.After(first.LastSeen))
}

func TestUpsertFileRecord_BackfillsMissingHash(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, err := s.UpsertFileRecord(ctx, &models.FileRecord{ID: "x", Name: "pending.mov"})
	require.NoError(t, err)
	assert.True(t, created)

	pending, err := s.PendingContent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	created, err = s.UpsertFileRecord(ctx, &models.FileRecord{ID: "x", ContentHash: hash("hx"), Size: 42})
	require.NoError(t, err)
	assert.False(t, created)

	record, err := s.GetFileRecord(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "hx", record.Hash())
	assert.Equal(t, int64(42), record.Size)
}

func TestUpsertFileRecord_RequiresID(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.UpsertFileRecord(context.Background(), &models.FileRecord{Name: "anonymous"})
	assert.Error(t, err)
}

func TestGetFileRecord_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetFileRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = s.GetDownloadRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPendingContent_DistinctLargestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	records := []models.FileRecord{
		{ID: "a2", ContentHash: hash("h1"), Size: 100},
		{ID: "a1", ContentHash: hash("h1"), Size: 100},
		{ID: "b1", ContentHash: hash("h2"), Size: 200},
		{ID: "c1", ContentHash: hash("h3"), Size: 50},
		{ID: "n1", Size: 999},
	}
	for i := range records {
		_, err := s.UpsertFileRecord(ctx, &records[i])
		require.NoError(t, err)
	}

	pending, err := s.PendingContent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "h2", pending[0].Hash())
	assert.Equal(t, "h1", pending[1].Hash())
	assert.Equal(t, "a1", pending[1].ID)
	assert.Equal(t, "h3", pending[2].Hash())

	limited, err := s.PendingContent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "h2", limited[0].Hash())

	require.NoError(t, s.UpsertDownloadRecord(ctx, &models.DownloadRecord{
		ContentHash: "h2",
		LocalPath:   "/tmp/h2.jpg",
		SourceID:    "b1",
		Verified:    true,
	}))

	pending, err = s.PendingContent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, record := range pending {
		assert.NotEqual(t, "h2", record.Hash())
	}
}

func TestUpsertDownloadRecord_ReplacesByHash(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertDownloadRecord(ctx, &models.DownloadRecord{ContentHash: "h1", LocalPath: "old", SourceID: "a1"}))
	require.NoError(t, s.UpsertDownloadRecord(ctx, &models.DownloadRecord{ContentHash: "h1", LocalPath: "new", SourceID: "a2", Verified: true}))

	count, err := s.CountDownloads(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	record, err := s.GetDownloadRecord(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "new", record.LocalPath)
	assert.Equal(t, "a2", record.SourceID)
	assert.True(t, record.Verified)

	assert.Error(t, s.UpsertDownloadRecord(ctx, &models.DownloadRecord{LocalPath: "nohash"}))
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	records := []models.FileRecord{
		{ID: "a1", ContentHash: hash("h1"), Size: 100},
		{ID: "a2", ContentHash: hash("h1"), Size: 100},
		{ID: "b1", ContentHash: hash("h2"), Size: 200},
		{ID: "n1", Size: 7},
	}
	for i := range records {
		_, err := s.UpsertFileRecord(ctx, &records[i])
		require.NoError(t, err)
	}
	require.NoError(t, s.UpsertDownloadRecord(ctx, &models.DownloadRecord{ContentHash: "h2", LocalPath: "p", SourceID: "b1"}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalFiles)
	assert.Equal(t, int64(407), stats.TotalSize)
	assert.Equal(t, int64(2), stats.UniqueHashes)
	assert.Equal(t, int64(1), stats.UnhashedFiles)
	assert.Equal(t, int64(1), stats.Duplicates())
	assert.Equal(t, int64(1), stats.DownloadedFiles)
	assert.Equal(t, int64(200), stats.DownloadedSize)
	assert.Equal(t, int64(1), stats.PendingFiles)
	assert.Equal(t, int64(100), stats.PendingSize)
}

func TestRuns_LastCompleted(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	last, err := s.LastCompletedRun(ctx, models.RunTypeEnumerate)
	require.NoError(t, err)
	assert.Nil(t, last)

	first, err := s.BeginRun(ctx, models.RunTypeEnumerate)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	require.NoError(t, s.CompleteRun(ctx, first, RunResult{FilesFound: 3, FilesNew: 3, Status: models.RunStatusCompleted}))

	clock.Advance(time.Minute)
	second, err := s.BeginRun(ctx, models.RunTypeEnumerate)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	require.NoError(t, s.CompleteRun(ctx, second, RunResult{FilesFound: 1, Status: models.RunStatusCompletedWithErrors, ErrorCount: 2, LastError: "timeout"}))

	// interrupted runs never count as completed
	third, err := s.BeginRun(ctx, models.RunTypeEnumerate)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, third, RunResult{Status: models.RunStatusInterrupted}))

	// still running
	_, err = s.BeginRun(ctx, models.RunTypeDownload)
	require.NoError(t, err)

	last, err = s.LastCompletedRun(ctx, models.RunTypeEnumerate)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second, last.ID)
	assert.Equal(t, models.RunStatusCompletedWithErrors, last.Status)
	assert.Equal(t, 2, last.ErrorCount)
	assert.Equal(t, "timeout", last.LastError)
	require.NotNil(t, last.CompletedAt)

	download, err := s.LastCompletedRun(ctx, models.RunTypeDownload)
	require.NoError(t, err)
	assert.Nil(t, download)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
	assert.Equal(t, models.RunStatusRunning, runs[0].Status)

	assert.ErrorIs(t, s.CompleteRun(ctx, 999, RunResult{Status: models.RunStatusCompleted}), ErrRecordNotFound)
}

func TestFilesByContentHash(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		_, err := s.UpsertFileRecord(ctx, &models.FileRecord{ID: id, ContentHash: hash("shared"), Size: 1})
		require.NoError(t, err)
	}

	files, err := s.FilesByContentHash(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a", files[0].ID)

	ok, err := s.HasContentHash(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasContentHash(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasFileRecord(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	page, err := s.ListFileRecords(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)
}

func TestLock_SecondHolderFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")

	first := NewLock(path)
	require.NoError(t, first.Lock())
	assert.FileExists(t, first.Path())

	second := NewLock(path)
	assert.ErrorIs(t, second.Lock(), ErrStoreLocked)
	assert.NoError(t, second.Unlock())

	require.NoError(t, first.Unlock())
	assert.False(t, first.Locked())

	// the file is kept so later holders lock the same inode
	assert.FileExists(t, first.Path())

	require.NoError(t, second.Lock())
	assert.True(t, second.Locked())
	assert.ErrorIs(t, first.Lock(), ErrStoreLocked)
	require.NoError(t, second.Unlock())
}

func TestConnect_AppliesPragmas(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var mode string
	require.NoError(t, s.DB().WithContext(ctx).Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	assert.NoError(t, s.Health(ctx))
}
