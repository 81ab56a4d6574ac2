package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coursestream/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(userID, fileID string) string { return userID + "|" + fileID }

type fakeRepo struct {
	mu         sync.Mutex
	entries    map[string]*models.ProgressEntry
	failUpsert bool
	failGet    bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: map[string]*models.ProgressEntry{}}
}

func (r *fakeRepo) Upsert(_ context.Context, entry *models.ProgressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsert {
		return errors.New("durable store down")
	}
	copy := *entry
	r.entries[key(entry.UserID, entry.FileID)] = &copy
	return nil
}

func (r *fakeRepo) Get(_ context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return nil, errors.New("durable store down")
	}
	if entry, ok := r.entries[key(userID, fileID)]; ok {
		copy := *entry
		return &copy, nil
	}
	return nil, ErrNotFound
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*models.ProgressEntry
	dirty   map[string]bool
	failSet bool
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*models.ProgressEntry{}, dirty: map[string]bool{}}
}

func (c *fakeCache) GetEntry(_ context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("cache down")
	}
	if entry, ok := c.entries[key(userID, fileID)]; ok {
		copy := *entry
		return &copy, nil
	}
	return nil, nil
}

func (c *fakeCache) SetEntry(_ context.Context, entry *models.ProgressEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache down")
	}
	copy := *entry
	c.entries[key(entry.UserID, entry.FileID)] = &copy
	return nil
}

func (c *fakeCache) MarkDirty(_ context.Context, userID, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[key(userID, fileID)] = true
	return nil
}

func (c *fakeCache) ClearDirty(_ context.Context, userID, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dirty, key(userID, fileID))
	return nil
}

func (c *fakeCache) DirtyEntries(_ context.Context) ([]*models.ProgressEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*models.ProgressEntry
	for k := range c.dirty {
		if entry, ok := c.entries[k]; ok {
			copy := *entry
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (c *fakeCache) has(userID, fileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key(userID, fileID)]
	return ok
}

type fakeBackup struct {
	mu       sync.Mutex
	docs     map[string]*models.ProgressEntry
	failSave bool
}

func newFakeBackup() *fakeBackup {
	return &fakeBackup{docs: map[string]*models.ProgressEntry{}}
}

func (b *fakeBackup) Save(_ context.Context, entry *models.ProgressEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSave {
		return errors.New("backup down")
	}
	copy := *entry
	b.docs[key(entry.UserID, entry.FileID)] = &copy
	return nil
}

func (b *fakeBackup) Load(_ context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.docs[key(userID, fileID)]; ok {
		copy := *entry
		return &copy, nil
	}
	return nil, ErrNotFound
}

func (b *fakeBackup) has(userID, fileID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.docs[key(userID, fileID)]
	return ok
}

type fakeFiles struct {
	files map[string]*models.File
}

func (f *fakeFiles) FileByID(_ context.Context, fileID string) (*models.File, error) {
	if file, ok := f.files[fileID]; ok {
		return file, nil
	}
	return nil, ErrNotFound
}

func testFiles() *fakeFiles {
	return &fakeFiles{files: map[string]*models.File{
		"file-1": {ID: "file-1", LessonID: "lesson-1", CourseID: "course-1"},
	}}
}

func TestWriteReadRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo, nil, nil, testFiles(), nil, nil)

	entry, _, _, err := store.Write(context.Background(), "u1", "file-1", 42, 10.5, false)
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", entry.LessonID)
	assert.Equal(t, "course-1", entry.CourseID)

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.ProgressSeconds)
	assert.Equal(t, 10.5, got.ProgressPercentage)
	assert.False(t, got.Completed)
}

func TestWriteUnknownFileIsNotFound(t *testing.T) {
	store := NewStore(newFakeRepo(), nil, nil, testFiles(), nil, nil)

	_, _, _, err := store.Write(context.Background(), "u1", "missing-file", 10, 1, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteFailsWhenDurableTierFails(t *testing.T) {
	repo := newFakeRepo()
	repo.failUpsert = true
	cache := newFakeCache()
	store := NewStore(repo, cache, nil, testFiles(), nil, nil)

	_, _, _, err := store.Write(context.Background(), "u1", "file-1", 10, 1, false)
	assert.Error(t, err)
}

func TestCacheFailureDoesNotFailWrite(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	cache.failSet = true
	store := NewStore(repo, cache, nil, testFiles(), nil, nil)

	_, _, _, err := store.Write(context.Background(), "u1", "file-1", 10, 1, false)
	assert.NoError(t, err)

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.ProgressSeconds)
}

func TestWriteFansOutToCacheAndBackup(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	backup := newFakeBackup()
	store := NewStore(repo, cache, backup, testFiles(), nil, nil)

	_, _, _, err := store.Write(context.Background(), "u1", "file-1", 42, 10.5, true)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return cache.has("u1", "file-1") && backup.has("u1", "file-1")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLastWriteWinsNoPositionMerge(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo, nil, nil, testFiles(), nil, nil)

	_, _, _, err := store.Write(context.Background(), "u1", "file-1", 500, 80, false)
	require.NoError(t, err)
	// Rewinding to rewatch is legitimate: the lower position must stick.
	_, _, _, err = store.Write(context.Background(), "u1", "file-1", 30, 5, false)
	require.NoError(t, err)

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, 30, got.ProgressSeconds)
	assert.Equal(t, 5.0, got.ProgressPercentage)
}

func TestReadPrefersCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	store := NewStore(repo, cache, nil, testFiles(), nil, nil)

	require.NoError(t, repo.Upsert(context.Background(), &models.ProgressEntry{
		UserID: "u1", FileID: "file-1", ProgressSeconds: 42,
	}))
	require.NoError(t, cache.SetEntry(context.Background(), &models.ProgressEntry{
		UserID: "u1", FileID: "file-1", ProgressSeconds: 99,
	}))

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, 99, got.ProgressSeconds)
}

func TestReadPopulatesCacheOnMiss(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	store := NewStore(repo, cache, nil, testFiles(), nil, nil)

	require.NoError(t, repo.Upsert(context.Background(), &models.ProgressEntry{
		UserID: "u1", FileID: "file-1", ProgressSeconds: 42,
	}))

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.ProgressSeconds)

	assert.Eventually(t, func() bool {
		return cache.has("u1", "file-1")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReadFallsBackToBackupWhenDurableUnavailable(t *testing.T) {
	repo := newFakeRepo()
	repo.failGet = true
	backup := newFakeBackup()
	store := NewStore(repo, nil, backup, testFiles(), nil, nil)

	require.NoError(t, backup.Save(context.Background(), &models.ProgressEntry{
		UserID: "u1", FileID: "file-1", ProgressSeconds: 77, Completed: true,
	}))

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, 77, got.ProgressSeconds)
	assert.True(t, got.Completed)
}

func TestReadAllTiersMissReturnsDefault(t *testing.T) {
	store := NewStore(newFakeRepo(), newFakeCache(), newFakeBackup(), testFiles(), nil, nil)

	got, err := store.Read(context.Background(), "u1", "file-1")
	require.NoError(t, err, "no progress yet is not a failure")
	assert.Equal(t, 0, got.ProgressSeconds)
	assert.False(t, got.Completed)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "file-1", got.FileID)
}

func TestSyncWorkerReplaysDirtyEntries(t *testing.T) {
	cache := newFakeCache()
	backup := newFakeBackup()

	require.NoError(t, cache.SetEntry(context.Background(), &models.ProgressEntry{
		UserID: "u1", FileID: "file-1", ProgressSeconds: 42,
	}))
	require.NoError(t, cache.MarkDirty(context.Background(), "u1", "file-1"))

	w := NewSyncWorker(cache, backup, time.Second, nil)
	w.syncOnce()

	assert.True(t, backup.has("u1", "file-1"))
	cache.mu.Lock()
	assert.Empty(t, cache.dirty)
	cache.mu.Unlock()
}

func TestSyncWorkerKeepsDirtyMarkerOnBackupFailure(t *testing.T) {
	cache := newFakeCache()
	backup := newFakeBackup()
	backup.failSave = true

	require.NoError(t, cache.SetEntry(context.Background(), &models.ProgressEntry{
		UserID: "u1", FileID: "file-1", ProgressSeconds: 42,
	}))
	require.NoError(t, cache.MarkDirty(context.Background(), "u1", "file-1"))

	w := NewSyncWorker(cache, backup, time.Second, nil)
	w.syncOnce()

	assert.False(t, backup.has("u1", "file-1"))
	cache.mu.Lock()
	assert.True(t, cache.dirty[key("u1", "file-1")], "marker must survive for the next attempt")
	cache.mu.Unlock()
}
