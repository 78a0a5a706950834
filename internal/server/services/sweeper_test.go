package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/models"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putObject(store *fakeStore, key string, modified time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.objects[key] = &storedObject{data: []byte(key), modified: modified}
}

func newTestSweeper(repo *fakeUploadsRepo, rr *fakeRefreshRepo, store *fakeStore, now time.Time) *Sweeper {
	s := NewSweeper(nil, &fakeRepoManager{up: repo, r: rr}, store, "uploads", time.Hour, 24*time.Hour, logging.Discard())
	s.now = func() time.Time { return now }
	return s
}

func TestSweeper_DeletesOnlyOldUntrackedObjects(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)

	repo := newFakeUploadsRepo()
	repo.rows["r1"] = &models.Upload{ID: "r1", UserID: "u1", S3Key: "uploads/tracked"}

	store := newFakeStore()
	putObject(store, "uploads/tracked", old)
	putObject(store, "uploads/orphan", old)
	putObject(store, "uploads/in-flight", now.Add(-time.Minute))

	s := newTestSweeper(repo, &fakeRefreshRepo{expiredOut: 3}, store, now)

	res, skipped, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, SweepResult{Scanned: 3, Orphans: 1, Deleted: 1, ExpiredTokens: 3}, res)
	assert.Equal(t, []string{"uploads/orphan"}, store.deleted)

	_, ok := store.object("uploads/in-flight")
	assert.True(t, ok, "objects inside the grace period must survive")
}

func TestSweeper_IgnoresObjectsOutsideKeyRoot(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	store := newFakeStore()
	putObject(store, "uploads/orphan", old)
	putObject(store, "backups/db.tar", old)
	putObject(store, "uploads-archive/old.mp4", old)

	s := newTestSweeper(newFakeUploadsRepo(), &fakeRefreshRepo{}, store, now)

	res, _, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, []string{"uploads/orphan"}, store.deleted)

	_, ok := store.object("backups/db.tar")
	assert.True(t, ok)
	_, ok = store.object("uploads-archive/old.mp4")
	assert.True(t, ok)
}

func TestSweeper_Batches(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	for i := 0; i < sweepBatchSize+7; i++ {
		putObject(store, fmt.Sprintf("uploads/%04d", i), now.Add(-48*time.Hour))
	}
	s := newTestSweeper(newFakeUploadsRepo(), &fakeRefreshRepo{}, store, now)

	res, _, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sweepBatchSize+7, res.Deleted)
	assert.Empty(t, store.objects)
}

func TestSweeper_DeleteFailureIsCountedNotFatal(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	putObject(store, "uploads/orphan", now.Add(-48*time.Hour))
	store.deleteErr = errBoom{}

	s := newTestSweeper(newFakeUploadsRepo(), &fakeRefreshRepo{}, store, now)

	res, _, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Orphans)
	assert.Equal(t, 0, res.Deleted)
}

func TestSweeper_Errors(t *testing.T) {
	now := time.Now()

	s := newTestSweeper(newFakeUploadsRepo(), &fakeRefreshRepo{expiredErr: errBoom{}}, newFakeStore(), now)
	_, _, err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "purge refresh tokens")

	store := newFakeStore()
	store.listErr = errBoom{}
	s = newTestSweeper(newFakeUploadsRepo(), &fakeRefreshRepo{}, store, now)
	_, _, err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "sweep objects")

	store = newFakeStore()
	putObject(store, "uploads/x", now.Add(-48*time.Hour))
	repo := newFakeUploadsRepo()
	repo.keysErr = errBoom{}
	s = newTestSweeper(repo, &fakeRefreshRepo{}, store, now)
	_, _, err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "boom")
	assert.Empty(t, store.deleted)

	s = newTestSweeper(newFakeUploadsRepo(), &fakeRefreshRepo{}, nil, now)
	s.store = storage.Unconfigured{}
	_, _, err = s.RunOnce(context.Background())
	assert.Error(t, err)
}

// blockingStore parks List until released so a second RunOnce overlaps.
type blockingStore struct {
	*fakeStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) List(ctx context.Context, prefix string, fn func(storage.ObjectInfo) error) error {
	close(b.entered)
	<-b.release
	return nil
}

func TestSweeper_SkipsConcurrentRun(t *testing.T) {
	bs := &blockingStore{fakeStore: newFakeStore(), entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSweeper(nil, &fakeRepoManager{up: newFakeUploadsRepo(), r: &fakeRefreshRepo{}}, bs, "uploads", time.Hour, time.Hour, logging.Discard())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, skipped, err := s.RunOnce(context.Background())
		assert.NoError(t, err)
		assert.False(t, skipped)
	}()

	<-bs.entered
	assert.True(t, s.IsInProgress())
	_, skipped, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, skipped)

	close(bs.release)
	wg.Wait()
	assert.False(t, s.IsInProgress())
}

func TestSweeper_StartStop(t *testing.T) {
	s := NewSweeper(nil, &fakeRepoManager{up: newFakeUploadsRepo(), r: &fakeRefreshRepo{}}, newFakeStore(), "uploads", 10*time.Millisecond, time.Hour, logging.Discard())
	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	disabled := NewSweeper(nil, &fakeRepoManager{}, newFakeStore(), "uploads", 0, time.Hour, logging.Discard())
	disabled.Start(context.Background())
	disabled.Stop()
}
