package purger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookmarkr/internal/logger"
	"github.com/patric-chuzhbe/bookmarkr/internal/models"
)

type purgingStorageFake struct {
	mutex sync.Mutex
	calls []map[string][]string
	err   error
}

func (f *purgingStorageFake) PurgeDeletedBookmarks(
	ctx context.Context,
	usersBookmarks map[string][]string,
) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.calls = append(f.calls, usersBookmarks)

	return f.err
}

func (f *purgingStorageFake) callsCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return len(f.calls)
}

func (f *purgingStorageFake) lastCall() map[string][]string {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if len(f.calls) == 0 {
		return nil
	}

	return f.calls[len(f.calls)-1]
}

func TestCollectBookmarksByUser(t *testing.T) {
	p := New(&purgingStorageFake{}, 10, time.Minute)

	collected := p.collectBookmarksByUser([]task{
		{userID: "first-user", bookmarkID: "bookmark-1"},
		{userID: "second-user", bookmarkID: "bookmark-2"},
		{userID: "first-user", bookmarkID: "bookmark-3"},
		{userID: "first-user", bookmarkID: "bookmark-1"},
	})

	require.Len(t, collected, 2)
	sort.Strings(collected["first-user"])
	assert.Equal(t, []string{"bookmark-1", "bookmark-3"}, collected["first-user"])
	assert.Equal(t, []string{"bookmark-2"}, collected["second-user"])
}

func TestRunFlushesQueuedJobs(t *testing.T) {
	require.NoError(t, logger.Init("debug"))

	db := &purgingStorageFake{}
	p := New(db, 10, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Run(ctx)

	p.EnqueueJob(&models.BookmarkPurgeJob{
		UserID:      "some-user",
		BookmarkIDs: []string{"bookmark-1", "bookmark-2"},
	})

	require.Eventually(t, func() bool {
		return db.callsCount() > 0
	}, 2*time.Second, 10*time.Millisecond)

	purged := db.lastCall()
	require.Contains(t, purged, "some-user")
	sort.Strings(purged["some-user"])
	assert.Equal(t, []string{"bookmark-1", "bookmark-2"}, purged["some-user"])
}

func TestRunReportsErrors(t *testing.T) {
	require.NoError(t, logger.Init("debug"))

	purgeError := errors.New("purge failed")
	db := &purgingStorageFake{err: purgeError}
	p := New(db, 10, 20*time.Millisecond)

	reportedErrors := make(chan error, 1)
	p.ListenErrors(func(err error) {
		select {
		case reportedErrors <- err:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Run(ctx)

	p.EnqueueJob(&models.BookmarkPurgeJob{
		UserID:      "some-user",
		BookmarkIDs: []string{"bookmark-1"},
	})

	select {
	case err := <-reportedErrors:
		assert.ErrorIs(t, err, purgeError)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a purge error to be reported")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	require.NoError(t, logger.Init("debug"))

	db := &purgingStorageFake{}
	p := New(db, 10, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	p.Run(ctx)
	cancel()

	time.Sleep(50 * time.Millisecond)
	p.EnqueueJob(&models.BookmarkPurgeJob{
		UserID:      "some-user",
		BookmarkIDs: []string{"bookmark-1"},
	})

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, db.callsCount())
}
