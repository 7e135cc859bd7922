// Package purger implements the background reclamation of soft-deleted
// bookmarks. Deletions are acknowledged to the client immediately; the purger
// batches the physical removals and applies them on a fixed interval.
package purger

import (
	"context"
	"time"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/bookmarkr/internal/logger"
	"github.com/patric-chuzhbe/bookmarkr/internal/models"
)

type bookmarksPurgingStorage interface {
	PurgeDeletedBookmarks(
		ctx context.Context,
		usersBookmarks map[string][]string,
	) error
}

type task struct {
	userID     string
	bookmarkID string
}

// Purger accumulates purge tasks in a buffered queue and flushes them
// to storage in per-user batches.
type Purger struct {
	queue                    chan *task
	db                       bookmarksPurgingStorage
	delayBetweenQueueFetches time.Duration
	errorChannel             chan error
}

// New creates a Purger with the given queue capacity and flush interval.
func New(
	db bookmarksPurgingStorage,
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
) *Purger {
	return &Purger{
		db:                       db,
		queue:                    make(chan *task, channelCapacity),
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		errorChannel:             make(chan error, channelCapacity),
	}
}

// ListenErrors passes every purge error to the callback in a separate goroutine.
func (p *Purger) ListenErrors(callback func(error)) {
	go func() {
		for err := range p.errorChannel {
			callback(err)
		}
	}()
}

// EnqueueJob splits a purge job into per-bookmark tasks and queues them.
func (p *Purger) EnqueueJob(job *models.BookmarkPurgeJob) {
	for _, bookmarkID := range job.BookmarkIDs {
		p.queue <- &task{
			userID:     job.UserID,
			bookmarkID: bookmarkID,
		}
	}
}

func (p *Purger) collectBookmarksByUser(tasks []task) map[string][]string {
	result := map[string][]string{}
	for _, t := range tasks {
		result[t.userID] = append(result[t.userID], t.bookmarkID)
	}
	for userID, bookmarkIDs := range result {
		result[userID] = funk.UniqString(bookmarkIDs)
	}

	return result
}

// Run starts the background flushing loop. It stops when ctx is canceled.
func (p *Purger) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.delayBetweenQueueFetches)
		defer ticker.Stop()

		var tasks []task

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-p.queue:
				tasks = append(tasks, *t)
			case <-ticker.C:
				if len(tasks) == 0 {
					continue
				}
				err := p.db.PurgeDeletedBookmarks(ctx, p.collectBookmarksByUser(tasks))
				if err != nil {
					p.errorChannel <- err
					continue
				}
				logger.Log.Infof("purged %d soft-deleted bookmarks", len(tasks))
				tasks = nil
			}
		}
	}()
}
