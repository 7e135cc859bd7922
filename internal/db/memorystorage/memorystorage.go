// Package memorystorage provides a purely in-memory storage backend.
// It reuses the jsondb cache structure but never touches the filesystem.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/db/jsondb"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

// MemoryStorage keeps all users and bookmarks in process memory.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:         map[string]*user.User{},
				EmailToUserID: map[string]string{},
				Bookmarks:     map[string]*bookmark.Bookmark{},
				UserBookmarks: map[string][]string{},
			},
		},
	}, nil
}

// Close is a no-op, there is nothing to flush.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always succeeds for the memory backend.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
