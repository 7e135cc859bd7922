package jsondb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

func newTestDB(t *testing.T) (*JSONDB, string) {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), "db.json")
	db, err := New(fileName)
	require.NoError(t, err)

	return db, fileName
}

func someUser(id, email string) *user.User {
	return &user.User{
		ID:           id,
		Email:        email,
		PasswordHash: "some-hash",
	}
}

func someBookmark(id, userID string, createdAt time.Time) *bookmark.Bookmark {
	return &bookmark.Bookmark{
		ID:        id,
		UserID:    userID,
		Title:     "Go documentation",
		Link:      "https://go.dev/doc/",
		CreatedAt: createdAt,
	}
}

func TestPersistenceRoundtrip(t *testing.T) {
	db, fileName := newTestDB(t)
	ctx := context.Background()

	usr := someUser("user-1", "somebody@example.com")
	_, err := db.CreateUser(ctx, usr, nil)
	require.NoError(t, err)

	bkm := someBookmark("bookmark-1", usr.ID, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, db.InsertBookmark(ctx, bkm, nil))

	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	restoredUser, found, err := reopened.GetUserByEmail(ctx, "somebody@example.com", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, usr.ID, restoredUser.ID)
	assert.Equal(t, "some-hash", restoredUser.PasswordHash)

	restoredBookmark, found, err := reopened.GetBookmarkByID(ctx, usr.ID, bkm.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, bkm.Title, restoredBookmark.Title)
	assert.True(t, bkm.CreatedAt.Equal(restoredBookmark.CreatedAt))
}

func TestGetUserByIDReturnsACopy(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, someUser("user-1", "somebody@example.com"), nil)
	require.NoError(t, err)

	fetched, found, err := db.GetUserByID(ctx, "user-1", nil)
	require.NoError(t, err)
	require.True(t, found)

	fetched.Email = "mutated@example.com"

	again, found, err := db.GetUserByID(ctx, "user-1", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "somebody@example.com", again.Email)
}

func TestUpdateUserReindexesEmail(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	usr := someUser("user-1", "old@example.com")
	_, err := db.CreateUser(ctx, usr, nil)
	require.NoError(t, err)

	usr.Email = "new@example.com"
	require.NoError(t, db.UpdateUser(ctx, usr, nil))

	_, found, err := db.GetUserByEmail(ctx, "old@example.com", nil)
	require.NoError(t, err)
	assert.False(t, found)

	renamed, found, err := db.GetUserByEmail(ctx, "new@example.com", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "user-1", renamed.ID)
}

func TestBookmarksOrderAndOwnership(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	baseTime := time.Now().UTC()
	require.NoError(t, db.InsertBookmark(ctx, someBookmark("bookmark-1", "owner", baseTime), nil))
	require.NoError(t, db.InsertBookmark(ctx, someBookmark("bookmark-2", "owner", baseTime.Add(time.Second)), nil))
	require.NoError(t, db.InsertBookmark(ctx, someBookmark("bookmark-3", "stranger", baseTime), nil))

	bookmarks, err := db.GetUserBookmarks(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)
	assert.Equal(t, "bookmark-1", bookmarks[0].ID)
	assert.Equal(t, "bookmark-2", bookmarks[1].ID)

	_, found, err := db.GetBookmarkByID(ctx, "stranger", "bookmark-1")
	require.NoError(t, err)
	assert.False(t, found, "a foreign bookmark must look missing")
}

func TestSoftDeleteAndPurge(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertBookmark(ctx, someBookmark("bookmark-1", "owner", time.Now().UTC()), nil))
	require.NoError(t, db.InsertBookmark(ctx, someBookmark("bookmark-2", "owner", time.Now().UTC()), nil))

	require.NoError(t, db.MarkBookmarkDeleted(ctx, "owner", "bookmark-1"))

	bookmarks, err := db.GetUserBookmarks(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "bookmark-2", bookmarks[0].ID)

	_, found, err := db.GetBookmarkByID(ctx, "owner", "bookmark-1")
	require.NoError(t, err)
	assert.False(t, found)

	count, err := db.GetNumberOfBookmarks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Purging skips bookmarks of other users and bookmarks that were
	// never soft-deleted.
	require.NoError(t, db.PurgeDeletedBookmarks(ctx, map[string][]string{
		"stranger": {"bookmark-1"},
		"owner":    {"bookmark-2"},
	}))
	assert.Contains(t, db.Cache.Bookmarks, "bookmark-1")
	assert.Contains(t, db.Cache.Bookmarks, "bookmark-2")

	require.NoError(t, db.PurgeDeletedBookmarks(ctx, map[string][]string{
		"owner": {"bookmark-1"},
	}))
	assert.NotContains(t, db.Cache.Bookmarks, "bookmark-1")
	assert.NotContains(t, db.Cache.UserBookmarks["owner"], "bookmark-1")
}

func TestMarkBookmarkDeletedIgnoresForeignBookmarks(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertBookmark(ctx, someBookmark("bookmark-1", "owner", time.Now().UTC()), nil))
	require.NoError(t, db.MarkBookmarkDeleted(ctx, "stranger", "bookmark-1"))

	_, found, err := db.GetBookmarkByID(ctx, "owner", "bookmark-1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGetNumberOfUsers(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	count, err := db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = db.CreateUser(ctx, someUser("user-1", "first@example.com"), nil)
	require.NoError(t, err)
	_, err = db.CreateUser(ctx, someUser("user-2", "second@example.com"), nil)
	require.NoError(t, err)

	count, err = db.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
