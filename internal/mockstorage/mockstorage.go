// Package mockstorage provides a testify-based mock implementation
// of the storage contract used by the service and router packages.
// It is used for unit testing HTTP handlers by simulating storage behavior.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

// StorageMock is a testify mock that implements the full storage contract.
//
// Use it in tests to simulate database behavior, including error paths
// that are hard to reproduce with real backends.
type StorageMock struct {
	mock.Mock
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*sql.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(transaction *sql.Tx) error {
	args := m.Called(transaction)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(transaction *sql.Tx) error {
	args := m.Called(transaction)
	return args.Error(0)
}

// CreateUser mocks inserting a new user.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	args := m.Called(ctx, usr, transaction)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by ID.
func (m *StorageMock) GetUserByID(
	ctx context.Context,
	userID string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	args := m.Called(ctx, userID, transaction)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUserByEmail mocks fetching a user by email.
func (m *StorageMock) GetUserByEmail(
	ctx context.Context,
	email string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	args := m.Called(ctx, email, transaction)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// UpdateUser mocks persisting user profile changes.
func (m *StorageMock) UpdateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error {
	args := m.Called(ctx, usr, transaction)
	return args.Error(0)
}

// InsertBookmark mocks storing a new bookmark.
func (m *StorageMock) InsertBookmark(
	ctx context.Context,
	bkm *bookmark.Bookmark,
	transaction *sql.Tx,
) error {
	args := m.Called(ctx, bkm, transaction)
	return args.Error(0)
}

// GetUserBookmarks mocks listing a user's bookmarks.
func (m *StorageMock) GetUserBookmarks(ctx context.Context, userID string) ([]*bookmark.Bookmark, error) {
	args := m.Called(ctx, userID)
	bookmarks, _ := args.Get(0).([]*bookmark.Bookmark)
	return bookmarks, args.Error(1)
}

// GetBookmarkByID mocks fetching a single bookmark scoped to its owner.
func (m *StorageMock) GetBookmarkByID(
	ctx context.Context,
	userID string,
	bookmarkID string,
) (*bookmark.Bookmark, bool, error) {
	args := m.Called(ctx, userID, bookmarkID)
	bkm, _ := args.Get(0).(*bookmark.Bookmark)
	return bkm, args.Bool(1), args.Error(2)
}

// UpdateBookmark mocks persisting bookmark changes.
func (m *StorageMock) UpdateBookmark(
	ctx context.Context,
	bkm *bookmark.Bookmark,
	transaction *sql.Tx,
) error {
	args := m.Called(ctx, bkm, transaction)
	return args.Error(0)
}

// MarkBookmarkDeleted mocks soft-deleting a bookmark.
func (m *StorageMock) MarkBookmarkDeleted(ctx context.Context, userID, bookmarkID string) error {
	args := m.Called(ctx, userID, bookmarkID)
	return args.Error(0)
}

// PurgeDeletedBookmarks mocks the physical removal of soft-deleted bookmarks.
func (m *StorageMock) PurgeDeletedBookmarks(
	ctx context.Context,
	usersBookmarks map[string][]string,
) error {
	args := m.Called(ctx, usersBookmarks)
	return args.Error(0)
}

// GetNumberOfUsers mocks the user counter.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfBookmarks mocks the bookmark counter.
func (m *StorageMock) GetNumberOfBookmarks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
