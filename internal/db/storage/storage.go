// Package storage declares the persistence contract shared by all
// database backends of the application.
package storage

import (
	"context"
	"database/sql"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

// Storage is the full persistence surface used by the application.
// File and memory backends accept the *sql.Tx parameters for interface
// compatibility and ignore them.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error)

	GetUserByID(
		ctx context.Context,
		userID string,
		transaction *sql.Tx,
	) (*user.User, bool, error)

	GetUserByEmail(
		ctx context.Context,
		email string,
		transaction *sql.Tx,
	) (*user.User, bool, error)

	UpdateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error

	InsertBookmark(
		ctx context.Context,
		bkm *bookmark.Bookmark,
		transaction *sql.Tx,
	) error

	GetUserBookmarks(ctx context.Context, userID string) ([]*bookmark.Bookmark, error)

	GetBookmarkByID(
		ctx context.Context,
		userID string,
		bookmarkID string,
	) (*bookmark.Bookmark, bool, error)

	UpdateBookmark(
		ctx context.Context,
		bkm *bookmark.Bookmark,
		transaction *sql.Tx,
	) error

	MarkBookmarkDeleted(ctx context.Context, userID, bookmarkID string) error

	PurgeDeletedBookmarks(
		ctx context.Context,
		usersBookmarks map[string][]string,
	) error

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfBookmarks(ctx context.Context) (int64, error)

	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error

	Ping(ctx context.Context) error

	Close() error
}
