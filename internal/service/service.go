// Package service implements the application's use cases: account signup and
// signin, profile management, and bookmark CRUD scoped to the owning user.
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/models"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type userKeeper interface {
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
}

type bookmarksKeeper interface {
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

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfBookmarks(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	transactioner
	userKeeper
	bookmarksKeeper
	pinger
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type bookmarksPurger interface {
	EnqueueJob(job *models.BookmarkPurgeJob)
}

// ErrEmailTaken is returned when the requested email is already registered.
var ErrEmailTaken = errors.New("email is already registered")

// ErrInvalidCredentials is returned on signin when the email is unknown
// or the password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrUserNotFound is returned when the authenticated user no longer exists.
var ErrUserNotFound = errors.New("user not found")

// ErrBookmarkNotFound is returned when a bookmark does not exist or does not
// belong to the caller. Foreign bookmarks are indistinguishable from missing ones.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// Service wires the storage, the password hasher and the background purger
// into the application's use cases.
type Service struct {
	db              storage
	hasher          passwordHasher
	bookmarksPurger bookmarksPurger
}

// New creates a Service over the given collaborators.
func New(db storage, hasher passwordHasher, purger bookmarksPurger) *Service {
	return &Service{
		db:              db,
		hasher:          hasher,
		bookmarksPurger: purger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new user with a unique email and a hashed password.
func (s *Service) SignUp(ctx context.Context, request models.SignUpRequest) (*user.User, error) {
	tx, err := s.db.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	email := normalizeEmail(request.Email)

	_, found, err := s.db.GetUserByEmail(ctx, email, tx)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrEmailTaken
	}

	passwordHash, err := s.hasher.Hash(request.Password)
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    request.FirstName,
		LastName:     request.LastName,
	}

	if _, err := s.db.CreateUser(ctx, usr, tx); err != nil {
		return nil, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return nil, err
	}

	return usr, nil
}

// SignIn verifies the credentials and returns the matching user.
func (s *Service) SignIn(ctx context.Context, request models.SignInRequest) (*user.User, error) {
	usr, found, err := s.db.GetUserByEmail(ctx, normalizeEmail(request.Email), nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(usr.PasswordHash, request.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

// GetUser returns the user with the given ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*user.User, error) {
	usr, found, err := s.db.GetUserByID(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return usr, nil
}

// UpdateUser applies a partial profile update, keeping emails unique.
func (s *Service) UpdateUser(
	ctx context.Context,
	userID string,
	patch models.UserPatchRequest,
) (*user.User, error) {
	tx, err := s.db.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	usr, found, err := s.db.GetUserByID(ctx, userID, tx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	if patch.Email != nil {
		newEmail := normalizeEmail(*patch.Email)
		if newEmail != usr.Email {
			another, anotherFound, err := s.db.GetUserByEmail(ctx, newEmail, tx)
			if err != nil {
				return nil, err
			}
			if anotherFound && another.ID != usr.ID {
				return nil, ErrEmailTaken
			}
			usr.Email = newEmail
		}
	}
	if patch.FirstName != nil {
		usr.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		usr.LastName = *patch.LastName
	}

	if err := s.db.UpdateUser(ctx, usr, tx); err != nil {
		return nil, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return nil, err
	}

	return usr, nil
}

// CreateBookmark stores a new bookmark owned by the caller.
func (s *Service) CreateBookmark(
	ctx context.Context,
	userID string,
	request models.BookmarkCreateRequest,
) (*bookmark.Bookmark, error) {
	bkm := &bookmark.Bookmark{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       request.Title,
		Link:        request.Link,
		Description: request.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.InsertBookmark(ctx, bkm, nil); err != nil {
		return nil, err
	}

	return bkm, nil
}

// ListBookmarks returns the caller's bookmarks in creation order.
func (s *Service) ListBookmarks(ctx context.Context, userID string) (models.BookmarkList, error) {
	bookmarks, err := s.db.GetUserBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := funk.Map(bookmarks, func(bkm *bookmark.Bookmark) models.BookmarkResponse {
		return bookmarkToResponse(bkm)
	}).([]models.BookmarkResponse)

	return models.BookmarkList(result), nil
}

// GetBookmark returns a single bookmark owned by the caller.
func (s *Service) GetBookmark(ctx context.Context, userID, bookmarkID string) (*bookmark.Bookmark, error) {
	bkm, found, err := s.db.GetBookmarkByID(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrBookmarkNotFound
	}

	return bkm, nil
}

// UpdateBookmark applies a partial update to a bookmark owned by the caller.
func (s *Service) UpdateBookmark(
	ctx context.Context,
	userID string,
	bookmarkID string,
	patch models.BookmarkPatchRequest,
) (*bookmark.Bookmark, error) {
	bkm, found, err := s.db.GetBookmarkByID(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrBookmarkNotFound
	}

	if patch.Title != nil {
		bkm.Title = *patch.Title
	}
	if patch.Link != nil {
		bkm.Link = *patch.Link
	}
	if patch.Description != nil {
		bkm.Description = *patch.Description
	}

	if err := s.db.UpdateBookmark(ctx, bkm, nil); err != nil {
		return nil, err
	}

	return bkm, nil
}

// DeleteBookmark soft-deletes a bookmark owned by the caller and queues it
// for physical removal. The bookmark disappears from the API immediately.
func (s *Service) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	_, found, err := s.db.GetBookmarkByID(ctx, userID, bookmarkID)
	if err != nil {
		return err
	}
	if !found {
		return ErrBookmarkNotFound
	}

	if err := s.db.MarkBookmarkDeleted(ctx, userID, bookmarkID); err != nil {
		return err
	}

	s.bookmarksPurger.EnqueueJob(&models.BookmarkPurgeJob{
		UserID:      userID,
		BookmarkIDs: []string{bookmarkID},
	})

	return nil
}

// GetStats returns the total amount of users and bookmarks.
func (s *Service) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	usersCount, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return nil, err
	}

	bookmarksCount, err := s.db.GetNumberOfBookmarks(ctx)
	if err != nil {
		return nil, err
	}

	return &models.StatsResponse{
		Users:     usersCount,
		Bookmarks: bookmarksCount,
	}, nil
}

// Ping checks that the storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func bookmarkToResponse(bkm *bookmark.Bookmark) models.BookmarkResponse {
	return models.BookmarkResponse{
		ID:          bkm.ID,
		Title:       bkm.Title,
		Link:        bkm.Link,
		Description: bkm.Description,
		CreatedAt:   bkm.CreatedAt,
	}
}

// UserToResponse builds the public projection of a user.
func UserToResponse(usr *user.User) models.UserResponse {
	return models.UserResponse{
		ID:        usr.ID,
		Email:     usr.Email,
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
	}
}
