package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/bookmarkr/internal/auth"
	"github.com/patric-chuzhbe/bookmarkr/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookmarkr/internal/mockstorage"
	"github.com/patric-chuzhbe/bookmarkr/internal/models"
)

type purgerStub struct {
	jobs []*models.BookmarkPurgeJob
}

func (p *purgerStub) EnqueueJob(job *models.BookmarkPurgeJob) {
	p.jobs = append(p.jobs, job)
}

func newTestService(t *testing.T) (*Service, *purgerStub) {
	t.Helper()

	db, err := memorystorage.New()
	require.NoError(t, err)

	thePurger := &purgerStub{}

	return New(db, auth.NewBcryptHasher(bcrypt.MinCost), thePurger), thePurger
}

func strPtr(value string) *string {
	return &value
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	usr, err := svc.SignUp(ctx, models.SignUpRequest{
		Email:     "Vladimir@Example.Com",
		Password:  "s3cr3t",
		FirstName: "Vladimir",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "vladimir@example.com", usr.Email, "email should be normalized")
	assert.NotEqual(t, "s3cr3t", usr.PasswordHash)

	_, err = svc.SignUp(ctx, models.SignUpRequest{
		Email:    "vladimir@example.com",
		Password: "another",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	signedIn, err := svc.SignIn(ctx, models.SignInRequest{
		Email:    "vladimir@example.com",
		Password: "s3cr3t",
	})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, signedIn.ID)

	_, err = svc.SignIn(ctx, models.SignInRequest{
		Email:    "vladimir@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, models.SignInRequest{
		Email:    "nobody@example.com",
		Password: "s3cr3t",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, models.SignUpRequest{Email: "first@example.com", Password: "pass"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, models.SignUpRequest{Email: "second@example.com", Password: "pass"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, first.ID, models.UserPatchRequest{
		Email:     strPtr("renamed@example.com"),
		FirstName: strPtr("Renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", updated.Email)
	assert.Equal(t, "Renamed", updated.FirstName)

	fetched, err := svc.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", fetched.Email)
	assert.Equal(t, "Renamed", fetched.FirstName)

	_, err = svc.UpdateUser(ctx, first.ID, models.UserPatchRequest{
		Email: strPtr("second@example.com"),
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.UpdateUser(ctx, "missing-user-id", models.UserPatchRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBookmarksLifecycle(t *testing.T) {
	svc, thePurger := newTestService(t)
	ctx := context.Background()

	owner, err := svc.SignUp(ctx, models.SignUpRequest{Email: "owner@example.com", Password: "pass"})
	require.NoError(t, err)

	stranger, err := svc.SignUp(ctx, models.SignUpRequest{Email: "stranger@example.com", Password: "pass"})
	require.NoError(t, err)

	emptyList, err := svc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, emptyList, 0)

	created, err := svc.CreateBookmark(ctx, owner.ID, models.BookmarkCreateRequest{
		Title: "Go documentation",
		Link:  "https://go.dev/doc/",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, owner.ID, created.UserID)

	list, err := svc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	fetched, err := svc.GetBookmark(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	// The bookmark is invisible to any other user.
	_, err = svc.GetBookmark(ctx, stranger.ID, created.ID)
	assert.ErrorIs(t, err, ErrBookmarkNotFound)

	_, err = svc.UpdateBookmark(ctx, stranger.ID, created.ID, models.BookmarkPatchRequest{
		Description: strPtr("hijacked"),
	})
	assert.ErrorIs(t, err, ErrBookmarkNotFound)

	updated, err := svc.UpdateBookmark(ctx, owner.ID, created.ID, models.BookmarkPatchRequest{
		Description: strPtr("the standard library reference"),
	})
	require.NoError(t, err)
	assert.Equal(t, "the standard library reference", updated.Description)
	assert.Equal(t, "Go documentation", updated.Title)

	err = svc.DeleteBookmark(ctx, stranger.ID, created.ID)
	assert.ErrorIs(t, err, ErrBookmarkNotFound)

	err = svc.DeleteBookmark(ctx, owner.ID, created.ID)
	require.NoError(t, err)

	require.Len(t, thePurger.jobs, 1)
	assert.Equal(t, owner.ID, thePurger.jobs[0].UserID)
	assert.Equal(t, []string{created.ID}, thePurger.jobs[0].BookmarkIDs)

	listAfterDelete, err := svc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, listAfterDelete, 0)

	_, err = svc.GetBookmark(ctx, owner.ID, created.ID)
	assert.ErrorIs(t, err, ErrBookmarkNotFound)

	err = svc.DeleteBookmark(ctx, owner.ID, created.ID)
	assert.ErrorIs(t, err, ErrBookmarkNotFound)
}

func TestListBookmarksKeepsCreationOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	owner, err := svc.SignUp(ctx, models.SignUpRequest{Email: "owner@example.com", Password: "pass"})
	require.NoError(t, err)

	links := []string{
		"https://go.dev/doc/",
		"https://pkg.go.dev/",
		"https://go.dev/blog/",
	}
	for i, link := range links {
		_, err := svc.CreateBookmark(ctx, owner.ID, models.BookmarkCreateRequest{
			Title: link,
			Link:  link,
		})
		require.NoError(t, err, "bookmark #%d", i)
	}

	list, err := svc.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, len(links))
	for i, link := range links {
		assert.Equal(t, link, list[i].Link)
	}
}

func TestGetStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	owner, err := svc.SignUp(ctx, models.SignUpRequest{Email: "owner@example.com", Password: "pass"})
	require.NoError(t, err)

	_, err = svc.CreateBookmark(ctx, owner.ID, models.BookmarkCreateRequest{
		Title: "Go documentation",
		Link:  "https://go.dev/doc/",
	})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Bookmarks)
}

func TestSignUpPropagatesStorageErrors(t *testing.T) {
	storageError := errors.New("the database is on fire")

	db := &mockstorage.StorageMock{}
	db.On("BeginTransaction").Return(nil, nil)
	db.On("RollbackTransaction", mock.Anything).Return(nil)
	db.On("GetUserByEmail", mock.Anything, "owner@example.com", mock.Anything).
		Return(nil, false, storageError)

	svc := New(db, auth.NewBcryptHasher(bcrypt.MinCost), &purgerStub{})

	_, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Email:    "owner@example.com",
		Password: "pass",
	})
	assert.ErrorIs(t, err, storageError)
	db.AssertExpectations(t)
}
