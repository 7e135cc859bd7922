package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

func TestMemoryStorage(t *testing.T) {
	db, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, db.Ping(ctx))

	_, err = db.CreateUser(ctx, &user.User{
		ID:    "user-1",
		Email: "somebody@example.com",
	}, nil)
	require.NoError(t, err)

	fetched, found, err := db.GetUserByEmail(ctx, "somebody@example.com", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "user-1", fetched.ID)

	// Close must not try to flush anything to disk.
	assert.NoError(t, db.Close())

	fetched, found, err = db.GetUserByID(ctx, "user-1", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "somebody@example.com", fetched.Email)
}
