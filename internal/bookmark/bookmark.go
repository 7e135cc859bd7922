// Package bookmark defines the bookmark model stored and served by the application.
package bookmark

import "time"

// Bookmark represents a saved link owned by exactly one user.
// Ownership is fixed at creation and never transferred.
type Bookmark struct {
	// ID is the unique identifier of the bookmark, meaning a UUID.
	ID string

	// UserID is the ID of the owning user.
	UserID string

	Title       string
	Link        string
	Description string

	// CreatedAt defines the position of the bookmark in the user's list.
	CreatedAt time.Time

	// IsDeleted marks the bookmark as removed. Deleted bookmarks are
	// invisible to the API and are physically reclaimed by the purger.
	IsDeleted bool
}
