// Package models contains the request and response shapes of the HTTP API
// together with a few shared application-level types.
package models

import "time"

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignInResponse carries the bearer token issued on successful signin.
type SignInResponse struct {
	AccessToken string `json:"access_token"`
}

// UserResponse is the public projection of a user. The password hash
// never leaves the service.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// UserPatchRequest is the body of PATCH /users.
// Nil fields are left untouched.
type UserPatchRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// BookmarkCreateRequest is the body of POST /bookmarks.
type BookmarkCreateRequest struct {
	Title       string `json:"title" validate:"required"`
	Link        string `json:"link" validate:"required,url"`
	Description string `json:"description,omitempty"`
}

// BookmarkPatchRequest is the body of PATCH /bookmarks/{id}.
// Nil fields are left untouched.
type BookmarkPatchRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Link        *string `json:"link" validate:"omitempty,url"`
	Description *string `json:"description"`
}

// BookmarkResponse is the public projection of a bookmark.
type BookmarkResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookmarkList is returned by GET /bookmarks in creation order.
type BookmarkList []BookmarkResponse

// StatsResponse is returned by the internal stats endpoint.
type StatsResponse struct {
	Users     int64 `json:"users"`
	Bookmarks int64 `json:"bookmarks"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// BookmarkPurgeJob describes soft-deleted bookmarks of a single user
// queued for physical removal.
type BookmarkPurgeJob struct {
	UserID      string
	BookmarkIDs []string
}
