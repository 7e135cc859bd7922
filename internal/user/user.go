// Package user defines the user model used throughout the application,
// particularly for authentication and profile management.
package user

// User represents a registered account.
// Its ID is used to scope bookmarks and to bind access tokens.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Email is unique across all users and acts as the login name.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	// It must never appear in API responses.
	PasswordHash string

	FirstName string
	LastName  string
}
