// Package authenticator declares the authentication contract the router
// depends on, keeping it decoupled from the JWT implementation.
package authenticator

import "net/http"

// Authenticator guards protected routes and issues bearer tokens.
type Authenticator interface {
	Authenticate(h http.Handler) http.Handler
	IssueToken(userID string) (string, error)
}
