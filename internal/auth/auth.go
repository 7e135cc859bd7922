// Package auth provides bearer-token authentication for HTTP requests:
// issuing and parsing signed JWTs, bcrypt password hashing, and the
// middleware that attaches the authenticated user to the request context.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/bookmarkr/internal/logger"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string, transaction *sql.Tx) (*user.User, bool, error)
}

// Auth issues and validates the JWTs that identify API users.
type Auth struct {
	// db is the interface to the user data storage.
	db userKeeper

	// authCookieName is the name of the fallback cookie holding the JWT.
	authCookieName string

	// tokenSigningSecretKey is the key used to sign JWTs.
	tokenSigningSecretKey []byte

	// tokenTTL limits token lifetime. Zero disables the exp claim.
	tokenTTL time.Duration
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// ErrInvalidToken is returned when a bearer token is missing, malformed,
// expired or signed with a different key.
var ErrInvalidToken = errors.New("invalid or missing bearer token")

// New creates a new Auth handler with the given user data access layer,
// fallback cookie name, JWT signing secret and token lifetime.
func New(
	db userKeeper,
	authCookieName string,
	tokenSigningSecretKey []byte,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		db:                    db,
		authCookieName:        authCookieName,
		tokenSigningSecretKey: tokenSigningSecretKey,
		tokenTTL:              tokenTTL,
	}
}

// UserIDFromContext extracts the authenticated user's ID stored by Authenticate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

// IssueToken builds a signed JWT bound to the given user ID.
func (a *Auth) IssueToken(userID string) (string, error) {
	claims := &Claims{UserID: userID}
	if a.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(a.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.tokenSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken parses and validates a signed JWT and returns
// the user ID it is bound to.
func (a *Auth) GetUserIDFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.tokenSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// Authenticate is an HTTP middleware that authenticates incoming requests
// using JWTs found in the Authorization header or the fallback cookie.
// It verifies the user still exists and stores the user ID in the request context.
func (a *Auth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString := a.getTokenStringFromAuthorizationHeaderOrCookie(request)
		if tokenString == "" {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		userID, err := a.GetUserIDFromToken(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.GetUserIDFromToken()`: ", zap.Error(err))
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		usr, found, err := a.db.GetUserByID(request.Context(), userID, nil)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.GetUserByID()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !found {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, usr.ID)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	if tokenString != "" {
		return strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}

// BcryptHasher hashes and verifies passwords using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost.
// Non-positive cost falls back to the bcrypt default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of a password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// Compare checks a password against its stored bcrypt hash.
func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
