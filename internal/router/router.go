// Package router wires the HTTP API: request decoding and validation,
// routing, middleware, and the mapping of service errors to status codes.
package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookmarkr/internal/auth"
	"github.com/patric-chuzhbe/bookmarkr/internal/authenticator"
	"github.com/patric-chuzhbe/bookmarkr/internal/gzippedhttp"
	"github.com/patric-chuzhbe/bookmarkr/internal/ipchecker"
	"github.com/patric-chuzhbe/bookmarkr/internal/logger"
	"github.com/patric-chuzhbe/bookmarkr/internal/models"
	"github.com/patric-chuzhbe/bookmarkr/internal/service"
)

// Router holds the HTTP handlers of the bookmark API.
type Router struct {
	svc             *service.Service
	theAuth         authenticator.Authenticator
	clientIPChecker *ipchecker.IPChecker
}

var requestValidator = validator.New()

// New builds the chi mux with the full middleware stack and all routes.
func New(
	svc *service.Service,
	theAuth authenticator.Authenticator,
	clientIPChecker *ipchecker.IPChecker,
) http.Handler {
	theRouter := &Router{
		svc:             svc,
		theAuth:         theAuth,
		clientIPChecker: clientIPChecker,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
	)

	router.With(gzippedhttp.GzipResponse).Group(func(public chi.Router) {
		public.Post(`/auth/signup`, theRouter.PostAuthSignup)
		public.Post(`/auth/signin`, theRouter.PostAuthSignin)
	})

	router.With(
		gzippedhttp.GzipResponse,
		theAuth.Authenticate,
	).Group(func(protected chi.Router) {
		protected.Get(`/users/me`, theRouter.GetUsersMe)
		protected.Patch(`/users`, theRouter.PatchUsers)

		protected.Route(`/bookmarks`, func(bookmarks chi.Router) {
			bookmarks.Get(`/`, theRouter.GetBookmarks)
			bookmarks.Post(`/`, theRouter.PostBookmarks)
			bookmarks.Get(`/{bookmarkID}`, theRouter.GetBookmarksByID)
			bookmarks.Patch(`/{bookmarkID}`, theRouter.PatchBookmarksByID)
			bookmarks.Delete(`/{bookmarkID}`, theRouter.DeleteBookmarksByID)
		})
	})

	router.Get(`/ping`, theRouter.GetPing)
	router.Get(`/api/internal/stats`, theRouter.GetInternalStats)

	return router
}

// decodeAndValidateJSONRequest strictly decodes the request body into target
// and runs the validator over it. Unknown fields are rejected.
func decodeAndValidateJSONRequest(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}

	return requestValidator.Struct(target)
}

func writeJSONResponse(response http.ResponseWriter, statusCode int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error while encoding the response body: ", zap.Error(err))
	}
}

func userIDFromRequest(response http.ResponseWriter, request *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return "", false
	}

	return userID, true
}

// PostAuthSignup handles `POST /auth/signup`.
// It registers a new user and returns its public profile with 201.
func (r *Router) PostAuthSignup(response http.ResponseWriter, request *http.Request) {
	var signUpRequest models.SignUpRequest
	if err := decodeAndValidateJSONRequest(request, &signUpRequest); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	usr, err := r.svc.SignUp(request.Context(), signUpRequest)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		http.Error(response, err.Error(), http.StatusConflict)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.SignUp()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusCreated, service.UserToResponse(usr))
}

// PostAuthSignin handles `POST /auth/signin`.
// It verifies the credentials and returns a bearer token with 200.
func (r *Router) PostAuthSignin(response http.ResponseWriter, request *http.Request) {
	var signInRequest models.SignInRequest
	if err := decodeAndValidateJSONRequest(request, &signInRequest); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	usr, err := r.svc.SignIn(request.Context(), signInRequest)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(response, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.SignIn()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	accessToken, err := r.theAuth.IssueToken(usr.ID)
	if err != nil {
		logger.Log.Debugln("Error calling the `r.theAuth.IssueToken()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, models.SignInResponse{AccessToken: accessToken})
}

// GetUsersMe handles `GET /users/me`.
// It returns the authenticated user's public profile.
func (r *Router) GetUsersMe(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	usr, err := r.svc.GetUser(request.Context(), userID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.WriteHeader(http.StatusUnauthorized)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.GetUser()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, service.UserToResponse(usr))
}

// PatchUsers handles `PATCH /users`.
// It applies a partial profile update and returns the updated profile.
func (r *Router) PatchUsers(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	var patch models.UserPatchRequest
	if err := decodeAndValidateJSONRequest(request, &patch); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	usr, err := r.svc.UpdateUser(request.Context(), userID, patch)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		http.Error(response, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, service.ErrUserNotFound):
		response.WriteHeader(http.StatusUnauthorized)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.UpdateUser()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, service.UserToResponse(usr))
}

// GetBookmarks handles `GET /bookmarks`.
// It returns the caller's bookmarks in creation order.
func (r *Router) GetBookmarks(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	bookmarks, err := r.svc.ListBookmarks(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.ListBookmarks()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, bookmarks)
}

// PostBookmarks handles `POST /bookmarks`.
// It creates a bookmark owned by the caller and returns it with 201.
func (r *Router) PostBookmarks(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	var createRequest models.BookmarkCreateRequest
	if err := decodeAndValidateJSONRequest(request, &createRequest); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	bkm, err := r.svc.CreateBookmark(request.Context(), userID, createRequest)
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.CreateBookmark()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusCreated, models.BookmarkResponse{
		ID:          bkm.ID,
		Title:       bkm.Title,
		Link:        bkm.Link,
		Description: bkm.Description,
		CreatedAt:   bkm.CreatedAt,
	})
}

// GetBookmarksByID handles `GET /bookmarks/{bookmarkID}`.
func (r *Router) GetBookmarksByID(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	bkm, err := r.svc.GetBookmark(request.Context(), userID, chi.URLParam(request, "bookmarkID"))
	switch {
	case errors.Is(err, service.ErrBookmarkNotFound):
		response.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.GetBookmark()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, models.BookmarkResponse{
		ID:          bkm.ID,
		Title:       bkm.Title,
		Link:        bkm.Link,
		Description: bkm.Description,
		CreatedAt:   bkm.CreatedAt,
	})
}

// PatchBookmarksByID handles `PATCH /bookmarks/{bookmarkID}`.
// It applies a partial update and returns the updated bookmark.
func (r *Router) PatchBookmarksByID(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	var patch models.BookmarkPatchRequest
	if err := decodeAndValidateJSONRequest(request, &patch); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	bkm, err := r.svc.UpdateBookmark(request.Context(), userID, chi.URLParam(request, "bookmarkID"), patch)
	switch {
	case errors.Is(err, service.ErrBookmarkNotFound):
		response.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.UpdateBookmark()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, models.BookmarkResponse{
		ID:          bkm.ID,
		Title:       bkm.Title,
		Link:        bkm.Link,
		Description: bkm.Description,
		CreatedAt:   bkm.CreatedAt,
	})
}

// DeleteBookmarksByID handles `DELETE /bookmarks/{bookmarkID}`.
// It removes the bookmark and returns 204 with an empty body.
func (r *Router) DeleteBookmarksByID(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(response, request)
	if !ok {
		return
	}

	err := r.svc.DeleteBookmark(request.Context(), userID, chi.URLParam(request, "bookmarkID"))
	switch {
	case errors.Is(err, service.ErrBookmarkNotFound):
		response.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.DeleteBookmark()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// GetPing handles `GET /ping` and reports storage availability.
func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.svc.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `r.svc.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetInternalStats handles `GET /api/internal/stats`.
// The endpoint is only available to clients from the trusted subnet.
func (r *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	if r.clientIPChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := r.clientIPChecker.GetClientIP(request)
	if err != nil || !r.clientIPChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := r.svc.GetStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.GetStats()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSONResponse(response, http.StatusOK, stats)
}
