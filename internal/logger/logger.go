// Package logger holds the process-wide zap sugared logger and the HTTP
// request logging middleware.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Log is the global SugaredLogger. It must be initialized via Init()
// before any other package uses it.
var Log *zap.SugaredLogger

// Init builds the global logger with the given level ("debug", "info", ...).
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes buffered log entries. Syncing a terminal on some platforms
// reports os.ErrInvalid, which is not a real failure.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

type responseInfo struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	info *responseInfo
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.info.size += size

	return size, err
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.info.status = statusCode
}

// WithLoggingHTTPMiddleware logs method, URI, status, response size and
// duration of every request passing through it.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		start := time.Now()

		info := &responseInfo{}
		wrapped := &loggingResponseWriter{
			ResponseWriter: response,
			info:           info,
		}

		h.ServeHTTP(wrapped, request)

		Log.Infoln(
			"uri", request.RequestURI,
			"method", request.Method,
			"status", info.status,
			"duration", time.Since(start),
			"size", info.size,
		)
	}

	return http.HandlerFunc(middleware)
}
