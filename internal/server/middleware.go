package server

import (
	"net/http"
	"time"

	"github.com/cruxstack/flodesk-verify-go/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestID tags each request with the caller's X-Request-ID or a new uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Logging(next http.Handler) http.Handler {
	return middleware.RequestLogger(&structuredLogger{})(next)
}

type structuredLogger struct{}

func (l *structuredLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &structuredLogEntry{request: r}
}

type structuredLogEntry struct {
	request *http.Request
}

func (l *structuredLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	logging.FromContext(l.request.Context()).Info("http request completed",
		"method", l.request.Method,
		"path", l.request.URL.Path,
		"status", status,
		"bytes", bytes,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

func (l *structuredLogEntry) Panic(v interface{}, stack []byte) {
	logging.FromContext(l.request.Context()).Error("http request panic",
		"panic", v,
		"stack", string(stack),
		"method", l.request.Method,
		"path", l.request.URL.Path,
	)
}
