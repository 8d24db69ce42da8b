package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency under the route pattern and
// turns handler panics into 500s.
func (s *Server) instrument(pattern string, next http.Handler) http.Handler {
	method, endpoint, ok := strings.Cut(pattern, " ")
	if !ok {
		endpoint, method = pattern, "ANY"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.log.Error("handler panic",
					zap.String("endpoint", endpoint),
					zap.String("request_id", r.Header.Get(requestIDHeader)),
					zap.Any("panic", p),
				)
				writeJSON(rec, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
			}
			s.cfg.Metrics.RecordHTTPRequest(endpoint, method, rec.status, time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	})
}

// requestID makes sure every request and response carries an id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
