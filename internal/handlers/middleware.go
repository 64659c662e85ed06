package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument logs every request and records its duration. The path label is
// the matched route pattern so unknown URLs do not create new series.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		metrics.APIRequestDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(duration.Seconds())

		logger.Info.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, duration)
	})
}
