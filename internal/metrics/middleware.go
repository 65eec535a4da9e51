package metrics

import (
	"net/http"
	"regexp"
	"time"
)

// Path normalization patterns, compiled once at package init.
var (
	numericSegment  = regexp.MustCompile(`/(\d+)`)
	downloadSegment = regexp.MustCompile(`^(/api/guest/download)/.+$`)
)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter
func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called before writing body
func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware returns an HTTP middleware that records request count and
// latency for each request, with IDs and filenames stripped from the path
// label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		startTime := time.Now()
		next.ServeHTTP(recorder, r)
		duration := time.Since(startTime).Seconds()

		statusStr := http.StatusText(recorder.statusCode)
		if statusStr == "" {
			statusStr = "UNKNOWN"
		}

		normalizedPath := normalizePath(r.URL.Path)
		RecordRequest(r.Method, normalizedPath, statusStr)
		RecordRequestDuration(r.Method, normalizedPath, statusStr, duration)
	})
}

// normalizePath replaces variable path segments with placeholders so metric
// label cardinality stays bounded. Examples:
//
//	/api/admin/tokens/123       -> /api/admin/tokens/:id
//	/api/guest/download/a.txt   -> /api/guest/download/:file
func normalizePath(path string) string {
	path = downloadSegment.ReplaceAllString(path, "$1/:file")
	return numericSegment.ReplaceAllString(path, "/:id")
}
