package metrics

import (
	"net/http"
	"time"
)

// statusRecorder wraps http.ResponseWriter to capture the status code and
// the number of body bytes written.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

// WriteHeader captures the status code before writing.
func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Write counts body bytes as they are written.
func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// InstrumentHandler wraps next so that every exchange on the primary path
// is recorded through RecordRequest: method, status code, duration, and
// body sizes. When metrics are disabled the handler is returned unchanged.
//
// Example:
//
//	mux.Handle("/", collector.InstrumentHandler(dispatchHandler))
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	if !c.config.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		// ContentLength is -1 when the client did not declare one;
		// RecordSize skips non-positive values.
		c.RecordRequest(r.Method, recorder.status, time.Since(start), r.ContentLength, recorder.bytes)
	})
}
