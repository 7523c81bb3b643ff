package middleware

import "net/http"

// StatusClientClosedRequest is recorded for requests whose client went away
// before any response was written.
const StatusClientClosedRequest = 499

// statusWriter wraps http.ResponseWriter to capture the status code.
// It delegates Flush and Unwrap so streaming responses and connection
// upgrades through http.ResponseController keep working.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// asStatusWriter reuses an outer statusWriter instead of stacking another.
func asStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

// code returns the status to record for r.
func (sw *statusWriter) code(r *http.Request) int {
	if !sw.wroteHeader && r.Context().Err() != nil {
		return StatusClientClosedRequest
	}
	return sw.status
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		// 1xx are informational; the final header is still to come.
		if code >= 200 || code == http.StatusSwitchingProtocols {
			sw.wroteHeader = true
		}
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (sw *statusWriter) Flush() {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
