package readiness

import "strings"

// DefaultMarkers are output fragments printed by common Python ASGI servers
// once they accept connections.
var DefaultMarkers = []string{
	"Application startup complete",
	"Uvicorn running on",
	"Server running",
}

// Detector reports whether a single output line signals readiness.
type Detector func(line string) bool

// MarkerDetector matches lines containing any of markers. With no markers it
// uses DefaultMarkers.
func MarkerDetector(markers ...string) Detector {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	ms := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			ms = append(ms, m)
		}
	}
	return func(line string) bool {
		for _, m := range ms {
			if strings.Contains(line, m) {
				return true
			}
		}
		return false
	}
}
