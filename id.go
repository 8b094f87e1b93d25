package quire

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewIDFragment returns the first n hex characters of a random UUID,
// used to keep derived asset filenames short but collision-resistant.
// n is clamped to the 32 hex characters a UUID provides.
func NewIDFragment(n int) string {
	if n <= 0 {
		n = 8
	}
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}

// NowUnix returns current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}
