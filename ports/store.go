package ports

import (
	"context"

	"github.com/veritick/veritick/core"
)

// AttendanceLog is the bounded, append-only collection of scan events.
// Appending past capacity drops the oldest entries; append plus eviction
// is atomic per entry.
type AttendanceLog interface {
	// Append stores an event and assigns it the next sequence id.
	Append(ctx context.Context, event core.ScanEvent) (core.ScanEvent, error)

	// Events returns all retained events, oldest first.
	Events(ctx context.Context) ([]core.ScanEvent, error)
}

// TokenRecorder maps minted token strings to their creation time on the
// issuer's synchronized clock. One recorder exists per generator session;
// tokens minted by other sessions are unknown to it.
type TokenRecorder interface {
	// Record stores the creation time for a freshly minted token.
	Record(token string, createdAtMs int64)

	// CreatedAt looks up a token's creation time. The second return is
	// false when this session did not mint the token.
	CreatedAt(token string) (int64, bool)
}
