package core

import "time"

// ScanEvent is one accepted attendance scan. Events are immutable once
// recorded and are held in a bounded, append-only log.
type ScanEvent struct {
	ID            uint64    // Monotonically increasing sequence id
	ParticipantID string    // Identity submitted with the scan
	Token         string    // Exact token string as scanned
	SourceAddress string    // Remote address of the submitting client
	ServerRecvTs  int64     // Receipt time, epoch milliseconds
	LogTime       time.Time // Wall-clock time the event was logged
}
