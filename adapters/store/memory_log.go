package store

import (
	"context"
	"sync"
	"time"

	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/ports"
)

// DefaultLogCapacity is the retention cap applied when none is given.
const DefaultLogCapacity = 500

// MemoryLog is an in-memory implementation of the AttendanceLog.
type MemoryLog struct {
	capacity int
	nextID   uint64
	events   []core.ScanEvent
	mu       sync.RWMutex
}

// NewMemoryLog creates a bounded in-memory log. A capacity of zero or
// less falls back to DefaultLogCapacity.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &MemoryLog{
		capacity: capacity,
		nextID:   1,
		events:   make([]core.ScanEvent, 0, capacity),
	}
}

// Append stores an event, assigning the next sequence id and stamping
// the log time. Oldest entries are dropped once the cap is exceeded.
func (l *MemoryLog) Append(ctx context.Context, event core.ScanEvent) (core.ScanEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event.ID = l.nextID
	l.nextID++
	if event.LogTime.IsZero() {
		event.LogTime = time.Now()
	}

	l.events = append(l.events, event)
	if overflow := len(l.events) - l.capacity; overflow > 0 {
		l.events = append(l.events[:0:0], l.events[overflow:]...)
	}

	return event, nil
}

// Events returns all retained events, oldest first.
func (l *MemoryLog) Events(ctx context.Context) ([]core.ScanEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]core.ScanEvent(nil), l.events...), nil
}

var _ ports.AttendanceLog = (*MemoryLog)(nil)
