package ports

import (
	"context"

	"github.com/veritick/veritick/core"
)

// EventPublisher notifies other components of accepted scans.
type EventPublisher interface {
	PublishScan(ctx context.Context, event core.ScanEvent) error
}
