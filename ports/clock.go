package ports

import "context"

// TimeOracle reports the current time of a remote reference clock in
// epoch milliseconds.
type TimeOracle interface {
	ServerTime(ctx context.Context) (int64, error)
}
