package core

// EstimateClockOffset estimates remoteClock - localClock from a single
// round-trip probe: t0 and t3 are the local send and receive instants,
// remote is the timestamp the oracle reported in between. Latency is
// assumed symmetric, so the midpoint of the round trip is taken as the
// local instant corresponding to the remote reading. All values are
// epoch milliseconds.
func EstimateClockOffset(t0, remote, t3 int64) int64 {
	return remote - (t0 + (t3-t0)/2)
}
