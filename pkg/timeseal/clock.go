package timeseal

import "time"

// RoundClock reports the current drand round as a checkpoint height,
// satisfying the escrow engine's Clock interface. Rounds advance with wall
// time regardless of whether anyone fetched the beacon, so the counter is
// monotone for all observers.
type RoundClock struct {
	network NetworkInfo
	now     func() time.Time
}

// NewRoundClock builds a clock over the given network's round schedule.
func NewRoundClock(network NetworkInfo) *RoundClock {
	return &RoundClock{network: network, now: time.Now}
}

// Height returns the round currently being produced.
func (c *RoundClock) Height() uint64 {
	return c.network.TimeToRound(c.now())
}

// TimeUntil reports how long until the given round is produced. Zero or
// negative means the round is already available.
func (c *RoundClock) TimeUntil(round uint64) time.Duration {
	return c.network.RoundToTime(round).Sub(c.now())
}
