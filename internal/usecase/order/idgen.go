package order

import (
	"sync/atomic"
	"time"
)

type IDGenerator interface {
	NextID() int64
}

// ClockIDGenerator hands out microsecond timestamps, bumped by one whenever
// the clock has not advanced past the previous id. Ids stay below 2^53 so
// JSON clients can hold them as numbers.
type ClockIDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewClockIDGenerator() *ClockIDGenerator {
	return &ClockIDGenerator{now: time.Now}
}

func (g *ClockIDGenerator) NextID() int64 {
	for {
		last := g.last.Load()
		next := g.now().UnixMicro()
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return next
		}
	}
}
