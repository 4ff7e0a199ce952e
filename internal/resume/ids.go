package resume

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues timestamp-derived entry identifiers. Identifiers are
// strictly increasing for one generator, so an identifier is never issued
// twice, even for adds within the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a fresh identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// nextUnique returns an identifier not present in taken. Lists loaded from
// storage may carry identifiers issued by an earlier session.
func (g *IDGenerator) nextUnique(taken func(id string) bool) string {
	for {
		id := g.Next()
		if !taken(id) {
			return id
		}
	}
}
