package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable event ids: "<prefix>-00001", "<prefix>-00002", ...
//
// The zero padding keeps lexical order equal to generation order, so ids
// behave like the time-ordered UUIDs used in production when breaking
// timestamp ties.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. If prefix is empty, "ev" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "ev"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%05d", g.prefix, g.n)
}
