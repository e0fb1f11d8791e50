package facetdex

import "sync/atomic"

// Gate orders asynchronous query responses. Each request takes a number
// from Next; a response is applied only if Accept reports it is newer than
// every response accepted so far. The HTTP API echoes the number back as
// the seq parameter.
type Gate struct {
	issued   atomic.Uint64
	accepted atomic.Uint64
}

// Next returns the sequence number for a new request, starting at 1.
func (g *Gate) Next() uint64 {
	return g.issued.Add(1)
}

// Accept reports whether the response for seq should be applied.
// Zero and stale sequence numbers are rejected.
func (g *Gate) Accept(seq uint64) bool {
	for {
		cur := g.accepted.Load()
		if seq <= cur {
			return false
		}
		if g.accepted.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

// Latest returns the most recently accepted sequence number.
func (g *Gate) Latest() uint64 {
	return g.accepted.Load()
}
