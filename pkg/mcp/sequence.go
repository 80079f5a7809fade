package mcp

import "sync/atomic"

// Sequence issues request ids for one client. Ids start at 1, strictly
// increase, and are never reused or reset. Safe for concurrent use.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next id.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Last returns the most recently issued id, or 0 if none was issued.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}
