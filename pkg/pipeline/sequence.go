package pipeline

import (
	"sync/atomic"

	"github.com/matzehuels/ruleviz/pkg/errors"
)

// ErrStale is returned for a cycle that a newer request superseded.
var ErrStale = errors.New(errors.ErrCodeStale, "response superseded by a newer request")

// Sequencer hands out increasing request numbers and decides which response
// may still be shown. Only the most recently issued number is current.
// The zero value is ready to use and safe for concurrent use.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new request number, making every earlier one stale.
func (s *Sequencer) Next() uint64 { return s.latest.Add(1) }

// Latest returns the most recently issued number, or 0 if none was issued.
func (s *Sequencer) Latest() uint64 { return s.latest.Load() }

// IsLatest reports whether seq is the most recently issued number.
func (s *Sequencer) IsLatest(seq uint64) bool { return seq == s.latest.Load() }

// Accept returns [ErrStale] unless seq is still current.
func (s *Sequencer) Accept(seq uint64) error {
	if !s.IsLatest(seq) {
		return ErrStale
	}
	return nil
}
