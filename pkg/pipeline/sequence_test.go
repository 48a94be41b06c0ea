package pipeline

import (
	stderrors "errors"
	"sync"
	"testing"
)

func TestSequencer(t *testing.T) {
	var s Sequencer
	if s.Latest() != 0 {
		t.Fatalf("zero Sequencer Latest = %d", s.Latest())
	}

	a := s.Next()
	if !s.IsLatest(a) || s.Accept(a) != nil {
		t.Error("first number should be current")
	}

	b := s.Next()
	if b <= a {
		t.Errorf("numbers must increase: %d then %d", a, b)
	}
	if s.IsLatest(a) {
		t.Error("older number should be stale")
	}
	if err := s.Accept(a); !stderrors.Is(err, ErrStale) {
		t.Errorf("Accept(stale) = %v, want ErrStale", err)
	}
	if s.Accept(b) != nil {
		t.Error("newest number should be accepted")
	}
}

func TestSequencerConcurrent(t *testing.T) {
	var s Sequencer
	const n = 100

	seen := make(chan uint64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- s.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[uint64]bool{}
	for v := range seen {
		if unique[v] {
			t.Fatalf("number %d issued twice", v)
		}
		unique[v] = true
	}
	if s.Latest() != n {
		t.Errorf("Latest = %d, want %d", s.Latest(), n)
	}
}
