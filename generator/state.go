// Package generator implements DNSSRC's synthetic record generators:
// one pure function per leaf label, selected by a flat registry rather
// than a middleware chain (spec.md §9 explicitly prefers a flat table
// over virtual dispatch for this concern).
package generator

import (
	"math/rand"
	"sync"
	"time"
)

// State is the process-wide mutable state every generator may read:
// the monotonic query counter and the shared PRNG. Both are safe for
// concurrent use from every listener goroutine.
type State struct {
	counter uint64
	cmu     sync.Mutex

	rng *rand.Rand
	rmu sync.Mutex
}

// NewState returns a fresh State seeded from the wall clock.
func NewState() *State {
	return &State{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next increments the counter by exactly one and returns the new
// value. Callers increment on every dispatched query, successful or
// not, per spec.md §3.
func (s *State) Next() uint64 {
	s.cmu.Lock()
	defer s.cmu.Unlock()

	s.counter++

	return s.counter
}

// Counter returns the counter's current value without incrementing
// it -- what the `counter` generator answers with.
func (s *State) Counter() uint64 {
	s.cmu.Lock()
	defer s.cmu.Unlock()

	return s.counter
}

// RandomUint32 returns a PRNG-sourced uint32, guarded by a mutex per
// spec.md §5's "mutex-guarded global" option for shared PRNG state.
func (s *State) RandomUint32() uint32 {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	return s.rng.Uint32()
}

const randomStringLength = 30

// RandomAlphanumeric returns a random alphanumeric string of the
// fixed length the source uses (handler.rs picks 30, within spec.md's
// allowed 16-32 range).
func (s *State) RandomAlphanumeric() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	buf := make([]byte, randomStringLength)

	s.rmu.Lock()
	defer s.rmu.Unlock()

	for i := range buf {
		buf[i] = alphabet[s.rng.Intn(len(alphabet))]
	}

	return string(buf)
}
