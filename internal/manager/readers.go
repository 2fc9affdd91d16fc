package manager

import (
	"math"
	"sync"

	"github.com/iamNilotpal/lexi/pkg/errors"
)

// ReaderHandle identifies one registered reader session, returned by
// Register and consumed by Deregister.
type ReaderHandle uint64

// readerRegistry implements spec §5's register/deregister/getTimeStamp
// protocol: a bounded semaphore of MAX_USER_COUNT concurrent readers,
// each holding a timestamp that freezes which partition-set generation
// it is allowed to see.
type readerRegistry struct {
	sem chan struct{}

	mu        sync.Mutex
	nextID    ReaderHandle
	byHandle  map[ReaderHandle]uint64
	currentTs uint64
}

func newReaderRegistry(maxUsers int) *readerRegistry {
	if maxUsers <= 0 {
		maxUsers = 1
	}
	return &readerRegistry{sem: make(chan struct{}, maxUsers), byHandle: make(map[ReaderHandle]uint64)}
}

// register blocks until a slot is free, then assigns ts as the maximum
// of the registry's running timestamp and suggestedTs, advances the
// running timestamp past it, and returns a handle identifying this
// reader session (spec §5 "register(suggestedTs) → ts; ts is the
// maximum of currentTs and suggestedTs, then currentTs advances").
func (r *readerRegistry) register(suggestedTs uint64) (ReaderHandle, uint64) {
	r.sem <- struct{}{}

	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.currentTs
	if suggestedTs > ts {
		ts = suggestedTs
	}
	r.currentTs = ts + 1

	r.nextID++
	h := r.nextID
	r.byHandle[h] = ts
	return h, ts
}

// deregister releases h's slot and reports the minimum timestamp still
// held by a remaining registered reader (math.MaxUint64 if none
// remain), the quantity the manager checks a pending partition set's
// activation timestamp against.
func (r *readerRegistry) deregister(h ReaderHandle) (uint64, error) {
	r.mu.Lock()
	if _, ok := r.byHandle[h]; !ok {
		r.mu.Unlock()
		return 0, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "reader handle is not registered",
		).WithField("handle").WithRule("registered")
	}
	delete(r.byHandle, h)
	min := r.minTimestampLocked()
	r.mu.Unlock()

	<-r.sem
	return min, nil
}

func (r *readerRegistry) minTimestampLocked() uint64 {
	min := uint64(math.MaxUint64)
	for _, ts := range r.byHandle {
		if ts < min {
			min = ts
		}
	}
	return min
}

// minTimestamp returns the minimum timestamp held by any currently
// registered reader, or math.MaxUint64 if none are registered.
func (r *readerRegistry) minTimestamp() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minTimestampLocked()
}

// getTimestamp returns the registry's current running timestamp, the
// value spec §5's getTimeStamp exposes.
func (r *readerRegistry) getTimestamp() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTs
}

// count returns the number of currently registered readers.
func (r *readerRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHandle)
}
