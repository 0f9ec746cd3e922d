package snapshot

import (
	"errors"
	"sync"
)

// #region scripted

// ErrUnavailable is returned by providers whose facet has no current value.
var ErrUnavailable = errors.New("facet unavailable")

// Scripted is a facet source backed by a mutable in-memory snapshot. It
// implements all four provider interfaces and backs the replay harness and
// the interactive demo, where context changes are driven by hand instead of
// by platform events.
type Scripted struct {
	mu  sync.Mutex
	cur Snapshot
}

// NewScripted creates a Scripted source with the given starting context.
func NewScripted(initial Snapshot) *Scripted {
	return &Scripted{cur: initial}
}

// Set replaces the current context.
func (s *Scripted) Set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = snap
}

// Current returns a copy of the current context.
func (s *Scripted) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Mutate applies fn to the current context under the lock.
func (s *Scripted) Mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cur)
}

// Temporal implements TemporalProvider.
func (s *Scripted) Temporal() (TemporalFacet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Temporal == nil {
		return TemporalFacet{}, ErrUnavailable
	}
	return *s.cur.Temporal, nil
}

// Connectivity implements ConnectivityProvider.
func (s *Scripted) Connectivity() (ConnectivityFacet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Connectivity == nil {
		return ConnectivityFacet{}, ErrUnavailable
	}
	return *s.cur.Connectivity, nil
}

// Peripherals implements PeripheralProvider.
func (s *Scripted) Peripherals() (PeripheralFacet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Peripherals == nil {
		return PeripheralFacet{}, ErrUnavailable
	}
	return *s.cur.Peripherals, nil
}

// DeviceState implements DeviceStateProvider.
func (s *Scripted) DeviceState() (DeviceStateFacet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.DeviceState == nil {
		return DeviceStateFacet{}, ErrUnavailable
	}
	return *s.cur.DeviceState, nil
}

// #endregion scripted
