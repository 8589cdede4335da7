package control

import "sync"

// Target is the velocity pair requested by the upstream follower.
type Target struct {
	Linear  float64
	Angular float64
}

// Snapshot pairs the latest target with the latest measured velocity. The
// target components always come from the same update, never a torn read.
type Snapshot struct {
	Target  Target
	Current float64
}

// Store holds the most recent target and measured velocities. Each side is
// unknown until first observed; most-recent-wins, no history. Updates arrive
// from transport callbacks and reads from the loop goroutine, so every access
// is mutex-guarded and holds the lock only for the copy.
type Store struct {
	mu         sync.Mutex
	target     Target
	hasTarget  bool
	current    float64
	hasCurrent bool

	onAngularChange func(prev, next float64)
}

// NewStore returns an empty store: Snapshot reports not ready until both a
// target and a current velocity have been set.
func NewStore() *Store {
	return &Store{}
}

// OnAngularChange installs a diagnostic callback fired when an update carries
// a different angular target than the previous one. The callback runs outside
// the store lock and must not block. Install before the first update.
func (s *Store) OnAngularChange(fn func(prev, next float64)) {
	s.mu.Lock()
	s.onAngularChange = fn
	s.mu.Unlock()
}

// SetTarget overwrites the target velocity pair atomically.
func (s *Store) SetTarget(linear, angular float64) {
	s.mu.Lock()
	prev := s.target.Angular
	had := s.hasTarget
	s.target = Target{Linear: linear, Angular: angular}
	s.hasTarget = true
	fn := s.onAngularChange
	s.mu.Unlock()

	if fn != nil && had && angular != prev {
		fn(prev, angular)
	}
}

// SetCurrent overwrites the measured linear velocity.
func (s *Store) SetCurrent(linear float64) {
	s.mu.Lock()
	s.current = linear
	s.hasCurrent = true
	s.mu.Unlock()
}

// Snapshot returns a consistent view of both velocities. The second return
// value is false while either side has never been observed; absence of data
// is a result variant, not an error.
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasTarget || !s.hasCurrent {
		return Snapshot{}, false
	}
	return Snapshot{Target: s.target, Current: s.current}, true
}
