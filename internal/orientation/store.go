package orientation

import "fmt"

// Mode is the animation state of a cube. Exactly one mode is active.
type Mode int

const (
	// Idle means no frame chain is advancing the angles.
	Idle Mode = iota
	// Rotating means the continuous rotation session is running.
	Rotating
	// Transitioning means a one-shot spin is running. A rotation session
	// interrupted by it is kept suspended.
	Transitioning
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Rotating:
		return "rotating"
	case Transitioning:
		return "transitioning"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Session holds the continuous rotation parameters. They are fixed by the
// first rotation and kept for every resume.
type Session struct {
	// Speeds is the time in milliseconds for a full turn, per axis.
	// Zero keeps the axis still.
	Speeds    [3]float64
	Direction Direction
	// Suspended is set while a transition interrupts the rotation.
	Suspended bool
}

// Store is the authoritative orientation of one cube. It is not safe for
// concurrent use; every write happens on the frame loop.
type Store struct {
	angles   Angles
	snapshot Angles
	mode     Mode
	session  *Session
}

// NewStore returns a store at (0,0,0) in Idle mode.
func NewStore() *Store {
	return &Store{}
}

// Angles returns the current logical angles.
func (s *Store) Angles() Angles { return s.angles }

// Set writes all three angles.
func (s *Store) Set(x, y, z float64) { s.angles = Angles{x, y, z} }

// SetAngles writes all three angles.
func (s *Store) SetAngles(a Angles) { s.angles = a }

// SetAxis writes a single angle.
func (s *Store) SetAxis(axis Axis, deg float64) { s.angles[axis] = deg }

// SetFromSide writes the orientation of a named side. Unknown names leave
// the angles untouched.
func (s *Store) SetFromSide(name string) error {
	a, err := Side(name, "set orientation")
	if err != nil {
		return err
	}
	s.angles = a
	return nil
}

// TakeSnapshot saves the current angles unless a transition is already
// running, in which case the earlier snapshot is kept. It reports whether
// a snapshot was taken.
func (s *Store) TakeSnapshot() bool {
	if s.mode == Transitioning {
		return false
	}
	s.snapshot = s.angles
	return true
}

// Snapshot returns the saved angles.
func (s *Store) Snapshot() Angles { return s.snapshot }

// RestoreSnapshot writes the saved angles back.
func (s *Store) RestoreSnapshot() { s.angles = s.snapshot }

// Mode returns the active mode.
func (s *Store) Mode() Mode { return s.mode }

// Session returns a copy of the rotation session, if one was fixed.
func (s *Store) Session() (Session, bool) {
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// FixSession installs the rotation session. Once fixed it is never
// replaced; the return value reports whether sess was installed.
func (s *Store) FixSession(sess Session) bool {
	if s.session != nil {
		return false
	}
	if sess.Direction == "" {
		sess.Direction = Right
	}
	// not running until BeginRotation
	sess.Suspended = true
	s.session = &sess
	return true
}

// SetDirection changes the direction of a fixed session.
func (s *Store) SetDirection(d Direction) {
	if s.session != nil && d != "" {
		s.session.Direction = d
	}
}

// BeginRotation enters Rotating and resumes a suspended session.
func (s *Store) BeginRotation() error {
	if s.session == nil {
		return fmt.Errorf("begin rotation: no rotation session")
	}
	s.session.Suspended = false
	s.mode = Rotating
	return nil
}

// BeginTransition enters Transitioning. A running rotation is suspended,
// not discarded.
func (s *Store) BeginTransition() {
	if s.mode == Rotating && s.session != nil {
		s.session.Suspended = true
	}
	s.mode = Transitioning
}

// EndTransition returns to Idle after a transition finished or was
// abandoned. A suspended session stays suspended until BeginRotation.
func (s *Store) EndTransition() {
	if s.mode == Transitioning {
		s.mode = Idle
	}
}

// Halt returns to Idle from any mode, suspending a running session.
func (s *Store) Halt() {
	if s.mode == Rotating && s.session != nil {
		s.session.Suspended = true
	}
	s.mode = Idle
}

// Validate checks that mode and session agree.
func (s *Store) Validate() error {
	switch s.mode {
	case Rotating:
		if s.session == nil {
			return fmt.Errorf("mode %s without a session", s.mode)
		}
		if s.session.Suspended {
			return fmt.Errorf("mode %s with a suspended session", s.mode)
		}
	case Idle, Transitioning:
		if s.session != nil && !s.session.Suspended {
			return fmt.Errorf("mode %s with a live session", s.mode)
		}
	default:
		return fmt.Errorf("unknown mode %d", int(s.mode))
	}
	return nil
}
