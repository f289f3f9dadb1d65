package dialogue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the position of a session in its lifecycle.
type Phase int

// Phases in lifecycle order.
const (
	PhaseInit Phase = iota
	PhaseAwaitingSelection
	PhaseAwaitingAction
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseAwaitingSelection:
		return "awaiting_selection"
	case PhaseAwaitingAction:
		return "awaiting_action"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed" // action window elapsed
	OutcomeClosed    Outcome = "closed"    // event source closed the stream
	OutcomeTimeout   Outcome = "timeout"   // no selection in time
	OutcomeAborted   Outcome = "aborted"   // outbound call failed
	OutcomeCancelled Outcome = "cancelled"
)

// Session is the live state of one dialogue. It is owned by the goroutine
// running it; the mutex only protects snapshots taken from elsewhere.
type Session struct {
	mu sync.Mutex

	id        string
	platform  string
	owner     UserID
	trigger   string
	origin    MessageRef
	selected  string
	phase     Phase
	actions   int
	deleted   bool
	outcome   Outcome
	err       error
	startedAt time.Time
	endedAt   time.Time
}

func newSession(msg NewMessage, now time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		platform:  msg.Platform,
		owner:     msg.Author,
		trigger:   msg.ID,
		startedAt: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Selected returns the chosen value, empty before selection.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) awaitSelection(origin MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInit {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, PhaseAwaitingSelection)
	}
	s.origin = origin
	s.phase = PhaseAwaitingSelection
	return nil
}

// selectValue sets the selected value; it succeeds at most once.
func (s *Session) selectValue(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingSelection {
		return fmt.Errorf("%w: selection in %s", ErrInvalidTransition, s.phase)
	}
	s.selected = value
	s.phase = PhaseAwaitingAction
	return nil
}

func (s *Session) acceptAction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingAction {
		return fmt.Errorf("%w: button press in %s", ErrInvalidTransition, s.phase)
	}
	s.actions++
	return nil
}

// claimDelete returns true only on the first call.
func (s *Session) claimDelete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return false
	}
	s.deleted = true
	return true
}

func (s *Session) close(outcome Outcome, err error, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseClosed
	s.outcome = outcome
	s.err = err
	s.endedAt = now
}

// Record returns a snapshot suitable for the session history.
func (s *Session) Record() SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := SessionRecord{
		ID:               s.id,
		Platform:         s.platform,
		Owner:            s.owner,
		TriggerMessageID: s.trigger,
		Selected:         s.selected,
		Actions:          s.actions,
		Outcome:          s.outcome,
		StartedAt:        s.startedAt,
		EndedAt:          s.endedAt,
	}
	if s.err != nil {
		rec.Err = s.err.Error()
	}
	return rec
}
