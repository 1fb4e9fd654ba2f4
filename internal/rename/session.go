package rename

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tyredash/internal/models"
)

// State is the phase of an edit session
type State int

const (
	Editing State = iota
	Committing
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == Committed || s == RolledBack
}

// Session is one inline rename of one row. Exactly one of Submit or Cancel
// takes effect, and a submitted session finishes exactly once.
type Session struct {
	ID       uuid.UUID
	Key      models.ProjectKey
	Original string

	mu    sync.Mutex
	state State
	value string
}

// NewSession starts editing p
func NewSession(p models.Project) *Session {
	return &Session{
		ID:       uuid.New(),
		Key:      models.DeriveKey(p),
		Original: p.DisplayName(),
		state:    Editing,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit moves Editing to Committing and returns the submitted value. Any
// later Submit or Cancel is refused.
func (s *Session) Submit(value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return "", false
	}
	s.state = Committing
	s.value = value
	return value, true
}

// Cancel moves Editing straight to RolledBack
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return false
	}
	s.state = RolledBack
	return true
}

// Finish settles a committing session. Only the first call has an effect.
func (s *Session) Finish(applied bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Committing {
		return false
	}
	if applied {
		s.state = Committed
	} else {
		s.state = RolledBack
	}
	return true
}

// Result is what the row should show once a session settles
type Result struct {
	SessionID uuid.UUID
	State     State
	Name      string
	Err       error
}

// Applied reports whether the new name was stored
func (r Result) Applied() bool {
	return r.State == Committed
}

// Run submits value and performs the rename through c. The second return is
// false when the session was already settled, in which case nothing was sent.
func (s *Session) Run(ctx context.Context, c *Coordinator, p *models.Project, value string) (Result, bool) {
	value, ok := s.Submit(value)
	if !ok {
		c.logger.Debug("duplicate rename completion ignored", zap.Stringer("session", s.ID))
		return Result{}, false
	}

	applied, err := c.Rename(ctx, p, value)
	if !s.Finish(applied) {
		return Result{}, false
	}

	res := Result{SessionID: s.ID, State: s.State(), Name: s.Original, Err: err}
	if applied {
		res.Name = p.ProjectName
	}
	if err != nil {
		c.logger.Warn("rename failed", zap.Stringer("session", s.ID), zap.Error(err))
	}
	return res, true
}
