// Package annotations keeps client-only facts about projects: which ones the
// engineer pinned and when each was last opened or edited locally.
//
// Every operation is synchronous and best-effort. State is read from the
// backend on each call, so a change written by another process is visible on
// the next read, and concurrent writers resolve last-write-wins. Corrupt
// persisted state reads as empty and write failures are dropped.
package annotations

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"

	"go.uber.org/zap"

	"tyredash/internal/models"
)

// Blob names, matching the keys the web dashboard kept in localStorage.
const (
	PinnedBlob  = "pinnedProjects"
	TouchesBlob = "projectTouches"
)

// Backend persists named text blobs.
type Backend interface {
	Get(name string) (value string, ok bool, err error)
	Set(name, value string) error
}

// Annotation is what the store knows about one project.
type Annotation struct {
	Pinned        bool
	LastTouchedAt time.Time // zero when never touched
}

// Store reads and writes annotations through a Backend.
type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for dropped reads and writes.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used by Touch.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsPinned reports whether key is pinned.
func (s *Store) IsPinned(key models.ProjectKey) bool {
	return slices.Contains(s.readPins(), key.String())
}

// TogglePinned flips the pinned state of key and persists it.
func (s *Store) TogglePinned(key models.ProjectKey) {
	pins := s.readPins()
	k := key.String()
	if i := slices.Index(pins, k); i >= 0 {
		pins = slices.Delete(pins, i, i+1)
	} else {
		pins = append(pins, k)
	}
	s.write(PinnedBlob, pins)
}

// Touch records now as the last local interaction with key.
func (s *Store) Touch(key models.ProjectKey) {
	s.TouchAt(key, s.now())
}

// TouchAt records at as the last local interaction with key. The stored value
// is overwritten even when at is older than what is already recorded.
func (s *Store) TouchAt(key models.ProjectKey, at time.Time) {
	if key.IsEmpty() {
		return
	}
	touches := s.readTouches()
	touches[key.String()] = at.UnixMilli()
	s.write(TouchesBlob, touches)
}

// LastTouchedMillis returns the epoch milliseconds of the last touch, 0 if none.
func (s *Store) LastTouchedMillis(key models.ProjectKey) int64 {
	return s.readTouches()[key.String()]
}

// Record returns both facts for key.
func (s *Store) Record(key models.ProjectKey) Annotation {
	return s.Snapshot().Record(key)
}

// Snapshot reads the persisted state once.
func (s *Store) Snapshot() Snapshot {
	pins := s.readPins()
	set := make(map[string]struct{}, len(pins))
	for _, p := range pins {
		set[p] = struct{}{}
	}
	return Snapshot{order: pins, pinned: set, touches: s.readTouches()}
}

func (s *Store) readPins() []string {
	raw, ok := s.read(PinnedBlob)
	if !ok {
		return nil
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Debug("ignoring malformed pinned projects", zap.Error(err))
		return nil
	}

	pins := make([]string, 0, len(items))
	for _, it := range items {
		if str, ok := it.(string); ok {
			pins = append(pins, str)
		}
	}
	return pins
}

func (s *Store) readTouches() map[string]int64 {
	touches := make(map[string]int64)

	raw, ok := s.read(TouchesBlob)
	if !ok {
		return touches
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		s.logger.Debug("ignoring malformed project touches", zap.Error(err))
		return touches
	}

	for k, v := range m {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if ms, err := n.Int64(); err == nil {
			touches[k] = ms
		} else if f, err := n.Float64(); err == nil {
			touches[k] = int64(f)
		}
	}
	return touches
}

func (s *Store) read(name string) (string, bool) {
	if s.backend == nil {
		return "", false
	}
	raw, ok, err := s.backend.Get(name)
	if err != nil {
		s.logger.Debug("annotation read failed", zap.String("blob", name), zap.Error(err))
		return "", false
	}
	return raw, ok && raw != ""
}

func (s *Store) write(name string, v any) {
	if s.backend == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Debug("annotation encode failed", zap.String("blob", name), zap.Error(err))
		return
	}
	if err := s.backend.Set(name, string(data)); err != nil {
		s.logger.Debug("annotation write dropped", zap.String("blob", name), zap.Error(err))
	}
}

// Snapshot is an immutable view of the annotations at one point in time.
type Snapshot struct {
	order   []string
	pinned  map[string]struct{}
	touches map[string]int64
}

// IsPinned reports whether key was pinned when the snapshot was taken.
func (s Snapshot) IsPinned(key models.ProjectKey) bool {
	_, ok := s.pinned[key.String()]
	return ok
}

// LastTouchedMillis returns the recorded touch of key, 0 if none.
func (s Snapshot) LastTouchedMillis(key models.ProjectKey) int64 {
	return s.touches[key.String()]
}

// Record returns both facts for key.
func (s Snapshot) Record(key models.ProjectKey) Annotation {
	a := Annotation{Pinned: s.IsPinned(key)}
	if ms := s.LastTouchedMillis(key); ms != 0 {
		a.LastTouchedAt = time.UnixMilli(ms)
	}
	return a
}

// Pinned returns the pinned keys in the order they were pinned.
func (s Snapshot) Pinned() []models.ProjectKey {
	keys := make([]models.ProjectKey, 0, len(s.order))
	for _, k := range s.order {
		keys = append(keys, models.ParseProjectKey(k))
	}
	return keys
}
