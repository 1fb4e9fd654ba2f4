// Package rank orders the dashboard's project list.
package rank

import (
	"sort"

	"tyredash/internal/annotations"
	"tyredash/internal/models"
	"tyredash/internal/timestamp"
)

// DefaultLimit is the number of projects shown on the dashboard.
const DefaultLimit = 7

// Source provides the annotation state a ranking is computed against.
type Source interface {
	Snapshot() annotations.Snapshot
}

// Entry is one ranked project with the facts its position was derived from.
type Entry struct {
	Project      models.Project
	Key          models.ProjectKey
	Pinned       bool
	LastActivity int64 // epoch milliseconds, 0 when unknown
}

// View is the ordered, truncated result of Rank.
type View struct {
	Entries []Entry
	Total   int // number of input projects before truncation
}

// Empty reports that there were no projects to rank at all.
func (v View) Empty() bool {
	return v.Total == 0
}

// Projects returns the ranked projects.
func (v View) Projects() []models.Project {
	out := make([]models.Project, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = e.Project
	}
	return out
}

// Ranker computes views against the current annotation state. It keeps no
// state of its own between calls.
type Ranker struct {
	source     Source
	normalizer timestamp.Normalizer
	limit      int
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithLimit changes the number of entries kept. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithNormalizer sets the location naive server timestamps are read in.
func WithNormalizer(n timestamp.Normalizer) Option {
	return func(r *Ranker) {
		r.normalizer = n
	}
}

// New returns a Ranker reading annotations from source.
func New(source Source, opts ...Option) *Ranker {
	r := &Ranker{
		source:     source,
		normalizer: timestamp.Local,
		limit:      DefaultLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank orders projects pinned first, then by most recent activity, and keeps
// the first limit entries. Projects with equal standing keep their input
// order. The input slice is not modified.
func (r *Ranker) Rank(projects []models.Project) View {
	var snap annotations.Snapshot
	if r.source != nil {
		snap = r.source.Snapshot()
	}
	return r.RankSnapshot(projects, snap)
}

// RankSnapshot ranks against an explicit snapshot.
func (r *Ranker) RankSnapshot(projects []models.Project, snap annotations.Snapshot) View {
	entries := make([]Entry, len(projects))
	for i, p := range projects {
		key := models.DeriveKey(p)
		entries[i] = Entry{
			Project:      p,
			Key:          key,
			Pinned:       snap.IsPinned(key),
			LastActivity: r.lastActivity(p, snap.LastTouchedMillis(key)),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		return a.LastActivity > b.LastActivity
	})

	if len(entries) > r.limit {
		entries = entries[:r.limit]
	}
	return View{Entries: entries, Total: len(projects)}
}

func (r *Ranker) lastActivity(p models.Project, touched int64) int64 {
	return max(
		touched,
		r.normalizer.ToEpochMillis(p.UpdatedAt),
		r.normalizer.ToEpochMillis(p.CompletedAt),
		r.normalizer.ToEpochMillis(p.CreatedAt),
	)
}
