// Package dashboard assembles everything the engineer dashboard shows.
package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tyredash/internal/annotations"
	"tyredash/internal/models"
	"tyredash/internal/rank"
	"tyredash/internal/timestamp"
)

const (
	statusInProgress = "in progress"
	statusCompleted  = "completed"
)

// Source is the backend data the dashboard is built from
type Source interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListMyProjects(ctx context.Context) ([]models.Project, error)
	ListActivity(ctx context.Context) ([]models.Activity, error)
}

// Limits caps each dashboard section
type Limits struct {
	Ranked   int
	Recent   int
	Activity int
}

var DefaultLimits = Limits{Ranked: rank.DefaultLimit, Recent: 5, Activity: 10}

// KPIs are counted over every project, not only the ranked ones
type KPIs struct {
	Total      int
	InProgress int
	Completed  int
}

// Snapshot is one loaded dashboard
type Snapshot struct {
	Projects []models.Project
	Ranked   rank.View
	Recent   []models.Project
	Activity []models.Activity
	KPIs     KPIs
	LoadedAt time.Time
}

// Service loads and re-ranks dashboards
type Service struct {
	source     Source
	store      *annotations.Store
	ranker     *rank.Ranker
	normalizer timestamp.Normalizer
	limits     Limits
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimits overrides section sizes. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(s *Service) {
		if l.Ranked > 0 {
			s.limits.Ranked = l.Ranked
		}
		if l.Recent > 0 {
			s.limits.Recent = l.Recent
		}
		if l.Activity > 0 {
			s.limits.Activity = l.Activity
		}
	}
}

func WithNormalizer(n timestamp.Normalizer) Option {
	return func(s *Service) {
		s.normalizer = n
	}
}

func NewService(source Source, store *annotations.Store, opts ...Option) *Service {
	s := &Service{
		source:     source,
		store:      store,
		normalizer: timestamp.Local,
		limits:     DefaultLimits,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ranker = rank.New(store, rank.WithLimit(s.limits.Ranked), rank.WithNormalizer(s.normalizer))
	return s
}

// Store returns the annotation store the service ranks against
func (s *Service) Store() *annotations.Store {
	return s.store
}

// Load fetches projects, recent completions and activity concurrently. A
// failing section is logged and left empty; only cancellation is an error.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		projects, err := s.source.ListProjects(gctx)
		if err != nil {
			s.logger.Warn("failed to load projects", zap.Error(err))
			return nil
		}
		snap.Projects = projects
		return nil
	})

	g.Go(func() error {
		mine, err := s.source.ListMyProjects(gctx)
		if err != nil {
			s.logger.Warn("failed to load recent projects", zap.Error(err))
			return nil
		}
		snap.Recent = recentCompleted(mine, s.limits.Recent)
		return nil
	})

	g.Go(func() error {
		activity, err := s.source.ListActivity(gctx)
		if err != nil {
			s.logger.Warn("failed to load activity", zap.Error(err))
			return nil
		}
		if len(activity) > s.limits.Activity {
			activity = activity[:s.limits.Activity]
		}
		snap.Activity = activity
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap.KPIs = CountKPIs(snap.Projects)
	snap.Ranked = s.ranker.Rank(snap.Projects)
	snap.LoadedAt = s.now()

	s.logger.Debug("dashboard loaded",
		zap.Int("projects", len(snap.Projects)),
		zap.Int("ranked", len(snap.Ranked.Entries)),
		zap.Int("recent", len(snap.Recent)),
		zap.Int("activity", len(snap.Activity)))
	return snap, nil
}

// Rerank recomputes the ranked view of snap from the current annotations
// without going back to the server.
func (s *Service) Rerank(snap *Snapshot) {
	if snap == nil {
		return
	}
	snap.Ranked = s.ranker.Rank(snap.Projects)
}

// TogglePin flips the pin of p and reports the new state
func (s *Service) TogglePin(p models.Project) bool {
	key := models.DeriveKey(p)
	s.store.TogglePinned(key)
	return s.store.IsPinned(key)
}

// CountKPIs counts projects by status, ignoring case
func CountKPIs(projects []models.Project) KPIs {
	k := KPIs{Total: len(projects)}
	for _, p := range projects {
		switch {
		case p.HasStatus(statusInProgress):
			k.InProgress++
		case p.HasStatus(statusCompleted):
			k.Completed++
		}
	}
	return k
}

func recentCompleted(projects []models.Project, limit int) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if !p.HasStatus(statusCompleted) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}
