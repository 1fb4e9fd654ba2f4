package rename

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tyredash/internal/api"
	"tyredash/internal/models"
)

var (
	// ErrMissingID is returned for projects the server cannot address
	ErrMissingID = errors.New("project has no identifier")

	// ErrRejected is returned when the server answers 2xx but declares failure
	ErrRejected = errors.New("rename rejected by server")
)

// DefaultMethods are tried in order: a partial update, then a full replace.
var DefaultMethods = []string{http.MethodPatch, http.MethodPut}

// Updater sends a name change to the backend
type Updater interface {
	UpdateProjectName(ctx context.Context, method, projectID, name string) (*api.RenameResponse, error)
}

// Toucher records recency for a project key
type Toucher interface {
	Touch(key models.ProjectKey)
}

// Coordinator applies project renames against the backend
type Coordinator struct {
	updater Updater
	toucher Toucher
	methods []string
	logger  *zap.Logger
}

type Option func(*Coordinator)

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMethods overrides the ordered list of update methods
func WithMethods(methods ...string) Option {
	return func(c *Coordinator) {
		if len(methods) > 0 {
			c.methods = methods
		}
	}
}

func New(updater Updater, toucher Toucher, opts ...Option) *Coordinator {
	c := &Coordinator{
		updater: updater,
		toucher: toucher,
		methods: DefaultMethods,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rename changes p's name to newName. It reports false with a nil error when
// there is nothing to apply: a blank name or the name already shown. On
// success p is updated in place and its key is touched.
func (c *Coordinator) Rename(ctx context.Context, p *models.Project, newName string) (bool, error) {
	name := strings.TrimSpace(newName)
	if p == nil || name == "" || name == p.DisplayName() {
		return false, nil
	}
	if !p.ID.Present() {
		return false, ErrMissingID
	}

	id := p.ID.String()
	var lastErr error
	for i, method := range c.methods {
		resp, err := c.updater.UpdateProjectName(ctx, method, id, name)
		if err != nil {
			lastErr = err
			// Only a status rejection moves on to the next method.
			if api.IsStatus(err) && i < len(c.methods)-1 {
				c.logger.Debug("rename method rejected, trying next",
					zap.String("project", id),
					zap.String("method", method),
					zap.Error(err))
				continue
			}
			break
		}

		if !resp.Succeeded() {
			return false, fmt.Errorf("%w: %s", ErrRejected, resp.Message)
		}

		p.ProjectName = name
		if c.toucher != nil {
			c.toucher.Touch(models.DeriveKey(*p))
		}
		c.logger.Info("project renamed", zap.String("project", id), zap.String("method", method))
		return true, nil
	}

	return false, fmt.Errorf("rename of project %s failed: %w", id, lastErr)
}
