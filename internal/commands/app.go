package commands

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"tyredash/internal/annotations"
	"tyredash/internal/api"
	"tyredash/internal/config"
	"tyredash/internal/dashboard"
	"tyredash/internal/models"
	"tyredash/internal/rename"
)

// app holds the collaborators shared by the commands
type app struct {
	cfg     *config.Config
	tokens  *models.TokenStore
	client  *api.Client
	backend annotations.Backend
	store   *annotations.Store
	service *dashboard.Service
	renamer *rename.Coordinator
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	tokens := models.NewTokenStore(cfg.Dir())
	client := api.NewClient(cfg.Server.URL, tokens,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithLogger(log.Named("api")),
		api.WithProfile(cfg.ProfileUser()),
	)

	backend, err := annotations.Open(cfg.Annotations.Backend, cfg.AnnotationsPath())
	if err != nil {
		return nil, fmt.Errorf("error opening annotations: %w", err)
	}
	store := annotations.NewStore(backend, annotations.WithLogger(log.Named("annotations")))

	service := dashboard.NewService(client, store,
		dashboard.WithLogger(log.Named("dashboard")),
		dashboard.WithLimits(dashboard.Limits{
			Ranked:   cfg.Dashboard.RankedLimit,
			Recent:   cfg.Dashboard.RecentLimit,
			Activity: cfg.Dashboard.ActivityLimit,
		}),
	)

	return &app{
		cfg:     cfg,
		tokens:  tokens,
		client:  client,
		backend: backend,
		store:   store,
		service: service,
		renamer: rename.New(client, store, rename.WithLogger(log.Named("rename"))),
	}, nil
}

// requireLogin fails with a hint when no token is stored
func (a *app) requireLogin() error {
	if _, err := a.tokens.GetToken(); err != nil {
		return fmt.Errorf("%w. Please run 'tyredash login' first", models.ErrNotLoggedIn)
	}
	return nil
}

func (a *app) Close() {
	if err := annotations.Close(a.backend); err != nil {
		logger.Warn("failed to close annotations", zap.Error(err))
	}
}

// openApp builds the app from the loaded global configuration
func openApp() (*app, error) {
	return newApp(globalConfig, logger)
}
