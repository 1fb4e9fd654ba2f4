package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tyredash/internal/annotations"
	"tyredash/internal/timestamp"
	"tyredash/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Aliases:     []string{"dash"},
	Short:       "Open the interactive dashboard",
	Long:        "Browse, pin, open and rename your recent projects in a full-screen dashboard",
	Annotations: map[string]string{fullScreen: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		// Pins made from another terminal re-rank the open dashboard.
		var watcher *annotations.Watcher
		if p, ok := a.backend.(annotations.Pather); ok {
			watcher, err = annotations.Watch(p.Path(), logger.Named("watch"))
			if err != nil {
				logger.Warn("annotation watch unavailable", zap.Error(err))
			} else {
				defer func() { _ = watcher.Close() }()
			}
		}

		model := ui.NewModel(cmd.Context(), ui.Options{
			Service:     a.service,
			Coordinator: a.renamer,
			Profile:     a.client.CurrentUser,
			Watcher:     watcher,
			BaseURL:     a.cfg.Server.URL,
			Normalizer:  timestamp.Local,
			Logger:      logger.Named("ui"),
		})

		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
			return fmt.Errorf("error running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
