package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tyredash/internal/config"
)

// annotation marking commands that take over the terminal
const fullScreen = "fullscreen"

var (
	verbose      bool
	logger       = zap.NewNop()
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tyredash",
	Short: "Tyredash - the engineer dashboard for tire simulation projects",
	Long: `Tyredash (tyredash) shows your tire simulation projects from the terminal.
Recent projects are ranked by activity, pinned projects stay on top, and
projects can be renamed or opened in their protocol workspace.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		globalConfig = cfg

		l, err := newLogger(cfg, cmd.Annotations[fullScreen] == "true")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger builds the process logger. Full-screen commands always log to a
// file so output does not tear the UI.
func newLogger(cfg *config.Config, toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	path := cfg.LogPath()
	if path == "" && toFile {
		path = filepath.Join(cfg.Dir(), "tyredash.log")
	}
	if path != "" {
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	return zc.Build()
}

// ExecuteContext runs the root command
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
