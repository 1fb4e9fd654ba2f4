package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tyredash/internal/config"
)

var (
	// Variables to hold flag values
	serverURL string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tyredash configuration",
	Long:  "View and update tyredash configuration settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get configuration value",
	Long:  "Display a specific configuration value or all configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no argument is provided, show all config
		if len(args) == 0 {
			fmt.Println("Current configuration:")
			for _, key := range config.Keys() {
				value, _ := globalConfig.Get(key)
				fmt.Printf("%s: %s\n", key, value)
			}
			if email := globalConfig.Profile.Email; email != "" {
				fmt.Printf("profile.email: %s\n", email)
			}
			return nil
		}

		value, err := globalConfig.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Update a configuration setting such as server.url or annotations.backend",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		old, err := globalConfig.Get(args[0])
		if err != nil {
			return err
		}
		if err := globalConfig.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.SaveGlobalConfig(globalConfig); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		updated, _ := globalConfig.Get(args[0])
		fmt.Printf("%s updated: %s -> %s\n", args[0], old, updated)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  "Create a new configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetGlobalConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		// Check if config file exists
		if _, err := os.Stat(configPath); err == nil {
			fmt.Println("Configuration file already exists.")
			fmt.Println("Use 'tyredash config set' to modify existing configuration.")
			return nil
		}

		cfg := config.Default(filepath.Dir(configPath))
		if serverURL != "" {
			if err := cfg.Set("server.url", serverURL); err != nil {
				return err
			}
		}

		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		fmt.Println("Configuration initialized successfully.")
		fmt.Printf("Configuration file created at: %s\n", configPath)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show configuration file paths",
	Long:  "Display paths to the configuration, token, annotation and log files",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetGlobalConfigPath()
		if err != nil {
			return err
		}
		dir := globalConfig.Dir()
		logPath := globalConfig.LogPath()
		if logPath == "" {
			logPath = "stderr (dashboard: " + filepath.Join(dir, "tyredash.log") + ")"
		}

		paths := []struct {
			label string
			path  string
		}{
			{"Config file", configPath},
			{"Auth token file", filepath.Join(dir, ".auth_token")},
			{"Annotations (" + globalConfig.Annotations.Backend + ")", globalConfig.AnnotationsPath()},
		}

		fmt.Printf("Config directory: %s\n", dir)
		for _, p := range paths {
			fmt.Printf("- %s: %s (%s)\n", p.label, p.path, existence(p.path))
		}
		fmt.Printf("- Log: %s\n", logPath)
		return nil
	},
}

func existence(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "does not exist"
	}
	return "exists"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)

	configInitCmd.Flags().StringVar(&serverURL, "server-url", "", "Set API server URL")
}
