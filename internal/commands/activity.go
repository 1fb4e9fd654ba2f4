package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tyredash/internal/timestamp"
	"tyredash/internal/ui/components"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent activity",
	Long:  "Show the most recent events on your projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		items, err := a.client.ListActivity(cmd.Context())
		if err != nil {
			return fmt.Errorf("error loading activity: %w", err)
		}
		if limit := a.cfg.Dashboard.ActivityLimit; len(items) > limit {
			items = items[:limit]
		}
		if len(items) == 0 {
			fmt.Println("No recent activity.")
			return nil
		}

		for _, item := range items {
			when, ok := timestamp.Normalize(item.When())
			if !ok {
				fmt.Printf("%s · %s\n", item.Label(), timestamp.Placeholder)
				continue
			}
			fmt.Printf("%s · %s (%s)\n", item.Label(), timestamp.FormatDateTime(item.When()), components.RelativeTime(when))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
}
