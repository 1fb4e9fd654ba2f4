package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tyredash/internal/annotations"
	"tyredash/internal/dashboard"
	"tyredash/internal/models"
	"tyredash/internal/rank"
	"tyredash/internal/rename"
	"tyredash/internal/timestamp"
	"tyredash/internal/ui/components"
	"tyredash/internal/util"
)

var (
	listAll    bool
	openRecent bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "List, pin, open and rename simulation projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent projects",
	Long:  "List projects ranked as on the dashboard: pinned first, then by last activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		projects, err := a.client.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing projects: %w", err)
		}

		limit := a.cfg.Dashboard.RankedLimit
		if listAll {
			limit = math.MaxInt
		}
		view := rank.New(a.store, rank.WithLimit(limit)).Rank(projects)
		if view.Empty() {
			fmt.Println("No projects found.")
			return nil
		}

		printProjects(view)
		if !listAll && view.Total > len(view.Entries) {
			fmt.Printf("\nShowing %d of %d projects. Use --all to see every project.\n", len(view.Entries), view.Total)
		}
		return nil
	},
}

var projectPinCmd = &cobra.Command{
	Use:   "pin <project>",
	Short: "Pin or unpin a project",
	Long:  "Toggle whether a project stays at the top of the dashboard. The project is given by id or name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		p, err := resolveProject(cmd, a, args[0])
		if err != nil {
			return err
		}

		if a.service.TogglePin(p) {
			color.Green("Pinned %s\n", p.DisplayName())
		} else {
			color.Yellow("Unpinned %s\n", p.DisplayName())
		}
		return nil
	},
}

var projectOpenCmd = &cobra.Command{
	Use:   "open <project>",
	Short: "Open a project workspace",
	Long:  "Mark a project as recently used and print the workspace address for its protocol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		p, err := resolveProject(cmd, a, args[0])
		if err != nil {
			return err
		}

		if openRecent {
			fmt.Println(a.service.OpenRecent(p).Path(a.cfg.Server.URL))
			return nil
		}

		prev := a.store.Record(models.DeriveKey(p))
		dest := a.service.Open(p)
		fmt.Println(dest.Path(a.cfg.Server.URL))
		if dest.Prefill && len(dest.Inputs) > 0 {
			fmt.Printf("Inputs: %s\n", dest.Inputs)
		}
		if !prev.LastTouchedAt.IsZero() {
			fmt.Printf("Last opened %s\n", components.RelativeTime(prev.LastTouchedAt))
		}
		return nil
	},
}

var projectPinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "List pinned projects",
	Long:  "List pinned projects in the order they were pinned",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		projects, err := a.client.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing projects: %w", err)
		}

		rows := pinnedProjects(a.store.Snapshot(), projects)
		if len(rows) == 0 {
			fmt.Println("No pinned projects.")
			return nil
		}
		for _, row := range rows {
			last := timestamp.Placeholder
			if !row.Annotation.LastTouchedAt.IsZero() {
				last = components.RelativeTime(row.Annotation.LastTouchedAt)
			}
			if row.Project == nil {
				color.Yellow("* %s (no longer on the server)\n", row.Key)
				continue
			}
			fmt.Printf("* %s · %s · opened %s\n", row.Project.DisplayName(), row.Project.Protocol, last)
		}
		return nil
	},
}

// pinnedRow is one pinned key; Project is nil when the server no longer lists it
type pinnedRow struct {
	Key        models.ProjectKey
	Project    *models.Project
	Annotation annotations.Annotation
}

func pinnedProjects(snap annotations.Snapshot, projects []models.Project) []pinnedRow {
	byKey := make(map[models.ProjectKey]*models.Project, len(projects))
	for i := range projects {
		k := models.DeriveKey(projects[i])
		if _, seen := byKey[k]; !seen {
			byKey[k] = &projects[i]
		}
	}

	pinned := snap.Pinned()
	rows := make([]pinnedRow, 0, len(pinned))
	for _, k := range pinned {
		rows = append(rows, pinnedRow{Key: k, Project: byKey[k], Annotation: snap.Record(k)})
	}
	return rows
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <project> <new name>",
	Short: "Rename a project",
	Long:  "Change the display name of a project on the server",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		p, err := resolveProject(cmd, a, args[0])
		if err != nil {
			return err
		}

		session := rename.NewSession(p)
		res, _ := session.Run(cmd.Context(), a.renamer, &p, strings.Join(args[1:], " "))
		switch {
		case res.Applied():
			color.Green("Renamed %s to %s\n", session.Original, res.Name)
		case res.Err != nil:
			color.Red("Could not rename project. Please try again.\n")
			return res.Err
		default:
			fmt.Println("Name unchanged.")
		}
		return nil
	},
}

// resolveProject finds the project named by ref: an id, a "name:" key, or a
// display name matched without regard to case
func resolveProject(cmd *cobra.Command, a *app, ref string) (models.Project, error) {
	projects, err := a.client.ListProjects(cmd.Context())
	if err != nil {
		return models.Project{}, fmt.Errorf("error listing projects: %w", err)
	}
	return findProject(projects, ref)
}

func findProject(projects []models.Project, ref string) (models.Project, error) {
	ref = strings.TrimSpace(ref)
	key := models.ParseProjectKey(ref)
	for _, p := range projects {
		if models.DeriveKey(p) == key {
			return p, nil
		}
	}

	var matches []models.Project
	for _, p := range projects {
		if strings.EqualFold(p.DisplayName(), ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return models.Project{}, fmt.Errorf("%w: %s", models.ErrProjectNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Project{}, fmt.Errorf("%w: %d projects are named %q", models.ErrAmbiguousProject, len(matches), ref)
	}
}

func printProjects(view rank.View) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers("#", "PIN", "KEY", "NAME", "PROTOCOL", "STATUS", "CREATED", "LAST ACTIVITY")

	for i, e := range view.Entries {
		pin := ""
		if e.Pinned {
			pin = "*"
		}
		last := timestamp.Placeholder
		if e.LastActivity > 0 {
			last = components.RelativeTime(time.UnixMilli(e.LastActivity))
		}
		t.Row(
			strconv.Itoa(i+1),
			pin,
			e.Key.String(),
			util.Truncate(e.Project.DisplayName(), 40),
			e.Project.Protocol,
			dashboard.StatusLabel(e.Project.Status),
			timestamp.FormatDateTime(e.Project.CreatedAt),
			last,
		)
	}
	fmt.Println(t)
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectPinCmd)
	projectCmd.AddCommand(projectOpenCmd)
	projectCmd.AddCommand(projectPinsCmd)
	projectCmd.AddCommand(projectRenameCmd)

	projectListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "List every project instead of the most recent ones")
	projectOpenCmd.Flags().BoolVar(&openRecent, "recent", false, "Open the result selection page of a completed project")
}
