package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"tyredash/internal/dashboard"
	"tyredash/internal/models"
	"tyredash/internal/rank"
	"tyredash/internal/timestamp"
)

var (
	pinStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	badgeStyles = map[dashboard.StatusKind]lipgloss.Style{
		dashboard.KindInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		dashboard.KindCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dashboard.KindFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dashboard.KindNone:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
)

// ProjectItem is one ranked project in the list
type ProjectItem struct {
	Entry      rank.Entry
	Normalizer timestamp.Normalizer
}

func (i ProjectItem) FilterValue() string {
	return i.Entry.Project.DisplayName()
}

// Title shows the pin marker and the project name
func (i ProjectItem) Title() string {
	marker := "  "
	if i.Entry.Pinned {
		marker = pinStyle.Render("● ")
	}
	return marker + i.Entry.Project.DisplayName()
}

// Description shows protocol, creation time, status badge and last activity
func (i ProjectItem) Description() string {
	p := i.Entry.Project
	badge := badgeStyles[dashboard.ClassifyStatus(p.Status)].Render(dashboard.StatusLabel(p.Status))

	parts := []string{
		p.Protocol,
		i.Normalizer.FormatDateTime(p.CreatedAt),
		badge,
	}
	if i.Entry.LastActivity > 0 {
		parts = append(parts, "active "+RelativeTime(time.UnixMilli(i.Entry.LastActivity)))
	}

	var out []string
	for _, s := range parts {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return "  " + strings.Join(out, " · ")
}

// ProjectListModel wraps a list of ranked projects
type ProjectListModel struct {
	List       list.Model
	Normalizer timestamp.Normalizer
	Selected   *rank.Entry
}

// NewProjectListModel creates the ranked project list
func NewProjectListModel(width, height int, n timestamp.Normalizer) ProjectListModel {
	listModel := list.New([]list.Item{}, list.NewDefaultDelegate(), width, height)
	listModel.Title = "Recent projects"
	listModel.SetShowStatusBar(false)
	listModel.SetShowHelp(false)
	listModel.SetFilteringEnabled(false)
	listModel.DisableQuitKeybindings()
	listModel.SetStatusBarItemName("project", "projects")
	listModel.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true).
		MarginLeft(2)

	return ProjectListModel{
		List:       listModel,
		Normalizer: n,
	}
}

// SetView replaces the items with view. The cursor follows the previously
// selected project when it is still listed.
func (m *ProjectListModel) SetView(view rank.View) {
	var keep models.ProjectKey
	hadSelection := m.Selected != nil
	if hadSelection {
		keep = m.Selected.Key
	}

	items := make([]list.Item, len(view.Entries))
	cursor := 0
	for i, e := range view.Entries {
		items[i] = ProjectItem{Entry: e, Normalizer: m.Normalizer}
		if hadSelection && e.Key == keep {
			cursor = i
		}
	}

	m.List.SetItems(items)
	if len(items) > 0 {
		m.List.Select(cursor)
	}
	m.syncSelected()
}

// Update handles navigation keys
func (m ProjectListModel) Update(msg tea.Msg) (ProjectListModel, tea.Cmd) {
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	m.syncSelected()
	return m, cmd
}

func (m *ProjectListModel) syncSelected() {
	if item, ok := m.List.SelectedItem().(ProjectItem); ok {
		entry := item.Entry
		m.Selected = &entry
	} else {
		m.Selected = nil
	}
}

// View renders the project list
func (m ProjectListModel) View() string {
	return m.List.View()
}

// RelativeTime renders t like "3 hours ago"
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return timestamp.Placeholder
	}
	return humanize.Time(t)
}

// Summary renders a one-line entry for the side panel
func Summary(name string, when time.Time, ok bool) string {
	if !ok {
		return name
	}
	return fmt.Sprintf("%s · %s", name, RelativeTime(when))
}
