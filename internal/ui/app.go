package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tyredash/internal/annotations"
	"tyredash/internal/dashboard"
	"tyredash/internal/models"
	"tyredash/internal/rename"
	"tyredash/internal/timestamp"
	"tyredash/internal/ui/components"
)

const sidePanelWidth = 42

// ProfileFunc resolves the signed-in user
type ProfileFunc func(ctx context.Context) *models.User

// Options wires the model to its collaborators
type Options struct {
	Service     *dashboard.Service
	Coordinator *rename.Coordinator
	Profile     ProfileFunc
	Watcher     *annotations.Watcher
	BaseURL     string
	Normalizer  timestamp.Normalizer
	Logger      *zap.Logger
}

// Model represents the dashboard UI
type Model struct {
	Projects      components.ProjectListModel
	Panel         viewport.Model
	Input         textinput.Model
	Spinner       spinner.Model
	IsLoading     bool
	StatusMessage string
	ErrorMessage  string
	Width         int
	Height        int
	Ready         bool

	ctx  context.Context
	opts Options

	snapshot   *dashboard.Snapshot
	profile    dashboard.Profile
	generation int

	// Rename state; session is nil when not editing
	session *rename.Session
	editing models.Project
	// latest committed rename per project; older results are dropped
	renames map[models.ProjectKey]uuid.UUID
}

// NewModel creates the dashboard model
func NewModel(ctx context.Context, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	in := textinput.New()
	in.Prompt = "Rename: "
	in.CharLimit = 120

	return Model{
		Projects:      components.NewProjectListModel(0, 0, opts.Normalizer),
		Input:         in,
		Spinner:       s,
		IsLoading:     true,
		StatusMessage: "Loading dashboard...",
		ctx:           ctx,
		opts:          opts,
		generation:    1,
		profile:       dashboard.NewProfile(nil, opts.Normalizer),
		renames:       make(map[models.ProjectKey]uuid.UUID),
	}
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Spinner.Tick, m.load(m.generation), m.loadProfile()}
	if m.opts.Watcher != nil {
		cmds = append(cmds, waitForAnnotations(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.session != nil {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m.refresh()
		case "p":
			return m.togglePin(), nil
		case "enter":
			return m.open(), nil
		case "e":
			return m.startEdit()
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			return m.openRecent(int(msg.Runes[0] - '1')), nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		listWidth := max(msg.Width-sidePanelWidth-2, 20)
		bodyHeight := max(msg.Height-6, 5)

		m.Projects.List.SetSize(listWidth, bodyHeight)
		m.Input.Width = listWidth - len(m.Input.Prompt) - 2
		if !m.Ready {
			m.Panel = viewport.New(sidePanelWidth, bodyHeight)
			m.Ready = true
		} else {
			m.Panel.Width = sidePanelWidth
			m.Panel.Height = bodyHeight
		}
		m.Panel.SetContent(m.renderPanel())
		return m, nil

	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		m.Spinner, spinnerCmd = m.Spinner.Update(msg)
		return m, spinnerCmd

	case dashboardLoadedMsg:
		// A newer refresh has started; its result wins.
		if msg.generation != m.generation {
			m.opts.Logger.Debug("stale dashboard load ignored",
				zap.Int("generation", msg.generation),
				zap.Int("current", m.generation))
			return m, nil
		}
		m.IsLoading = false
		if msg.err != nil {
			m.ErrorMessage = msg.err.Error()
			m.StatusMessage = "Error"
			return m, nil
		}
		m.ErrorMessage = ""
		m.snapshot = msg.snapshot
		m.Projects.SetView(m.snapshot.Ranked)
		m.StatusMessage = m.loadedStatus()
		m.Panel.SetContent(m.renderPanel())
		return m, nil

	case profileLoadedMsg:
		m.profile = dashboard.Profile(msg)
		m.Panel.SetContent(m.renderPanel())
		return m, nil

	case renameDoneMsg:
		return m.finishRename(msg), nil

	case annotationsChangedMsg:
		m.rerank()
		return m, waitForAnnotations(m.opts.Watcher)
	}

	var listCmd tea.Cmd
	m.Projects, listCmd = m.Projects.Update(msg)
	cmds = append(cmds, listCmd)
	if m.Ready {
		var panelCmd tea.Cmd
		m.Panel, panelCmd = m.Panel.Update(msg)
		cmds = append(cmds, panelCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	m.generation++
	m.IsLoading = true
	m.StatusMessage = "Refreshing..."
	return m, tea.Batch(m.Spinner.Tick, m.load(m.generation))
}

func (m Model) togglePin() Model {
	sel := m.Projects.Selected
	if sel == nil {
		return m
	}
	if m.opts.Service.TogglePin(sel.Project) {
		m.StatusMessage = fmt.Sprintf("Pinned %s", sel.Project.DisplayName())
	} else {
		m.StatusMessage = fmt.Sprintf("Unpinned %s", sel.Project.DisplayName())
	}
	m.rerank()
	return m
}

func (m Model) open() Model {
	sel := m.Projects.Selected
	if sel == nil {
		return m
	}
	dest := m.opts.Service.Open(sel.Project)
	m.StatusMessage = "Open " + dest.Path(m.opts.BaseURL)
	m.rerank()
	return m
}

// openRecent opens the result selection page of the i-th recently completed project
func (m Model) openRecent(i int) Model {
	if m.snapshot == nil || i >= len(m.snapshot.Recent) {
		return m
	}
	dest := m.opts.Service.OpenRecent(m.snapshot.Recent[i])
	m.StatusMessage = "Open " + dest.Path(m.opts.BaseURL)
	return m
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	sel := m.Projects.Selected
	if sel == nil {
		return m, nil
	}
	m.editing = sel.Project
	m.session = rename.NewSession(sel.Project)
	m.Input.SetValue(m.session.Original)
	m.Input.CursorEnd()
	m.ErrorMessage = ""
	m.StatusMessage = "enter to save, esc to cancel"
	return m, m.Input.Focus()
}

// updateEditing routes keys to the rename input. Enter and tab (leaving the
// field) both commit; esc cancels.
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.session.Cancel() {
			m.StatusMessage = "Rename cancelled"
		}
		m.endEdit()
		return m, nil
	case "enter", "tab":
		m.renames[m.session.Key] = m.session.ID
		cmd := m.commit(m.session, m.editing, m.Input.Value())
		m.endEdit()
		m.StatusMessage = "Saving name..."
		return m, cmd
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *Model) endEdit() {
	m.session = nil
	m.Input.Blur()
	m.Input.SetValue("")
}

// commit runs the rename off the event loop on a copy of the project
func (m Model) commit(session *rename.Session, p models.Project, value string) tea.Cmd {
	ctx := m.ctx
	coordinator := m.opts.Coordinator
	return func() tea.Msg {
		res, ok := session.Run(ctx, coordinator, &p, value)
		if !ok {
			return nil
		}
		return renameDoneMsg{key: session.Key, result: res}
	}
}

func (m Model) finishRename(msg renameDoneMsg) Model {
	res := msg.result
	if latest, ok := m.renames[msg.key]; ok && latest != res.SessionID {
		m.opts.Logger.Debug("superseded rename ignored",
			zap.Stringer("session", res.SessionID),
			zap.Stringer("latest", latest))
		return m
	}

	switch {
	case res.Applied():
		if m.snapshot != nil {
			for i := range m.snapshot.Projects {
				if models.DeriveKey(m.snapshot.Projects[i]) == msg.key {
					m.snapshot.Projects[i].ProjectName = res.Name
				}
			}
		}
		m.StatusMessage = fmt.Sprintf("Renamed to %s", res.Name)
		m.rerank()
	case res.Err != nil:
		m.ErrorMessage = "Could not rename project. Please try again."
		m.StatusMessage = fmt.Sprintf("Kept %s", res.Name)
	default:
		m.StatusMessage = "Name unchanged"
	}
	return m
}

// rerank refreshes the ranked list from cached projects and current annotations
func (m *Model) rerank() {
	if m.snapshot == nil {
		return
	}
	m.opts.Service.Rerank(m.snapshot)
	m.Projects.SetView(m.snapshot.Ranked)
}

func (m Model) loadedStatus() string {
	if m.snapshot.Ranked.Empty() {
		return "No projects yet"
	}
	return fmt.Sprintf("Showing %d of %d projects", len(m.snapshot.Ranked.Entries), m.snapshot.Ranked.Total)
}

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Initializing..."
	}

	var status string
	if m.IsLoading {
		status = fmt.Sprintf("%s %s", m.Spinner.View(), m.StatusMessage)
	} else {
		status = m.StatusMessage
	}

	titleBar := titleStyle.Render(fmt.Sprintf("Apollo Tyres · Welcome back, %s", m.profile.FirstName))
	statusBar := mutedStyle.Padding(0, 1).Render(status)

	main := m.Projects.View()
	if m.snapshot != nil && m.snapshot.Ranked.Empty() {
		main = mutedStyle.Padding(1, 2).Render("No projects yet. Start one from the web workspace.")
	}
	if m.session != nil {
		main = lipgloss.JoinVertical(lipgloss.Left, main, lipgloss.NewStyle().Padding(0, 2).Render(m.Input.View()))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, main, panelStyle.Render(m.Panel.View()))

	errorView := ""
	if m.ErrorMessage != "" {
		errorView = errorStyle.Render(m.ErrorMessage)
	}

	help := mutedStyle.Padding(0, 1).Render("enter open · 1-9 open completed · p pin · e rename · r refresh · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, titleBar, statusBar, body, errorView, help)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Padding(0, 1)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

func (m Model) renderPanel() string {
	var b strings.Builder
	n := m.opts.Normalizer

	b.WriteString(headingStyle.Render(m.profile.DisplayName) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %s", m.profile.Role, m.profile.Email)) + "\n")
	b.WriteString(mutedStyle.Render("Member since "+m.profile.MemberSince) + "\n\n")

	if m.snapshot == nil {
		return b.String()
	}

	k := m.snapshot.KPIs
	b.WriteString(headingStyle.Render("Overview") + "\n")
	fmt.Fprintf(&b, "Projects %d · In progress %d · Completed %d\n\n", k.Total, k.InProgress, k.Completed)

	b.WriteString(headingStyle.Render("Recently completed") + "\n")
	if len(m.snapshot.Recent) == 0 {
		b.WriteString(mutedStyle.Render("Nothing completed yet") + "\n")
	}
	for i, p := range m.snapshot.Recent {
		line := fmt.Sprintf("%d %s · %s · %s", i+1, p.DisplayName(), p.Protocol, n.FormatDateTime(p.CreatedAt))
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Activity") + "\n")
	if len(m.snapshot.Activity) == 0 {
		b.WriteString(mutedStyle.Render("No recent activity") + "\n")
	}
	for _, a := range m.snapshot.Activity {
		when, ok := n.Normalize(a.When())
		b.WriteString(components.Summary(a.Label(), when, ok) + "\n")
	}
	return b.String()
}

// Messages
type dashboardLoadedMsg struct {
	generation int
	snapshot   *dashboard.Snapshot
	err        error
}

type profileLoadedMsg dashboard.Profile

type renameDoneMsg struct {
	key    models.ProjectKey
	result rename.Result
}

type annotationsChangedMsg struct{}

// Commands
func (m Model) load(generation int) tea.Cmd {
	ctx, svc := m.ctx, m.opts.Service
	return func() tea.Msg {
		snap, err := svc.Load(ctx)
		return dashboardLoadedMsg{generation: generation, snapshot: snap, err: err}
	}
}

func (m Model) loadProfile() tea.Cmd {
	if m.opts.Profile == nil {
		return nil
	}
	ctx, resolve, n := m.ctx, m.opts.Profile, m.opts.Normalizer
	return func() tea.Msg {
		return profileLoadedMsg(dashboard.NewProfile(resolve(ctx), n))
	}
}

func waitForAnnotations(w *annotations.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Events(); !ok {
			return nil
		}
		return annotationsChangedMsg{}
	}
}
