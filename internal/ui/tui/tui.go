// Package tui renders a live dashboard over the control socket. It polls the
// daemon's inspector snapshot and lets the user drive focus and a few client
// toggles from the keyboard.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/loftwm/loftwm/internal/control/client"
)

const (
	defaultRefresh = 500 * time.Millisecond
	titleWidth     = 40
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleFocused  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleUrgent   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type snapshotMsg struct {
	snap client.InspectorState
	err  error
}

type tickMsg struct{}

// Model is the bubbletea model behind `loftctl watch`.
type Model struct {
	cli     *client.Client
	refresh time.Duration

	snap    client.InspectorState
	loaded  bool
	lastErr error
	cursor  int
	height  int
}

// NewModel builds a dashboard model around a connected control client.
func NewModel(cli *client.Client) Model {
	return Model{cli: cli, refresh: defaultRefresh, height: 24}
}

// Run drives the dashboard until the user quits or the context ends.
func Run(ctx context.Context, cli *client.Client) error {
	prog := tea.NewProgram(NewModel(cli), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.poll()
}

func (m Model) poll() tea.Cmd {
	cli, refresh := m.cli, m.refresh
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refresh)
		defer cancel()
		snap, err := cli.Inspect(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m Model) schedule() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.snap = msg.snap
			m.loaded = true
			m.lastErr = nil
			if n := len(m.snap.Clients); n > 0 && m.cursor >= n {
				m.cursor = n - 1
			}
		}
		return m, m.schedule()

	case tickMsg:
		return m, m.poll()

	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.snap.Clients)-1 {
				m.cursor++
			}
		case "enter":
			return m, m.act(func(ctx context.Context, win uint32) error {
				return m.cli.Focus(ctx, win)
			})
		case "f":
			return m, m.toggle("fullscreen")
		case "t":
			return m, m.toggle("ontop")
		case "s":
			return m, m.toggle("sticky")
		case "n":
			return m, m.toggle("minimized")
		case "x":
			return m, m.act(func(ctx context.Context, win uint32) error {
				return m.cli.Close(ctx, win)
			})
		}
	}
	return m, nil
}

// act runs an action against the client under the cursor, then refreshes.
func (m Model) act(fn func(ctx context.Context, win uint32) error) tea.Cmd {
	if m.cursor >= len(m.snap.Clients) {
		return nil
	}
	win := m.snap.Clients[m.cursor].Window
	poll := m.poll()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := fn(ctx, win); err != nil {
			return snapshotMsg{err: err}
		}
		return poll()
	}
}

func (m Model) toggle(field string) tea.Cmd {
	if m.cursor >= len(m.snap.Clients) {
		return nil
	}
	current := fieldValue(m.snap.Clients[m.cursor], field)
	return m.act(func(ctx context.Context, win uint32) error {
		_, err := m.cli.Set(ctx, win, field, !current)
		return err
	})
}

func fieldValue(info client.ClientInfo, field string) bool {
	switch field {
	case "fullscreen":
		return info.Fullscreen
	case "ontop":
		return info.OnTop
	case "sticky":
		return info.Sticky
	case "minimized":
		return info.Minimized
	default:
		return false
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("loftwm"))
	b.WriteString(styleDim.Render("  ↑/↓ move  ⏎ focus  f fullscreen  t ontop  s sticky  n minimize  x close  q quit"))
	b.WriteByte('\n')

	if m.lastErr != nil {
		b.WriteString(styleError.Render(fmt.Sprintf("control: %v", m.lastErr)))
		b.WriteByte('\n')
	}
	if !m.loaded {
		b.WriteString(styleDim.Render("waiting for daemon..."))
		b.WriteByte('\n')
		return b.String()
	}

	b.WriteString(m.renderScreens())
	b.WriteString(m.renderClients())
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderScreens() string {
	var b strings.Builder
	for _, screen := range m.snap.Screens {
		name := screen.Name
		if name == "" {
			name = fmt.Sprintf("screen %d", screen.ID)
		}
		b.WriteString(styleHeader.Render(name))
		b.WriteString(styleDim.Render(fmt.Sprintf(" %dx%d @ %d,%d  ", screen.Width, screen.Height, screen.X, screen.Y)))
		b.WriteString(m.renderTags(screen.ID))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

func (m Model) renderTags(screenID int) string {
	tags := make([]client.TagState, 0, len(m.snap.Tags))
	for _, tag := range m.snap.Tags {
		if tag.Screen == screenID {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		label := fmt.Sprintf("%s:%d", tag.Name, len(tag.Clients))
		if tag.Selected {
			parts = append(parts, styleSelected.Render("["+label+"]"))
		} else {
			parts = append(parts, styleDim.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderClients() string {
	var b strings.Builder
	if len(m.snap.Clients) == 0 {
		b.WriteString(styleDim.Render("(no clients)"))
		b.WriteByte('\n')
		return b.String()
	}

	b.WriteString(styleHeader.Render(fmt.Sprintf("  %-10s %-16s %-*s %-18s %s", "WINDOW", "CLASS", titleWidth, "TITLE", "GEOMETRY", "STATE")))
	b.WriteByte('\n')
	for i, info := range m.snap.Clients {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		title := info.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("%s%-10d %-16s %-*s %-18s %s",
			cursor, info.Window, truncate(info.Class, 16), titleWidth, truncate(title, titleWidth),
			fmt.Sprintf("%dx%d @ %d,%d", info.Outer.Width, info.Outer.Height, info.Outer.X, info.Outer.Y),
			clientState(info))
		switch {
		case i == m.cursor:
			b.WriteString(styleSelected.Render(line))
		case info.Urgent:
			b.WriteString(styleUrgent.Render(line))
		case info.Focused:
			b.WriteString(styleFocused.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) renderFooter() string {
	totals := m.snap.Metrics.Totals
	stack := make([]string, 0, len(m.snap.Stacking))
	for _, win := range m.snap.Stacking {
		stack = append(stack, fmt.Sprintf("%d", win))
	}
	var b strings.Builder
	b.WriteByte('\n')
	b.WriteString(styleDim.Render(fmt.Sprintf("stack %s", strings.Join(stack, " < "))))
	b.WriteByte('\n')
	b.WriteString(styleDim.Render(fmt.Sprintf("managed %d  unmanaged %d  focus %d  restacks %d",
		totals.Managed, totals.Unmanaged, totals.FocusChanges, totals.Restacks)))
	b.WriteByte('\n')
	return b.String()
}

func clientState(info client.ClientInfo) string {
	var parts []string
	if info.Focused {
		parts = append(parts, "focused")
	}
	if info.Fullscreen {
		parts = append(parts, "fullscreen")
	}
	if info.OnTop {
		parts = append(parts, "ontop")
	}
	if info.Sticky {
		parts = append(parts, "sticky")
	}
	if info.Minimized {
		parts = append(parts, "minimized")
	}
	if info.Hidden {
		parts = append(parts, "hidden")
	}
	if info.Urgent {
		parts = append(parts, "urgent")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
