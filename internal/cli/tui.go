package cli

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	drawerStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(36)
)

// =============================================================================
// ObjectListModel - Interactive object selection
// =============================================================================

// ObjectListModel is the bubbletea model for picking a root object. Typing
// narrows the list by name or label.
type ObjectListModel struct {
	All      []schema.EntitySummary
	Matches  []schema.EntitySummary
	Filter   schema.SummaryFilter
	Cursor   int
	Offset   int
	Height   int
	Selected *schema.EntitySummary
}

// NewObjectListModel creates a picker over list.
func NewObjectListModel(list []schema.EntitySummary) ObjectListModel {
	return ObjectListModel{All: list, Matches: list, Height: 15}
}

func (m ObjectListModel) Init() tea.Cmd {
	return nil
}

func (m ObjectListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyTab:
			m.Filter.CustomOnly = !m.Filter.CustomOnly
			m.refilter()
		case tea.KeyBackspace:
			if s := m.Filter.Search; s != "" {
				_, size := utf8.DecodeLastRuneInString(s)
				m.Filter.Search = s[:len(s)-size]
				m.refilter()
			}
		case tea.KeyEnter:
			if len(m.Matches) == 0 {
				return m, nil
			}
			sel := m.Matches[m.Cursor]
			m.Selected = &sel
			return m, tea.Quit
		case tea.KeyRunes:
			m.Filter.Search += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *ObjectListModel) move(delta int) {
	next := m.Cursor + delta
	if next < 0 || next >= len(m.Matches) {
		return
	}
	m.Cursor = next
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *ObjectListModel) refilter() {
	m.Matches = m.Filter.Filter(m.All)
	m.Cursor, m.Offset = 0, 0
}

func (m ObjectListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Object"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ⇥ custom only  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	scope := "all"
	if m.Filter.CustomOnly {
		scope = "custom"
	}
	b.WriteString(fmt.Sprintf("%s %s %s\n\n", StyleDim.Render("filter:"), StyleValue.Render(m.Filter.Search+"▏"), StyleDim.Render("("+scope+")")))

	end := min(m.Offset+m.Height, len(m.Matches))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Matches[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		kind := string(schema.Standard)
		if s.Custom {
			kind = string(schema.Custom)
		}
		rows = append(rows, []string{cursor, s.Name, s.Label, kind})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Label", "Type").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.Matches) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.Matches))))
	return b.String()
}

// =============================================================================
// NodeBrowserModel - Diagram node browser with metadata drawer
// =============================================================================

// NodeInfo is what the drawer shows for one node.
type NodeInfo struct {
	ID                 string
	Label              string
	Kind               schema.Kind
	Fields             int
	RelationshipFields int
	ChildRelationships int
	Outgoing           int
	Incoming           int
	Position           layout.Point
}

// NodeSelectedMsg is emitted whenever the highlighted node changes.
type NodeSelectedMsg struct {
	Info NodeInfo
}

// DescribeLookup returns the cached describe of a node, if any.
type DescribeLookup func(id string) (*schema.EntityDescribe, bool)

// RelayoutFunc recomputes positions for a mode.
type RelayoutFunc func(layout.Mode) layout.Positioned

// RerootFunc loads the diagram rooted at another object. It runs outside
// the update loop and may return SUPERSEDED when a newer load replaced it.
type RerootFunc func(root string) (layout.Positioned, error)

// DiagramLoadedMsg carries the result of a re-root.
type DiagramLoadedMsg struct {
	Root  string
	Graph layout.Positioned
	Err   error
}

// NodeBrowserModel lists the nodes of a diagram and shows the metadata of the
// selected one. Tab cycles the layout mode; enter re-roots the diagram on the
// selected node when a RerootFunc is set.
type NodeBrowserModel struct {
	Root     string
	Graph    layout.Positioned
	Cursor   int
	Offset   int
	Height   int
	Selected *NodeInfo
	Loading  string // root being loaded, if any
	Err      error

	describe DescribeLookup
	relayout RelayoutFunc
	reroot   RerootFunc
}

// NewNodeBrowserModel creates a browser over p. relayout may be nil.
func NewNodeBrowserModel(root string, p layout.Positioned, describe DescribeLookup, relayout RelayoutFunc) NodeBrowserModel {
	return NodeBrowserModel{
		Root:     root,
		Graph:    p,
		Height:   15,
		describe: describe,
		relayout: relayout,
	}
}

// WithReroot returns m with enter bound to fn.
func (m NodeBrowserModel) WithReroot(fn RerootFunc) NodeBrowserModel {
	m.reroot = fn
	return m
}

func (m NodeBrowserModel) Init() tea.Cmd {
	return m.selectCmd()
}

func (m NodeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
				return m, m.selectCmd()
			}
		case "down", "j":
			if m.Cursor < len(m.Graph.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
				return m, m.selectCmd()
			}
		case "tab":
			if m.relayout != nil {
				next := layout.Modes[(indexOfMode(m.Graph.Mode)+1)%len(layout.Modes)]
				m.Graph = m.relayout(next)
				return m, m.selectCmd()
			}
		case "enter":
			return m.startReroot()
		}
	case DiagramLoadedMsg:
		// Results for anything but the latest load are stale.
		if msg.Root != m.Loading || errors.Is(msg.Err, errors.ErrCodeSuperseded) {
			return m, nil
		}
		m.Loading = ""
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Root, m.Graph = msg.Root, msg.Graph
		m.Cursor, m.Offset, m.Selected = 0, 0, nil
		for i, n := range m.Graph.Nodes {
			if n.ID == m.Root {
				m.Cursor = i
			}
		}
		if m.Cursor >= m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
		return m, m.selectCmd()
	case NodeSelectedMsg:
		info := msg.Info
		m.Selected = &info
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m NodeBrowserModel) startReroot() (tea.Model, tea.Cmd) {
	if m.reroot == nil || len(m.Graph.Nodes) == 0 {
		return m, nil
	}
	root := m.Graph.Nodes[m.Cursor].ID
	if root == m.Root && m.Loading == "" {
		return m, nil
	}
	m.Loading, m.Err = root, nil
	reroot := m.reroot
	return m, func() tea.Msg {
		g, err := reroot(root)
		return DiagramLoadedMsg{Root: root, Graph: g, Err: err}
	}
}

func (m NodeBrowserModel) selectCmd() tea.Cmd {
	if len(m.Graph.Nodes) == 0 {
		return nil
	}
	info := m.info(m.Cursor)
	return func() tea.Msg { return NodeSelectedMsg{Info: info} }
}

// info collects drawer metadata for the node at index i.
func (m NodeBrowserModel) info(i int) NodeInfo {
	n := m.Graph.Nodes[i]
	info := NodeInfo{ID: n.ID, Label: n.Label, Kind: n.Kind, Position: n.Position}
	if m.describe != nil {
		if d, ok := m.describe(n.ID); ok {
			info.Label = d.DisplayLabel()
			info.Fields = len(d.Fields)
			info.RelationshipFields = d.RelationshipFieldCount()
			info.ChildRelationships = len(d.ChildRelationships)
		}
	}
	for _, e := range m.Graph.Edges {
		if e.Source == n.ID {
			info.Outgoing++
		}
		if e.Target == n.ID {
			info.Incoming++
		}
	}
	return info
}

func (m NodeBrowserModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s · %d nodes · %d edges · %s", m.Root, len(m.Graph.Nodes), len(m.Graph.Edges), m.Graph.Mode)
	b.WriteString(StyleTitle.Render(title))
	if m.Graph.Truncated {
		b.WriteString(" " + StyleWarning.Render("(truncated)"))
	}
	switch {
	case m.Loading != "":
		b.WriteString(" " + StyleDim.Render("loading "+m.Loading+"..."))
	case m.Err != nil:
		b.WriteString(" " + StyleWarning.Render(errors.UserMessage(m.Err)))
	}
	b.WriteString("\n")
	help := "↑/↓ navigate  ⇥ next layout  q quit"
	if m.reroot != nil {
		help = "↑/↓ navigate  ⏎ re-root  ⇥ next layout  q quit"
	}
	b.WriteString(listDimStyle.Render(help))
	b.WriteString("\n\n")

	var list strings.Builder
	end := min(m.Offset+m.Height, len(m.Graph.Nodes))
	for i := m.Offset; i < end; i++ {
		n := m.Graph.Nodes[i]
		line := fmt.Sprintf("  %-28s %s", n.ID, listDimStyle.Render(fmt.Sprintf("(%.0f, %.0f)", n.Position.X, n.Position.Y)))
		if i == m.Cursor {
			line = StyleHighlight.Bold(true).Render(fmt.Sprintf("▸ %-28s", n.ID)) + " " + StyleDim.Render(fmt.Sprintf("(%.0f, %.0f)", n.Position.X, n.Position.Y))
		} else if n.Kind == schema.Custom {
			line = StyleSuccess.Render(fmt.Sprintf("  %-28s", n.ID)) + " " + listDimStyle.Render(fmt.Sprintf("(%.0f, %.0f)", n.Position.X, n.Position.Y))
		}
		list.WriteString(line)
		list.WriteString("\n")
	}
	if len(m.Graph.Nodes) == 0 {
		list.WriteString(listDimStyle.Render("  no nodes"))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", m.drawer()))
	return b.String()
}

func (m NodeBrowserModel) drawer() string {
	if m.Selected == nil {
		return drawerStyle.Render(StyleDim.Render("select a node"))
	}
	s := m.Selected
	rows := []struct{ k, v string }{
		{"API name", s.ID},
		{"Type", string(s.Kind)},
		{"Fields", strconv.Itoa(s.Fields)},
		{"Lookups", strconv.Itoa(s.RelationshipFields)},
		{"Children", strconv.Itoa(s.ChildRelationships)},
		{"Edges out", strconv.Itoa(s.Outgoing)},
		{"Edges in", strconv.Itoa(s.Incoming)},
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(s.Label))
	b.WriteString("\n")
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(10)
	for _, r := range rows {
		b.WriteString(keyStyle.Render(r.k) + " " + StyleValue.Render(r.v) + "\n")
	}
	return drawerStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func indexOfMode(mode layout.Mode) int {
	for i, m := range layout.Modes {
		if m == mode {
			return i
		}
	}
	return 0
}
