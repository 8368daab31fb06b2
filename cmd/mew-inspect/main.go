// Command mew-inspect is a read-only terminal browser over a kernel's
// data directory: dashboard (node/edge type counts, uptime, rule
// limits), a type browser (node types from the Registry), and an
// entity table for whichever type is selected.
//
// Grounded on the teacher's cmd/tui (bubbles table/help, lipgloss
// panel styling, tab navigation via a view enum and Tab/Shift+Tab) —
// adapted from a live Cypher query console to a Registry/ReadView
// browser, since no DSL compiler is part of this repo (§6's "front ends
// are thin collaborators" keeps query parsing external).
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mewdb/mew/pkg/config"
	"github.com/mewdb/mew/pkg/kernel"
	"github.com/mewdb/mew/pkg/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D7FF")).
			MarginLeft(2).
			MarginTop(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5F00D7")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F00D7")).
			Padding(1, 2).
			MarginRight(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	typesView
	entitiesView
	numViews
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "browse type")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Tab, k.ShiftTab, k.Enter}, {k.Up, k.Down}, {k.Quit}}
}

type model struct {
	k           *kernel.Kernel
	currentView view
	typeTable   table.Model
	entityTable table.Model
	help        help.Model
	keys        keyMap
	width       int
	startTime   time.Time
	selected    store.TypeId
	selectedOK  bool
	message     string
}

func newModel(k *kernel.Kernel) model {
	typeCols := []table.Column{
		{Title: "Type", Width: 24},
		{Title: "Count", Width: 10},
	}
	tt := table.New(table.WithColumns(typeCols), table.WithFocused(true), table.WithHeight(12))

	entityCols := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Attributes", Width: 60},
	}
	et := table.New(table.WithColumns(entityCols), table.WithFocused(false), table.WithHeight(12))

	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#5F00D7")).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5F00D7"))
	tt.SetStyles(s)
	et.SetStyles(s)

	m := model{
		k:           k,
		currentView: dashboardView,
		typeTable:   tt,
		entityTable: et,
		help:        help.New(),
		keys:        keys,
		startTime:   time.Now(),
	}
	m.refreshTypes()
	return m
}

func (m *model) refreshTypes() {
	reg := m.k.Registry()
	rv := m.k.ReadView()
	rows := make([]table.Row, 0)
	for _, t := range reg.AllNodeTypeIds() {
		def, err := reg.NodeType(t)
		if err != nil {
			continue
		}
		rows = append(rows, table.Row{def.Name, fmt.Sprintf("%d", rv.TypeCount(t))})
	}
	m.typeTable.SetRows(rows)
}

func (m *model) refreshEntities() {
	if !m.selectedOK {
		return
	}
	reg := m.k.Registry()
	rv := m.k.ReadView()
	attrNames := make(map[store.AttrId]string)
	for _, a := range reg.ResolvedAttributes(m.selected) {
		if def, err := reg.Attribute(a); err == nil {
			attrNames[a] = def.Name
		}
	}
	rows := make([]table.Row, 0)
	for _, id := range rv.NodesByType(m.selected) {
		n, ok := rv.GetNode(id)
		if !ok {
			continue
		}
		parts := make([]string, 0, len(n.Attributes))
		for attr, v := range n.Attributes {
			parts = append(parts, fmt.Sprintf("%s=%s", attrNames[attr], formatValue(v)))
		}
		rows = append(rows, table.Row{fmt.Sprintf("%d", uint64(id)), strings.Join(parts, ", ")})
	}
	m.entityTable.SetRows(rows)
}

func formatValue(v store.Value) string {
	switch v.Type {
	case store.TypeNull:
		return "null"
	case store.TypeBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%v", b)
	case store.TypeInt, store.TypeTimestamp, store.TypeDuration:
		n, _ := v.AsInt()
		return fmt.Sprintf("%d", n)
	case store.TypeFloat:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f)
	case store.TypeString:
		s, _ := v.AsString()
		return s
	case store.TypeEntityRef:
		ref, _ := v.AsRef()
		return fmt.Sprintf("#%d", uint64(ref))
	default:
		return "?"
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % numViews
		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = numViews - 1
			} else {
				m.currentView--
			}
		case key.Matches(msg, m.keys.Enter):
			if m.currentView == typesView {
				m.selectTypeFromCursor()
				m.currentView = entitiesView
			}
		}
	}

	switch m.currentView {
	case typesView:
		m.typeTable, cmd = m.typeTable.Update(msg)
	case entitiesView:
		m.entityTable, cmd = m.entityTable.Update(msg)
	}

	return m, cmd
}

func (m *model) selectTypeFromCursor() {
	row := m.typeTable.SelectedRow()
	if row == nil {
		return
	}
	name := row[0]
	reg := m.k.Registry()
	id, ok := reg.TypeByName(name)
	if !ok {
		m.message = fmt.Sprintf("unknown type %q", name)
		return
	}
	m.selected = id
	m.selectedOK = true
	m.refreshEntities()
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("mew-inspect"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case typesView:
		s.WriteString(contentStyle.Render(m.typeTable.View()))
	case entitiesView:
		s.WriteString(contentStyle.Render(m.entityTable.View()))
	}

	if m.message != "" {
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render(m.message))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Dashboard", "Types", "Entities"}
	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if view(i) == m.currentView {
			rendered[i] = activeTabStyle.Render(tab)
		} else {
			rendered[i] = inactiveTabStyle.Render(tab)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderDashboard() string {
	reg := m.k.Registry()
	uptime := time.Since(m.startTime).Round(time.Second)
	limits := m.k.RuleLimits()

	content := fmt.Sprintf(`Kernel
------
Node types:   %d
Edge types:   %d
Uptime:       %s

Rule limits
-----------
Max actions:     %d
Max chain depth: %d
Budget:          %s`,
		len(reg.AllNodeTypeIds()),
		len(reg.AllEdgeTypeIds()),
		uptime,
		limits.MaxActions,
		limits.MaxChainDepth,
		limits.Budget,
	)

	return contentStyle.Render(boxStyle.Render(content))
}

func main() {
	dataDir := flag.String("data", "./data/mewd", "data directory of a (possibly running) mewd instance")
	configPath := flag.String("config", "", "path to a KernelConfig YAML file; falls back to -data if empty")
	flag.Parse()

	cfg := config.Default(*dataDir)
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	k, err := kernel.Open(cfg, nil)
	if err != nil {
		log.Fatalf("failed to open kernel: %v", err)
	}
	defer k.Close()

	p := tea.NewProgram(newModel(k), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("error running program: %v", err)
	}
}
