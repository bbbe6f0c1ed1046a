package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/pyboot/pyconfig"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(false)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

type browserView int

const (
	viewVersions browserView = iota
	viewFields
)

type browserModel struct {
	platform *pyconfig.Platform
	layouts  []*pyconfig.Layout
	versions table.Model
	fields   table.Model
	view     browserView
}

func newBrowserModel(p *pyconfig.Platform, layouts []*pyconfig.Layout) browserModel {
	cols := make([]table.Column, len(layoutColumns))
	for i, c := range layoutColumns {
		cols[i] = table.Column{Title: c, Width: max(len(c), 7)}
	}

	rows := make([]table.Row, len(layouts))
	for i, l := range layouts {
		rows[i] = layoutRow(l)
	}

	versions := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
	)
	versions.SetStyles(tableStyles())

	fields := table.New(
		table.WithColumns([]table.Column{
			{Title: "field", Width: 32},
			{Title: "kind", Width: 16},
			{Title: "offset", Width: 8},
		}),
		table.WithHeight(16),
	)
	fields.SetStyles(tableStyles())

	return browserModel{
		platform: p,
		layouts:  layouts,
		versions: versions,
		fields:   fields,
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = selectedStyle
	return s
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if m.view == viewVersions {
				return m.openFields(), nil
			}
		case "esc", "backspace":
			if m.view == viewFields {
				m.view = viewVersions
				m.fields.Blur()
				m.versions.Focus()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.view == viewFields {
		m.fields, cmd = m.fields.Update(msg)
	} else {
		m.versions, cmd = m.versions.Update(msg)
	}
	return m, cmd
}

func (m browserModel) openFields() browserModel {
	i := m.versions.Cursor()
	if i < 0 || i >= len(m.layouts) {
		return m
	}

	rows := make([]table.Row, 0)
	for _, r := range fieldRows(m.layouts[i]) {
		rows = append(rows, r)
	}
	m.fields.SetRows(rows)
	m.fields.GotoTop()
	m.versions.Blur()
	m.fields.Focus()
	m.view = viewFields
	return m
}

func (m browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("PyConfig layouts"))
	b.WriteString(" ")
	b.WriteString(m.platform.Name)
	b.WriteString("\n\n")

	if m.view == viewFields {
		l := m.layouts[m.versions.Cursor()]
		b.WriteString(field("version", l.Version.String()))
		b.WriteString("  ")
		b.WriteString(field("size", fmt.Sprintf("%d bytes, align %d", l.Config.Size, l.Config.Align)))
		b.WriteString("\n\n")
		b.WriteString(borderStyle.Render(m.fields.View()))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("↑/k up • ↓/j down • esc back • q quit"))
	} else {
		b.WriteString(borderStyle.Render(m.versions.View()))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("↑/k up • ↓/j down • enter fields • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func runBrowser(p *pyconfig.Platform, layouts []*pyconfig.Layout) error {
	program := tea.NewProgram(newBrowserModel(p, layouts), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
