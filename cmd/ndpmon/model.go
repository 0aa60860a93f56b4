package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ndplib/ndp/ndp"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(1, 0, 0, 0)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

var displayColumns = []ndp.MsgType{
	ndp.MsgTypeRS,
	ndp.MsgTypeRA,
	ndp.MsgTypeNS,
	ndp.MsgTypeNA,
	ndp.MsgTypeRedirect,
}

type tickMsg time.Time

// model is the bubbletea Model driving the live peer table. It polls
// Stats on a timer rather than subscribing to the handler directly,
// since Stats is the only piece shared between the service goroutine
// and the UI goroutine.
type model struct {
	stats    *Stats
	table    table.Model
	refresh  time.Duration
	quitting bool
}

func newModel(stats *Stats, refresh time.Duration) model {
	columns := []table.Column{
		{Title: "Address", Width: 32},
		{Title: "MAC", Width: 17},
	}
	for _, t := range displayColumns {
		columns = append(columns, table.Column{Title: t.String(), Width: 5})
	}
	columns = append(columns,
		table.Column{Title: "Total", Width: 6},
		table.Column{Title: "First", Width: 9},
		table.Column{Title: "Last", Width: 9},
	)

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	style := table.DefaultStyles()
	style.Header = headerStyle
	style.Selected = style.Selected.Foreground(lipgloss.Color("229")).Bold(false)
	t.SetStyles(style)

	return model{stats: stats, table: t, refresh: refresh}
}

func (m model) Init() tea.Cmd {
	return tickEvery(m.refresh)
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		m.table.SetRows(buildRows(m.stats.GetStats()))
		return m, tickEvery(m.refresh)
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 6)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	title := titleStyle.Render(fmt.Sprintf("ndpmon — window %s", m.stats.Window()))
	footer := footerStyle.Render("q to quit")
	return title + "\n" + m.table.View() + "\n" + footer
}

func buildRows(summaries []PeerSummary) []table.Row {
	rows := make([]table.Row, 0, len(summaries))
	for _, s := range summaries {
		mac := s.MAC
		if mac == "" {
			mac = "-"
		}
		row := table.Row{s.Address, mac}
		for _, t := range displayColumns {
			row = append(row, fmt.Sprintf("%d", s.Counts[t]))
		}
		row = append(row,
			fmt.Sprintf("%d", s.Total),
			s.FirstSeen.Format("15:04:05"),
			s.LastSeen.Format("15:04:05"),
		)
		rows = append(rows, row)
	}
	return rows
}
