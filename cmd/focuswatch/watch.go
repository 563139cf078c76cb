package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"focuswatch/tracker"
	"focuswatch/web"
)

const watchRefresh = 2 * time.Second

func watchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live view of the running tracker and today's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			m := watchModel{client: web.NewClient(cfg.WebAddr)}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

type snapshotMsg struct {
	status  tracker.Status
	summary web.SummaryResponse
	err     error
}

// toggledMsg carries the tracker state after a start/stop request. Unlike
// snapshotMsg it does not schedule another refresh.
type toggledMsg struct {
	status tracker.Status
	err    error
}

type tickMsg time.Time

type watchModel struct {
	client  *web.Client
	status  tracker.Status
	summary web.SummaryResponse
	err     error
	loaded  bool
	width   int
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(10)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

func (m watchModel) Init() tea.Cmd {
	return m.fetch
}

func (m watchModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), watchRefresh)
	defer cancel()

	st, err := m.client.Status(ctx)
	if err != nil {
		return snapshotMsg{err: err}
	}
	sum, err := m.client.Summary(ctx, "day")
	return snapshotMsg{status: st, summary: sum, err: err}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			return m, m.toggle
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapshotMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.summary = msg.summary
		}
		return m, tea.Tick(watchRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
	case toggledMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
	case tickMsg:
		return m, m.fetch
	}
	return m, nil
}

func (m watchModel) toggle() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), watchRefresh)
	defer cancel()

	var st tracker.Status
	var err error
	if m.status.Running {
		st, err = m.client.Stop(ctx)
	} else {
		st, err = m.client.Start(ctx)
	}
	return toggledMsg{status: st, err: err}
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("focuswatch"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString("connecting...\n")
		return b.String()
	}
	if m.err != nil {
		b.WriteString(errStyle.Render("error: "+m.err.Error()) + "\n")
		b.WriteString(helpStyle.Render("is 'focuswatch run' running? q quit"))
		return b.String()
	}

	st := m.status
	state := "stopped"
	if st.Running {
		state = "running"
	}
	b.WriteString(labelStyle.Render("state") + state + "\n")
	if st.Identity != nil {
		current := st.Identity.ApplicationName
		if st.Identity.WindowTitle != "" {
			current += " | " + truncate(st.Identity.WindowTitle, 50)
		}
		b.WriteString(labelStyle.Render("current") + current + "\n")
		b.WriteString(labelStyle.Render("for") + formatDuration(time.Since(st.Since)) + "\n")
	}
	if st.Degraded() {
		b.WriteString(errStyle.Render(fmt.Sprintf("degraded: sampler %d, store %d consecutive failures",
			st.SamplerFailures, st.StoreFailures)) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("today") + "\n")
	var top time.Duration
	for _, it := range m.summary.Items {
		if it.Total > top {
			top = it.Total
		}
	}
	barWidth := 30
	if m.width > 80 {
		barWidth = m.width - 50
	}
	for _, it := range m.summary.Items {
		n := 0
		if top > 0 {
			n = int(float64(barWidth) * float64(it.Total) / float64(top))
		}
		fmt.Fprintf(&b, "%-24s %12s %s\n", truncate(it.ApplicationName, 24), formatDuration(it.Total),
			barStyle.Render(strings.Repeat("█", n)))
	}
	if len(m.summary.Items) == 0 {
		b.WriteString("nothing recorded today\n")
	}
	if m.summary.Warning != "" {
		b.WriteString(errStyle.Render(m.summary.Warning) + "\n")
	}

	b.WriteString(helpStyle.Render("s start/stop  q quit"))
	return b.String()
}
