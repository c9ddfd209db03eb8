package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// RoundStatus captures a file's state within the current rebuild round.
type RoundStatus string

const (
	// StatusClean indicates the file needed no work this round.
	StatusClean RoundStatus = "clean"
	// StatusRebuilding indicates the file is being re-analyzed.
	StatusRebuilding RoundStatus = "rebuilding"
	// StatusDone indicates the file was re-analyzed without errors.
	StatusDone RoundStatus = "done"
	// StatusErrors indicates re-analysis produced errors.
	StatusErrors RoundStatus = "errors"
)

// RoundEvent reports watch progress for one file, or for the round itself
// when File is empty.
type RoundEvent struct {
	File   string
	Status RoundStatus
	Errors int
	Round  int
}

type watchModel struct {
	title   string
	events  <-chan RoundEvent
	spinner spinner.Model
	prog    progress.Model
	items   []watchItem
	index   map[string]int
	round   int
	width   int
	done    bool
}

type watchItem struct {
	path   string
	status RoundStatus
	errs   int
}

type roundEventMsg RoundEvent
type watchDoneMsg struct{}

// NewWatchModel returns a Bubble Tea model that renders rebuild rounds.
func NewWatchModel(title string, files []string, events <-chan RoundEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]watchItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, watchItem{path: file, status: StatusClean})
		index[file] = i
	}
	return &watchModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case roundEventMsg:
		cmd := m.applyEvent(RoundEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case watchDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *watchModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.round > 0 {
		header = fmt.Sprintf("%s (round %d)", header, m.round)
	}
	if m.done {
		header = fmt.Sprintf("stopped: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.path, nameWidth)
		status := string(item.status)
		if item.status == StatusErrors {
			status = fmt.Sprintf("%d errors", item.errs)
		}
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, name)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *watchModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return watchDoneMsg{}
		}
		return roundEventMsg(ev)
	}
}

func (m *watchModel) applyEvent(ev RoundEvent) tea.Cmd {
	if ev.Round > m.round {
		// новый раунд: всё, что не тронуто, снова clean
		m.round = ev.Round
		for i := range m.items {
			m.items[i].status = StatusClean
			m.items[i].errs = 0
		}
	}
	if ev.File == "" {
		return m.updateProgress()
	}
	idx, ok := m.index[ev.File]
	if !ok {
		m.items = append(m.items, watchItem{path: ev.File})
		idx = len(m.items) - 1
		m.index[ev.File] = idx
	}
	m.items[idx].status = ev.Status
	m.items[idx].errs = ev.Errors
	return m.updateProgress()
}

func (m *watchModel) updateProgress() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	settled := 0
	for _, item := range m.items {
		if item.status != StatusRebuilding {
			settled++
		}
	}
	return m.prog.SetPercent(float64(settled) / float64(len(m.items)))
}

func styleStatus(status RoundStatus) lipgloss.Style {
	switch status {
	case StatusErrors:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusRebuilding:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
