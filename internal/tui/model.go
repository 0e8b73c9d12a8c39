// Package tui provides the Bubble Tea candidate browser.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kasiski/internal/cipher"
	"github.com/verte-zerg/kasiski/internal/model"
	"github.com/verte-zerg/kasiski/internal/pipeline"
	"github.com/verte-zerg/kasiski/internal/report"
	"github.com/verte-zerg/kasiski/internal/store"
)

var (
	letterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	maskedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	otherStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7CB342"))
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Accept key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("enter", " ", "n"), key.WithHelp("enter/n", "next")),
		Prev:   key.NewBinding(key.WithKeys("p", "b"), key.WithHelp("p", "previous")),
		Accept: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept key")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Accept, k.Down, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// candidateMsg delivers a candidate built off the UI loop.
type candidateMsg struct {
	pos  int
	cand pipeline.Candidate
	err  error
}

// Model implements the Bubble Tea candidate browser. Candidates are built
// only when the operator asks for the next one.
type Model struct {
	analysis *pipeline.Analysis
	store    *store.Store
	runID    int64
	recalled cipher.Key

	keys     keyMap
	help     help.Model
	viewport viewport.Model

	width  int
	height int

	// entries holds built candidates by browse position; position 0 is the
	// recalled key when there is one.
	entries  map[int]pipeline.Candidate
	pos      int
	loading  bool
	accepted int
	status   string
}

// NewModel constructs a browser over a. st may be nil to disable recording;
// recalled is a previously accepted key shown before the ranking, or nil.
func NewModel(a *pipeline.Analysis, st *store.Store, runID int64, recalled cipher.Key) *Model {
	return &Model{
		analysis: a,
		store:    st,
		runID:    runID,
		recalled: recalled,
		keys:     defaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(0, 0),
		entries:  map[int]pipeline.Candidate{},
		accepted: -1,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.load(0)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil
	case candidateMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("failed to build candidate: %v", msg.err)
			return m, nil
		}
		m.entries[msg.pos] = msg.cand
		m.pos = msg.pos
		m.record(msg.cand)
		m.status = ""
		m.layout()
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.show(m.pos + 1)
		case key.Matches(msg, m.keys.Prev):
			return m, m.show(m.pos - 1)
		case key.Matches(msg, m.keys.Accept):
			m.accept()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	c, ok := m.entries[m.pos]
	if !ok {
		if m.status != "" {
			return m.status
		}
		return "Analyzing..."
	}
	header := m.renderHeader(c)
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return strings.Join([]string{header, m.viewport.View(), footer}, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}

func (m *Model) total() int {
	n := m.analysis.Len()
	if m.recalled != nil {
		n++
	}
	return n
}

// show moves to pos, building the candidate on first visit.
func (m *Model) show(pos int) tea.Cmd {
	if pos < 0 || m.loading {
		return nil
	}
	if pos >= m.total() {
		m.status = "No more candidates."
		return nil
	}
	if _, ok := m.entries[pos]; ok {
		m.pos = pos
		m.status = ""
		m.layout()
		return nil
	}
	return m.load(pos)
}

func (m *Model) load(pos int) tea.Cmd {
	if pos >= m.total() {
		return nil
	}
	m.loading = true
	a := m.analysis
	recalled := m.recalled
	return func() tea.Msg {
		if recalled != nil {
			if pos == 0 {
				c, err := a.Recall(recalled)
				return candidateMsg{pos: pos, cand: c, err: err}
			}
			c, err := a.Candidate(pos - 1)
			return candidateMsg{pos: pos, cand: c, err: err}
		}
		c, err := a.Candidate(pos)
		return candidateMsg{pos: pos, cand: c, err: err}
	}
}

func (m *Model) record(c pipeline.Candidate) {
	if m.store == nil || m.runID == 0 {
		return
	}
	rec := model.CandidateRecord{
		Rank:         c.Rank,
		KeyLength:    c.KeyLength.Length,
		FailureRatio: c.KeyLength.FailureRatio,
		Key:          c.Key.String(),
		Fit:          c.Fit,
	}
	if err := m.store.InsertCandidates(context.Background(), m.runID, []model.CandidateRecord{rec}); err != nil {
		logErrf("failed to record candidate: %v\n", err)
	}
}

func (m *Model) accept() {
	c, ok := m.entries[m.pos]
	if !ok {
		return
	}
	if m.store != nil && m.runID != 0 {
		if err := m.store.MarkAccepted(context.Background(), m.runID, c.Rank); err != nil {
			m.status = fmt.Sprintf("failed to save accepted key: %v", err)
			return
		}
	}
	m.accepted = m.pos
	m.status = fmt.Sprintf("Accepted key %s", c.Key.String())
}

func (m *Model) layout() {
	headerHeight := 3
	footerHeight := 2
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-headerHeight-footerHeight)
	if c, ok := m.entries[m.pos]; ok {
		width := m.width
		if width <= 0 {
			width = 80
		}
		m.viewport.SetContent(wrapGlyphs(styleDecoded(m.analysis.Profile(), []rune(c.Decoded)), width))
		m.viewport.GotoTop()
	}
}

func (m *Model) renderHeader(c pipeline.Candidate) string {
	title := fmt.Sprintf("Candidate %d/%d", m.pos+1, m.total())
	if c.Rank == 0 {
		title += " · previously accepted"
	}
	line1 := fmt.Sprintf("%s  Key %s", headerStyle.Render(title), renderKey(c.Key.String()))
	if m.accepted == m.pos {
		line1 += statusStyle.Render("  ✓ accepted")
	}
	stats := fmt.Sprintf("Length %d · failure %.1f%% · fit %.3f", c.KeyLength.Length, c.KeyLength.FailureRatio*100, c.Fit)
	if n := c.Key.Wildcards(); n > 0 {
		stats += fmt.Sprintf(" · %d undetermined", n)
	}
	line2 := headerStyle.Render(stats)
	line3 := ""
	if len(c.Slots) > 0 {
		line3 = footerStyle.Render("Letters " + report.SlotSummary(c.Slots))
	}
	return strings.Join([]string{line1, line2, line3}, "\n")
}

func (m *Model) renderFooter() string {
	status := m.status
	if status == "" && m.loading {
		status = "Building candidate..."
	}
	return footerStyle.Render(status) + "\n" + m.help.View(m.keys)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
