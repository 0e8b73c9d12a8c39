// Package historyui provides the Bubble Tea browser over recorded runs.
package historyui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kasiski/internal/model"
	"github.com/verte-zerg/kasiski/internal/store"
)

type page int

const (
	pageOverview page = iota
	pageRuns
	pageCandidates
	pageCount
)

var pageTitles = [pageCount]string{"Overview", "Runs", "Candidates"}

var (
	accentColor = lipgloss.Color("#C89A3A")
	dimColor    = lipgloss.Color("#4A4A4A")

	activeTabStyle   = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Underline(true).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Padding(0, 1)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle        = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(dimColor)
	cardLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle   = lipgloss.NewStyle().Bold(true)
)

// headerLines is the tab bar plus the filter summary.
const headerLines = 2

type keyMap struct {
	NextPage key.Binding
	PrevPage key.Binding
	Open     key.Binding
	Filter   key.Binding
	Apply    key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("←/→", "page")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open run")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Apply:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// browseKeys and formKeys adapt keyMap to help.KeyMap for each mode.
type browseKeys struct{ keyMap }

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.Open, k.Filter, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

type formKeys struct{ keyMap }

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Cancel}
}

func (k formKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// Model browses recorded runs and the candidates shown in each.
type Model struct {
	store *store.Store
	cfg   model.HistoryConfig

	runs       []model.RunAggregate
	candidates []model.CandidateRecord
	// selected is the run whose candidates are listed.
	selected int64
	errMsg   string

	keys      keyMap
	help      help.Model
	page      page
	overview  viewport.Model
	runTable  table.Model
	candTable table.Model
	filter    *filterForm

	width  int
	height int
}

// NewModel loads the runs matching cfg and selects the newest.
func NewModel(st *store.Store, cfg model.HistoryConfig) *Model {
	m := &Model{
		store:     st,
		cfg:       cfg,
		keys:      defaultKeyMap(),
		help:      help.New(),
		overview:  viewport.New(0, 0),
		runTable:  newTable(runColumns()),
		candTable: newTable(candidateColumns()),
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filter != nil {
			return m, m.updateFilter(msg)
		}
		return m, m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.NextPage):
		m.setPage(m.page + 1)
		return nil
	case key.Matches(msg, m.keys.PrevPage):
		m.setPage(m.page - 1)
		return nil
	case key.Matches(msg, m.keys.Filter):
		m.filter = newFilterForm(m.cfg, m.width)
		return m.filter.focusField(fieldLang)
	case key.Matches(msg, m.keys.Open) && m.page == pageRuns:
		m.openSelectedRun()
		return nil
	}

	var cmd tea.Cmd
	switch m.page {
	case pageRuns:
		m.runTable, cmd = m.runTable.Update(msg)
	case pageCandidates:
		m.candTable, cmd = m.candTable.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.filter = nil
		return nil
	case key.Matches(msg, m.keys.Apply):
		cfg, err := m.filter.config()
		if err != nil {
			m.filter.err = err.Error()
			return nil
		}
		m.filter = nil
		m.cfg = cfg
		m.selected = 0
		m.reload()
		m.layout()
		return nil
	}
	return m.filter.update(msg)
}

func (m *Model) setPage(p page) {
	m.page = (p + pageCount) % pageCount
	m.runTable.Blur()
	m.candTable.Blur()
	switch m.page {
	case pageRuns:
		m.runTable.Focus()
	case pageCandidates:
		m.candTable.Focus()
	}
}

// reload fetches runs for the current filter and the selected run's
// candidates, defaulting the selection to the newest run.
func (m *Model) reload() {
	runs, err := m.store.ListRuns(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.runs = runs
	m.runTable.SetRows(runRows(runs))
	if m.selected == 0 && len(runs) > 0 {
		m.selected = runs[len(runs)-1].Run.ID
	}
	m.loadCandidates()
	m.overview.SetContent(overviewText(m.runs, m.contentWidth()))
}

func (m *Model) loadCandidates() {
	m.candidates = nil
	m.candTable.SetRows(nil)
	if m.selected == 0 {
		return
	}
	cands, err := m.store.ListCandidates(context.Background(), m.selected)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.candidates = cands
	m.candTable.SetRows(candidateRows(cands))
	m.candTable.GotoTop()
}

func (m *Model) openSelectedRun() {
	row := m.runTable.SelectedRow()
	if row == nil {
		return
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.selected = id
	m.loadCandidates()
	m.setPage(pageCandidates)
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) bodyHeight() int {
	footer := 1
	if m.errMsg != "" && m.filter == nil {
		footer++
	}
	return max(m.height-headerLines-footer, 1)
}

func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	body := m.bodyHeight()
	m.overview.Width, m.overview.Height = m.width, body
	m.overview.SetContent(overviewText(m.runs, m.width))
	m.help.Width = m.width
	for _, t := range []*table.Model{&m.runTable, &m.candTable} {
		t.SetWidth(m.width)
		// The header row and its border take two lines.
		t.SetHeight(max(1, body-2))
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	block := func(s string, h int) string {
		return lipgloss.NewStyle().Width(m.width).Height(h).MaxHeight(h).Render(s)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		block(m.renderHeader(), headerLines),
		block(m.renderBody(), m.bodyHeight()),
		m.renderFooter(),
	)
}

func (m *Model) renderHeader() string {
	tabs := make([]string, 0, pageCount)
	for p, title := range pageTitles {
		style := inactiveTabStyle
		if page(p) == m.page {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(title))
	}
	summary := "Filters: " + describeFilter(m.cfg)
	if m.selected != 0 {
		summary += "  run=" + strconv.FormatInt(m.selected, 10)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + mutedStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.filter != nil {
		return m.filter.view()
	}
	switch m.page {
	case pageRuns:
		if len(m.runs) == 0 {
			return "No runs recorded."
		}
		return m.runTable.View()
	case pageCandidates:
		if len(m.candidates) == 0 {
			return "No candidates recorded for this run."
		}
		return m.candTable.View()
	default:
		return m.overview.View()
	}
}

func (m *Model) renderFooter() string {
	if m.filter != nil {
		return m.help.View(formKeys{m.keys})
	}
	footer := m.help.View(browseKeys{m.keys})
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return strings.TrimRight(footer, "\n")
}
