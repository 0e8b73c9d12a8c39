package historyui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/kasiski/internal/model"
)

const dateLayout = "2006-01-02"

const (
	fieldLang = iota
	fieldSince
	fieldLast
)

// filterForm edits the lang, since and last filters of a HistoryConfig.
type filterForm struct {
	inputs []textinput.Model
	focus  int
	err    string
}

func newFilterForm(cfg model.HistoryConfig, width int) *filterForm {
	f := &filterForm{inputs: make([]textinput.Model, 3)}
	for i, prompt := range []string{"Lang: ", "Since (YYYY-MM-DD): ", "Last: "} {
		in := textinput.New()
		in.Prompt = prompt
		in.Cursor.SetMode(cursor.CursorStatic)
		in.Width = max(10, width-len(prompt)-2)
		f.inputs[i] = in
	}
	f.inputs[fieldLang].SetValue(cfg.Lang)
	if cfg.Since != nil {
		f.inputs[fieldSince].SetValue(cfg.Since.Format(dateLayout))
	}
	if cfg.Last > 0 {
		f.inputs[fieldLast].SetValue(strconv.Itoa(cfg.Last))
	}
	return f
}

func (f *filterForm) focusField(i int) tea.Cmd {
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[f.focus].Focus()
}

// update routes a key to the focused field, moving focus on tab and
// shift+tab.
func (f *filterForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return f.focusField(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return f.focusField(f.focus - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// config parses the form. Run stays unset: the browser picks runs itself.
func (f *filterForm) config() (model.HistoryConfig, error) {
	cfg := model.HistoryConfig{Lang: strings.TrimSpace(f.inputs[fieldLang].Value())}
	if v := strings.TrimSpace(f.inputs[fieldSince].Value()); v != "" {
		since, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid since date %q (want YYYY-MM-DD)", v)
		}
		cfg.Since = &since
	}
	if v := strings.TrimSpace(f.inputs[fieldLast].Value()); v != "" {
		last, err := strconv.Atoi(v)
		if err != nil || last < 0 {
			return model.HistoryConfig{}, fmt.Errorf("invalid last %q (want 0 or more)", v)
		}
		cfg.Last = last
	}
	return cfg, nil
}

func (f *filterForm) view() string {
	lines := make([]string, 0, len(f.inputs)+2)
	lines = append(lines, "Filter runs")
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func describeFilter(cfg model.HistoryConfig) string {
	lang, since, last := "any", "any", "all"
	if cfg.Lang != "" {
		lang = cfg.Lang
	}
	if cfg.Since != nil {
		since = cfg.Since.Format(dateLayout)
	}
	if cfg.Last > 0 {
		last = strconv.Itoa(cfg.Last)
	}
	return fmt.Sprintf("lang=%s  since=%s  last=%s", lang, since, last)
}
