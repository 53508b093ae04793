package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/scenario"
	"github.com/san-kum/ctrlsim/internal/storage"
	"github.com/san-kum/ctrlsim/internal/viz"
)

type state int

const (
	stateMenu state = iota
	stateTune
)

var (
	paramNames = []string{"kp", "ki", "kd", "alpha"}
	paramSteps = []float64{0.5, 0.25, 0.05, 0.05}
)

// Model is an interactive gain tuner. Edits go through the PID's SetParam
// and every accepted change reruns the selected scenario with the tuned
// gains and derivative filter.
type Model struct {
	state   state
	cursor  int
	systems []scenario.SystemType
	system  scenario.SystemType
	sc      scenario.Scenario

	pid     *control.PID
	field   int
	editing bool
	editBuf string
	preset  int

	out    *scenario.Output
	err    error
	status string

	store *storage.Store

	width, height int
}

// New starts at the system menu, or directly in the tuner when system is
// valid. store may be nil, which disables saving.
func New(store *storage.Store, system scenario.SystemType, g control.Gains) Model {
	m := Model{
		systems: scenario.All(),
		pid:     control.NewPID(g, 0),
		preset:  -1,
		store:   store,
		width:   100,
		height:  30,
	}
	if system.Valid() {
		m.selectSystem(system)
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateTune:
		if m.editing {
			return m.editKey(msg), nil
		}
		return m.tuneKey(msg)
	}
	return m, nil
}

func (m Model) menuKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.systems)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selectSystem(m.systems[m.cursor])
	}
	return m, nil
}

func (m Model) tuneKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
		m.status = ""
	case "up", "k":
		if m.field > 0 {
			m.field--
		}
	case "down", "j", "tab":
		m.field = (m.field + 1) % len(paramNames)
	case "right", "l":
		m.adjust(paramSteps[m.field])
	case "left", "h":
		m.adjust(-paramSteps[m.field])
	case "enter":
		m.editing = true
		m.editBuf = strconv.FormatFloat(m.param(m.field), 'g', -1, 64)
	case "p":
		m.cyclePreset()
	case "r":
		m.setGains(control.Gains{})
		m.preset = -1
		m.rerun()
	case "s":
		m.save()
	}
	return m, nil
}

func (m Model) editKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "enter":
		m.editing = false
		v, err := strconv.ParseFloat(m.editBuf, 64)
		m.editBuf = ""
		if err != nil {
			m.status = fmt.Sprintf("invalid number for %s", paramNames[m.field])
			return m
		}
		if err := m.setParam(m.field, v); err != nil {
			m.status = err.Error()
			return m
		}
		m.preset = -1
		m.rerun()
	case "esc":
		m.editing = false
		m.editBuf = ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		if s := msg.String(); len(s) == 1 {
			c := s[0]
			if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
				m.editBuf += s
			}
		}
	}
	return m
}

func (m *Model) selectSystem(s scenario.SystemType) {
	sc, err := scenario.Lookup(s)
	if err != nil {
		m.err = err
		return
	}
	m.system = s
	m.sc = sc
	m.pid = sc.Controller(m.pid.Gains)
	m.state = stateTune
	m.field = 0
	m.preset = -1
	m.status = ""
	for i, sys := range m.systems {
		if sys == s {
			m.cursor = i
		}
	}
	m.rerun()
}

// Gains returns the gains currently being tuned.
func (m Model) Gains() control.Gains {
	return m.pid.Gains
}

// Alpha returns the derivative filter coefficient currently being tuned.
func (m Model) Alpha() float64 {
	return m.param(len(paramNames) - 1)
}

func (m Model) param(i int) float64 {
	return m.pid.GetParams()[paramNames[i]]
}

func (m *Model) setParam(i int, v float64) error {
	return m.pid.SetParam(paramNames[i], v)
}

func (m *Model) setGains(g control.Gains) {
	for i, v := range []float64{g.Kp, g.Ki, g.Kd} {
		m.setParam(i, v)
	}
}

func (m *Model) adjust(delta float64) {
	v := m.param(m.field) + delta
	if paramNames[m.field] != "alpha" {
		v = max(0, v)
	}
	if err := m.setParam(m.field, v); err != nil {
		m.status = err.Error()
		return
	}
	m.preset = -1
	m.rerun()
}

func (m *Model) cyclePreset() {
	names := config.ListPresets(m.system.String())
	if len(names) == 0 {
		return
	}
	m.preset = (m.preset + 1) % len(names)
	g, _ := config.GetPreset(m.system.String(), names[m.preset])
	m.setGains(g)
	m.status = "preset " + names[m.preset]
	m.rerun()
}

func (m *Model) rerun() {
	sc := m.sc
	sc.Alpha = m.Alpha()
	m.out, m.err = sc.Run(context.Background(), m.pid.Gains)
}

func (m *Model) save() {
	switch {
	case m.store == nil:
		m.status = "saving disabled"
	case m.out == nil:
		m.status = "nothing to save"
	default:
		id, err := m.store.Save(m.out, m.sc.Dt, m.sc.Duration)
		if err != nil {
			m.err = err
			return
		}
		m.status = "saved " + id
	}
}

func (m Model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateTune:
		return m.viewTune()
	}
	return ""
}

func (m Model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n  " + viz.Title.Render("c t r l s i m") + "\n\n")
	for i, s := range m.systems {
		desc := ""
		if sc, err := scenario.Lookup(s); err == nil {
			desc = sc.Description
		}
		if i == m.cursor {
			b.WriteString("  " + viz.Selected.Render(fmt.Sprintf("▸ %-20s", s)) + viz.Subtle.Render(desc) + "\n")
		} else {
			b.WriteString("    " + fmt.Sprintf("%-20s", s) + viz.Subtle.Render(desc) + "\n")
		}
	}
	b.WriteString("\n" + viz.KeyHint.Render("  ↑↓ select   enter tune   q quit") + "\n")
	return b.String()
}

func (m Model) viewTune() string {
	var left strings.Builder

	left.WriteString(viz.Title.Render(m.system.String()) + "\n\n")
	for i, name := range paramNames {
		val := fmt.Sprintf("%8.3f", m.param(i))
		if m.editing && i == m.field {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.field {
			left.WriteString(viz.Selected.Render(fmt.Sprintf("▸ %-5s %s", name, val)) + "\n")
		} else {
			left.WriteString(fmt.Sprintf("  %-5s %s", name, val) + "\n")
		}
	}

	left.WriteString("\n")
	if m.out != nil {
		for _, name := range metrics.Names {
			left.WriteString(viz.MetricLabel.Render(name) + viz.MetricValue.Render(fmt.Sprintf("%.4g", m.out.Metrics[name])) + "\n")
		}
		left.WriteString("\n" + viz.SparklineChart(m.out.Response, 24) + "\n")
	}

	chartWidth := max(m.width-40, 30)
	chart := viz.ResponseChart(m.out, viz.ChartOptions{Width: chartWidth, Height: max(m.height-14, 8)})
	if m.err != nil {
		chart = viz.ErrorText.Render(m.err.Error())
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		viz.Panel.Render(left.String()),
		viz.Panel.Render(chart),
	)

	var b strings.Builder
	b.WriteString(view + "\n")
	if m.status != "" {
		b.WriteString("  " + viz.Subtle.Render(m.status) + "\n")
	}
	b.WriteString(viz.KeyHint.Render("  ↑↓ param  ←→ adjust  enter edit  p preset  r zero  s save  esc back  q quit") + "\n")
	return b.String()
}

// Run starts the tuner on the alternate screen.
func Run(store *storage.Store, system scenario.SystemType, g control.Gains) error {
	p := tea.NewProgram(New(store, system, g), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
