// Package tui provides the Bubble Tea front-end for Port Browser.
// model.go implements the port picker: a validated port field, a quick
// port list, launch toggles and a status line.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/insajin/port-browser/internal/app"
	"github.com/insajin/port-browser/internal/branding"
	"github.com/insajin/port-browser/internal/config"
)

// Backend is what the model drives. *app.Dispatcher satisfies it through
// NewBackend.
type Backend interface {
	Dispatch(ctx context.Context, ev app.Event) app.Outcome
	Config() *config.AppConfig
	QuickPorts() []uint16
}

type dispatcherBackend struct {
	*app.Dispatcher
}

func (b dispatcherBackend) Config() *config.AppConfig {
	return b.Session().Config()
}

func (b dispatcherBackend) QuickPorts() []uint16 {
	return b.Session().QuickPorts()
}

// NewBackend adapts a dispatcher for the model.
func NewBackend(d *app.Dispatcher) Backend {
	return dispatcherBackend{Dispatcher: d}
}

// focusArea is the part of the screen receiving keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusList
)

// maxVisiblePorts is the number of quick port rows shown at once.
const maxVisiblePorts = 6

// outcomeMsg carries the result of a dispatched event back to Update.
type outcomeMsg struct {
	event   app.Event
	outcome app.Outcome
}

// quitMsg is sent when an auto-close delay expires.
type quitMsg struct{}

// Model is the Bubble Tea model for the port picker.
type Model struct {
	backend Backend
	styles  Styles

	input textinput.Model
	// validation is the message for the current input.
	validation   string
	validationOK bool

	quickPorts   []uint16
	selected     int
	scrollOffset int
	focus        focusArea

	useDefault  bool
	autoClose   bool
	autoLaunch  bool
	defaultPort uint16

	// status is the result of the last launch or save.
	status   string
	statusOK bool
	busy     bool

	width    int
	height   int
	quitting bool
}

// NewModel creates the model. initialPort pre-fills the port field.
func NewModel(backend Backend, initialPort string) Model {
	cfg := backend.Config()

	ti := textinput.New()
	ti.Placeholder = "3000"
	ti.CharLimit = 5
	ti.Width = 8
	ti.Prompt = ""
	ti.SetValue(initialPort)
	ti.Focus()

	m := Model{
		backend:     backend,
		styles:      NewStyles(cfg.Theme),
		input:       ti,
		quickPorts:  backend.QuickPorts(),
		focus:       focusInput,
		useDefault:  cfg.UseDefaultPort,
		autoClose:   cfg.AutoClose,
		autoLaunch:  cfg.AutoLaunch,
		defaultPort: cfg.DefaultPort,
	}
	m.revalidate()
	return m
}

// Init implements tea.Model. With auto_launch set it launches right away.
func (m Model) Init() tea.Cmd {
	if m.autoLaunch {
		return tea.Batch(textinput.Blink, m.dispatch(m.launchEvent()))
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case outcomeMsg:
		return m.handleOutcome(msg)

	case quitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+s":
		m.busy = true
		return m, m.dispatch(app.SaveConfig{UseDefaultPort: m.useDefault, AutoClose: m.autoClose})

	case "tab", "shift+tab":
		m.setFocus((m.focus + 1) % 2)
		return m, nil

	case "up":
		m.setFocus(focusList)
		if m.selected > 0 {
			m.selected--
		}
		if m.selected < m.scrollOffset {
			m.scrollOffset = m.selected
		}
		return m, nil

	case "down":
		m.setFocus(focusList)
		if m.selected < len(m.quickPorts)-1 {
			m.selected++
		}
		if m.selected >= m.scrollOffset+maxVisiblePorts {
			m.scrollOffset = m.selected - maxVisiblePorts + 1
		}
		return m, nil

	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		if m.focus == focusList && len(m.quickPorts) > 0 {
			return m, m.dispatch(app.QuickPort{Port: m.quickPorts[m.selected], AutoClose: m.autoClose})
		}
		return m, m.dispatch(m.launchEvent())
	}

	// Letters are shortcuts; the port field only takes digits.
	if msg.Type == tea.KeyRunes && !isDigits(msg.Runes) {
		switch string(msg.Runes) {
		case "d":
			m.useDefault = !m.useDefault
			m.revalidate()
		case "a":
			m.autoClose = !m.autoClose
		case "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.setFocus(focusInput)
	}
	if m.focus != focusInput {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.revalidate()
	return m, cmd
}

func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.status = msg.outcome.Message
	m.statusOK = msg.outcome.Err == nil

	switch msg.event.(type) {
	case app.Launch, app.QuickPort:
		m.quickPorts = m.backend.QuickPorts()
		if m.selected >= len(m.quickPorts) {
			m.selected = 0
			m.scrollOffset = 0
		}
	}

	if msg.outcome.Quit {
		return m, tea.Tick(msg.outcome.QuitAfter, func(time.Time) tea.Msg {
			return quitMsg{}
		})
	}
	return m, nil
}

func (m Model) launchEvent() app.Event {
	return app.Launch{Input: m.input.Value(), UseDefault: m.useDefault, AutoClose: m.autoClose}
}

// dispatch runs ev off the update loop and reports back with outcomeMsg.
func (m Model) dispatch(ev app.Event) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		return outcomeMsg{event: ev, outcome: backend.Dispatch(context.Background(), ev)}
	}
}

// revalidate refreshes the inline validation message.
func (m *Model) revalidate() {
	if m.useDefault {
		m.validation = fmt.Sprintf("기본 포트 %d 사용", m.defaultPort)
		m.validationOK = true
		return
	}
	out := m.backend.Dispatch(context.Background(), app.ValidateInput{Input: m.input.Value()})
	m.validation = out.Message
	m.validationOK = out.Valid
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return branding.AppName + " 종료\n"
	}

	w := m.width
	if w == 0 {
		w = 60
	}
	contentWidth := w - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(contentWidth),
		m.renderPortPanel(contentWidth),
		m.renderQuickPanel(contentWidth),
		m.renderStatus(contentWidth),
		m.renderFooter(contentWidth),
	)
}

func (m Model) renderHeader(width int) string {
	return m.styles.Header.Width(width).Render(branding.AppName)
}

func (m Model) renderPortPanel(width int) string {
	validation := m.styles.Error.Render("✗ " + m.validation)
	if m.validationOK {
		validation = m.styles.OK.Render("✓ " + m.validation)
	}

	lines := []string{
		m.styles.Label.Render("포트:") + " " + m.input.View(),
		m.styles.Label.Render("") + " " + validation,
		m.styles.Label.Render("기본 포트:") + " " + checkbox(m.useDefault) + " " +
			m.styles.Value.Render(fmt.Sprintf("%d", m.defaultPort)),
		m.styles.Label.Render("자동 닫기:") + " " + checkbox(m.autoClose),
	}

	style := m.panelStyle(focusInput, width)
	return m.styles.Title.Render(" 실행 ") + "\n" + style.Render(strings.Join(lines, "\n"))
}

func (m Model) renderQuickPanel(width int) string {
	var rows []string
	if len(m.quickPorts) == 0 {
		rows = append(rows, m.styles.NormalRow.Render("  빠른 포트 없음"))
	} else {
		end := m.scrollOffset + maxVisiblePorts
		if end > len(m.quickPorts) {
			end = len(m.quickPorts)
		}
		for i := m.scrollOffset; i < end; i++ {
			row := fmt.Sprintf("  localhost:%d", m.quickPorts[i])
			if i == m.selected && m.focus == focusList {
				rows = append(rows, m.styles.SelectedRow.Render(row))
			} else {
				rows = append(rows, m.styles.NormalRow.Render(row))
			}
		}
		if len(m.quickPorts) > maxVisiblePorts {
			rows = append(rows, m.styles.Help.Render(fmt.Sprintf("  [%d/%d]", m.selected+1, len(m.quickPorts))))
		}
	}

	style := m.panelStyle(focusList, width)
	return m.styles.Title.Render(" 빠른 포트 ") + "\n" + style.Render(strings.Join(rows, "\n"))
}

func (m Model) renderStatus(width int) string {
	var text string
	switch {
	case m.busy:
		text = m.styles.Warning.Render("처리 중...")
	case m.status == "":
		text = m.styles.Help.Render("준비")
	case m.statusOK:
		text = m.styles.OK.Render(m.status)
	default:
		text = m.styles.Error.Render(m.status)
	}
	return lipgloss.NewStyle().Width(width).Padding(0, 1).Render(text)
}

func (m Model) renderFooter(width int) string {
	keys := []struct {
		key  string
		desc string
	}{
		{"enter", "실행"},
		{"up/down", "빠른 포트"},
		{"d", "기본 포트"},
		{"a", "자동 닫기"},
		{"ctrl+s", "저장"},
		{"esc", "종료"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, m.styles.HelpKey.Render(k.key)+" "+m.styles.Help.Render(k.desc))
	}

	help := strings.Join(parts, m.styles.Help.Render("  |  "))
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(help)
}

func (m Model) panelStyle(area focusArea, width int) lipgloss.Style {
	if m.focus == area {
		return m.styles.ActivePanel.Width(width - 2)
	}
	return m.styles.Panel.Width(width - 2)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func isDigits(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(runes) > 0
}
