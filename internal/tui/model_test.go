package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/insajin/port-browser/internal/app"
	"github.com/insajin/port-browser/internal/config"
	"github.com/insajin/port-browser/internal/launcher"
)

// fakeBackend records dispatched events and answers launches from outcome.
type fakeBackend struct {
	mu      sync.Mutex
	cfg     *config.AppConfig
	quick   []uint16
	events  []app.Event
	outcome app.Outcome
}

func newFakeBackend() *fakeBackend {
	cfg := config.Default()
	cfg.UseDefaultPort = false
	cfg.Theme = config.ThemeDark
	return &fakeBackend{
		cfg:     cfg,
		quick:   []uint16{3000, 8080, 5173},
		outcome: app.Outcome{Valid: true, URL: "http://localhost:3000", Message: "브라우저를 열었습니다: http://localhost:3000"},
	}
}

func (f *fakeBackend) Dispatch(_ context.Context, ev app.Event) app.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if v, ok := ev.(app.ValidateInput); ok {
		if v.Input == "3000" || v.Input == "8080" {
			return app.Outcome{Valid: true, Message: "사용 가능한 포트: " + v.Input}
		}
		return app.Outcome{Err: errors.New("bad port"), Message: "bad port"}
	}
	return f.outcome
}

func (f *fakeBackend) Config() *config.AppConfig {
	return f.cfg
}

func (f *fakeBackend) QuickPorts() []uint16 {
	return f.quick
}

func (f *fakeBackend) lastEvent() app.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func TestNewModel_InitialState(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "3000")

	if m.focus != focusInput {
		t.Errorf("focus = %d, want focusInput", m.focus)
	}
	if m.input.Value() != "3000" {
		t.Errorf("input = %q", m.input.Value())
	}
	if !m.validationOK {
		t.Errorf("validation = %q, want ok", m.validation)
	}
	if len(m.quickPorts) != 3 {
		t.Errorf("quickPorts = %v", m.quickPorts)
	}
	if m.useDefault || m.autoClose {
		t.Error("toggles should start from config (off)")
	}
	if m.defaultPort != 8080 {
		t.Errorf("defaultPort = %d", m.defaultPort)
	}
}

func TestInit_AutoLaunch(t *testing.T) {
	b := newFakeBackend()
	if cmd := NewModel(b, "3000").Init(); cmd == nil {
		t.Error("Init() returned nil")
	}

	b.cfg.AutoLaunch = true
	b.cfg.UseDefaultPort = true
	m := NewModel(b, "")
	if m.Init() == nil {
		t.Fatal("Init() returned nil with auto_launch")
	}
}

func TestTyping_Validates(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "")

	if m.validationOK {
		t.Error("empty input validated ok")
	}

	for _, r := range "8080" {
		updated, _ := m.Update(key(string(r)))
		m = updated.(Model)
	}

	if m.input.Value() != "8080" {
		t.Errorf("input = %q", m.input.Value())
	}
	if !m.validationOK {
		t.Errorf("validation = %q, want ok", m.validation)
	}
	if _, ok := b.lastEvent().(app.ValidateInput); !ok {
		t.Errorf("last event = %T, want ValidateInput", b.lastEvent())
	}
}

func TestKeyBinding_ToggleDefault(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "abc")

	updated, _ := m.Update(key("d"))
	m = updated.(Model)
	if !m.useDefault {
		t.Fatal("useDefault not toggled")
	}
	if !m.validationOK || !strings.Contains(m.validation, "8080") {
		t.Errorf("validation = %q", m.validation)
	}
	if m.input.Value() != "abc" {
		t.Errorf("'d' leaked into input: %q", m.input.Value())
	}

	updated, _ = m.Update(key("d"))
	m = updated.(Model)
	if m.useDefault || m.validationOK {
		t.Error("second toggle did not restore input validation")
	}
}

func TestKeyBinding_ToggleAutoClose(t *testing.T) {
	m := NewModel(newFakeBackend(), "3000")

	updated, _ := m.Update(key("a"))
	if !updated.(Model).autoClose {
		t.Error("autoClose not toggled")
	}
}

func TestKeyBinding_Quit(t *testing.T) {
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := NewModel(newFakeBackend(), "3000")
		updated, cmd := m.Update(k)
		if !updated.(Model).quitting {
			t.Errorf("%s: quitting not set", k.String())
		}
		if cmd == nil {
			t.Errorf("%s: expected tea.Quit", k.String())
		}
	}
}

func TestKeyBinding_EnterLaunches(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "3000")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if !m.busy {
		t.Error("busy not set while launching")
	}
	if !strings.Contains(m.View(), "처리 중...") {
		t.Error("view does not show progress")
	}

	m = run(t, m, cmd)
	ev, ok := b.lastEvent().(app.Launch)
	if !ok {
		t.Fatalf("last event = %T, want Launch", b.lastEvent())
	}
	if ev.Input != "3000" || ev.UseDefault {
		t.Errorf("Launch = %+v", ev)
	}
	if m.busy || !m.statusOK {
		t.Errorf("busy=%v statusOK=%v", m.busy, m.statusOK)
	}
	if !strings.Contains(m.View(), "브라우저를 열었습니다: http://localhost:3000") {
		t.Error("view missing launch status")
	}
}

func TestKeyBinding_EnterWhileBusy(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "3000")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := updated.(Model).Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("second enter dispatched while busy")
	}
}

func TestQuickPortNavigation(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "3000")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	if m.focus != focusList || m.selected != 1 {
		t.Fatalf("focus=%d selected=%d", m.focus, m.selected)
	}

	// bounded at both ends
	for i := 0; i < 5; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m = updated.(Model)
	}
	if m.selected != 2 {
		t.Errorf("selected = %d, want 2", m.selected)
	}
	for i := 0; i < 5; i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
		m = updated.(Model)
	}
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, updated.(Model), cmd)

	ev, ok := b.lastEvent().(app.QuickPort)
	if !ok || ev.Port != 8080 {
		t.Errorf("last event = %#v, want QuickPort{8080}", b.lastEvent())
	}
}

func TestTab_SwitchesFocus(t *testing.T) {
	m := NewModel(newFakeBackend(), "3000")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.focus != focusList || m.input.Focused() {
		t.Error("tab did not move focus to the list")
	}

	// typing a digit returns to the field
	updated, _ = m.Update(key("1"))
	m = updated.(Model)
	if m.focus != focusInput {
		t.Error("digit did not refocus the input")
	}
}

func TestSaveConfig(t *testing.T) {
	b := newFakeBackend()
	b.outcome = app.Outcome{Valid: true, Message: "설정이 저장되었습니다"}
	m := NewModel(b, "3000")

	updated, _ := m.Update(key("a"))
	m = updated.(Model)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, updated.(Model), cmd)

	ev, ok := b.lastEvent().(app.SaveConfig)
	if !ok {
		t.Fatalf("last event = %T, want SaveConfig", b.lastEvent())
	}
	if !ev.AutoClose || ev.UseDefaultPort {
		t.Errorf("SaveConfig = %+v", ev)
	}
	if m.status != "설정이 저장되었습니다" {
		t.Errorf("status = %q", m.status)
	}
}

func TestOutcome_Failure(t *testing.T) {
	b := newFakeBackend()
	b.outcome = app.Outcome{Err: launcher.ErrLaunchFailed, Message: "Launch failed"}
	m := NewModel(b, "3000")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, updated.(Model), cmd)

	if m.statusOK {
		t.Error("failed launch reported ok")
	}
	if m.quitting {
		t.Error("failed launch quit")
	}
}

func TestOutcome_AutoCloseQuits(t *testing.T) {
	m := NewModel(newFakeBackend(), "3000")

	updated, cmd := m.Update(outcomeMsg{
		event:   app.Launch{Input: "3000"},
		outcome: app.Outcome{Valid: true, Quit: true, QuitAfter: time.Millisecond},
	})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a quit timer")
	}
	if m.quitting {
		t.Error("quit before the delay")
	}

	updated, cmd = m.Update(quitMsg{})
	if !updated.(Model).quitting || cmd == nil {
		t.Error("quitMsg did not quit")
	}
}

func TestOutcome_RefreshesQuickPorts(t *testing.T) {
	b := newFakeBackend()
	m := NewModel(b, "3000")
	m.selected = 2

	b.quick = []uint16{4000}
	updated, _ := m.Update(outcomeMsg{event: app.QuickPort{Port: 4000}, outcome: app.Outcome{Valid: true}})
	m = updated.(Model)

	if len(m.quickPorts) != 1 || m.quickPorts[0] != 4000 {
		t.Errorf("quickPorts = %v", m.quickPorts)
	}
	if m.selected != 0 {
		t.Errorf("selected = %d, want reset to 0", m.selected)
	}
}

func TestWindowResize(t *testing.T) {
	m := NewModel(newFakeBackend(), "3000")

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	model := updated.(Model)
	if model.width != 100 || model.height != 40 {
		t.Errorf("size = %dx%d", model.width, model.height)
	}
}

func TestView_Sections(t *testing.T) {
	m := NewModel(newFakeBackend(), "3000")
	view := m.View()

	for _, want := range []string{"Port Browser", "실행", "빠른 포트", "localhost:3000", "localhost:5173", "ctrl+s", "준비"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_Quitting(t *testing.T) {
	m := NewModel(newFakeBackend(), "3000")
	m.quitting = true
	if !strings.Contains(m.View(), "closed") {
		t.Error("quit view missing")
	}
}

func TestView_NoQuickPorts(t *testing.T) {
	b := newFakeBackend()
	b.quick = nil
	m := NewModel(b, "3000")

	if !strings.Contains(m.View(), "빠른 포트 없음") {
		t.Error("empty list placeholder missing")
	}
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, updated.(Model), cmd)
	if _, ok := b.lastEvent().(app.Launch); !ok {
		t.Errorf("enter on empty list dispatched %T, want Launch", b.lastEvent())
	}
}

func TestNewStyles(t *testing.T) {
	for _, theme := range []config.Theme{config.ThemeLight, config.ThemeDark, config.ThemeSystem} {
		s := NewStyles(theme)
		if s.Header.Render("x") == "" {
			t.Errorf("%s: header renders empty", theme)
		}
	}
}

func TestIsDigits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"123", true},
		{"d", false},
		{"1a", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isDigits([]rune(tt.in)); got != tt.want {
			t.Errorf("isDigits(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewBackend(t *testing.T) {
	s := app.NewSession(config.Default(), app.WithLauncher(launcher.New(launcher.WithOpener(
		launcher.OpenerFunc(func(context.Context, string) error { return nil }),
	))))
	b := NewBackend(app.NewDispatcher(s))

	if b.Config().DefaultPort != 8080 {
		t.Errorf("DefaultPort = %d", b.Config().DefaultPort)
	}
	if len(b.QuickPorts()) == 0 {
		t.Error("QuickPorts() empty")
	}
	out := b.Dispatch(context.Background(), app.Launch{Input: "3000"})
	if out.URL != "http://localhost:3000" {
		t.Errorf("URL = %q", out.URL)
	}
}

func TestKeyBinding_AutoCloseAppliesWithoutSave(t *testing.T) {
	s := app.NewSession(config.Default(), app.WithLauncher(launcher.New(launcher.WithOpener(
		launcher.OpenerFunc(func(context.Context, string) error { return nil }),
	))))
	m := NewModel(NewBackend(app.NewDispatcher(s)), "3000")
	m.useDefault = false

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = updated.(Model)
	if !m.autoClose {
		t.Fatal("autoClose not toggled")
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	msg, ok := cmd().(outcomeMsg)
	if !ok {
		t.Fatal("enter did not dispatch")
	}
	if ev, ok := msg.event.(app.Launch); !ok || !ev.AutoClose {
		t.Errorf("event = %+v, want Launch with AutoClose", msg.event)
	}
	if !msg.outcome.Quit {
		t.Errorf("outcome = %+v, want Quit", msg.outcome)
	}
	if s.Config().AutoClose {
		t.Error("unsaved toggle leaked into the session config")
	}
}
