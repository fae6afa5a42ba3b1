package app

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/insajin/port-browser/internal/config"
	"github.com/insajin/port-browser/internal/launcher"
	"github.com/insajin/port-browser/internal/metrics"
	"github.com/insajin/port-browser/internal/security"
	"github.com/insajin/port-browser/internal/validator"
)

type fakeStore struct {
	saved *config.AppConfig
	err   error
}

func (f *fakeStore) Save(cfg *config.AppConfig) error {
	if f.err != nil {
		return f.err
	}
	f.saved = cfg
	return nil
}

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (r *recordingOpener) Open(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return r.err
}

func newTestSession(t *testing.T, cfg *config.AppConfig, opts ...Option) (*Session, *recordingOpener, *fakeStore) {
	t.Helper()
	opener := &recordingOpener{}
	store := &fakeStore{}
	m := metrics.NewMetrics()
	base := []Option{
		WithStore(store),
		WithMetrics(m),
		WithLauncher(launcher.New(launcher.WithOpener(opener), launcher.WithMetrics(m))),
	}
	return NewSession(cfg, append(base, opts...)...), opener, store
}

func TestNewSession(t *testing.T) {
	cfg := config.Default()
	s, _, _ := newTestSession(t, cfg)

	if s.ID() == "" {
		t.Error("session ID is empty")
	}
	other, _, _ := newTestSession(t, cfg)
	if other.ID() == s.ID() {
		t.Error("two sessions share an ID")
	}
	if !slices.Equal(s.RecentPorts(), cfg.RecentPorts) {
		t.Errorf("RecentPorts() = %v, want %v", s.RecentPorts(), cfg.RecentPorts)
	}

	// the session works on its own copy
	cfg.RecentPorts[0] = 1
	cfg.Security.AllowedPorts[0] = 1
	if s.RecentPorts()[0] == 1 {
		t.Error("session history aliases caller config")
	}
	if s.Policy().AllowedPorts.Contains(1) {
		t.Error("session policy aliases caller config")
	}
}

func TestNewSession_NilConfig(t *testing.T) {
	s := NewSession(nil)
	if s.Config().DefaultPort != config.Default().DefaultPort {
		t.Errorf("DefaultPort = %d", s.Config().DefaultPort)
	}
	if !s.Filter().IsAllowed("http://localhost:3000") {
		t.Error("default filter rejects localhost:3000")
	}
}

func TestSession_PolicyReadOnly(t *testing.T) {
	s, _, _ := newTestSession(t, nil, WithPolicy(security.DefaultPolicy()))

	p := s.Policy()
	p.AllowedPorts[9999] = struct{}{}
	p.StrictMode = false

	if s.Filter().IsAllowed("http://localhost:9999") {
		t.Error("mutating the returned policy changed the filter")
	}
	if !s.Policy().StrictMode {
		t.Error("mutating the returned policy changed the session")
	}
}

func TestSession_RememberPort(t *testing.T) {
	cfg := config.Default()
	cfg.RecentPorts = []uint16{3000, 8080}
	s, _, _ := newTestSession(t, cfg)

	s.RememberPort(5173)
	s.RememberPort(8080)
	s.RememberPort(0)

	want := []uint16{8080, 5173, 3000}
	if got := s.RecentPorts(); !slices.Equal(got, want) {
		t.Errorf("RecentPorts() = %v, want %v", got, want)
	}
}

func TestSession_RememberPortCap(t *testing.T) {
	cfg := config.Default()
	cfg.RecentPorts = nil
	s, _, _ := newTestSession(t, cfg)

	for p := uint16(1); p <= 15; p++ {
		s.RememberPort(p)
	}

	got := s.RecentPorts()
	if len(got) != maxRecentPorts {
		t.Fatalf("len = %d, want %d", len(got), maxRecentPorts)
	}
	if got[0] != 15 || got[maxRecentPorts-1] != 6 {
		t.Errorf("RecentPorts() = %v", got)
	}
}

func TestSession_QuickPorts(t *testing.T) {
	cfg := config.Default()
	cfg.RecentPorts = []uint16{9999}
	s, _, _ := newTestSession(t, cfg)

	quick := s.QuickPorts()
	if quick[0] != 9999 {
		t.Errorf("QuickPorts()[0] = %d, want 9999", quick[0])
	}
	if !slices.Contains(quick, 3000) {
		t.Errorf("QuickPorts() = %v, missing common port 3000", quick)
	}
}

func TestDispatch_ValidateInput(t *testing.T) {
	s, opener, _ := newTestSession(t, nil)
	d := NewDispatcher(s)

	tests := []struct {
		input   string
		valid   bool
		wantErr error
	}{
		{"3000", true, nil},
		{"  8080 ", true, nil},
		{"", false, validator.ErrEmpty},
		{"abc", false, validator.ErrNotNumber},
		{"0", false, validator.ErrZeroNotAllowed},
		{"70000", false, validator.ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := d.Dispatch(context.Background(), ValidateInput{Input: tt.input})
			if out.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", out.Valid, tt.valid)
			}
			if tt.wantErr != nil && !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", out.Err, tt.wantErr)
			}
			if out.Message == "" {
				t.Error("Message is empty")
			}
		})
	}

	if len(opener.urls) != 0 {
		t.Errorf("validation launched a browser: %v", opener.urls)
	}
}

func TestDispatch_Launch(t *testing.T) {
	cfg := config.Default()
	cfg.RecentPorts = nil
	s, opener, _ := newTestSession(t, cfg)
	d := NewDispatcher(s)

	out := d.Dispatch(context.Background(), Launch{Input: " 5173 "})
	if !out.Valid || out.Err != nil {
		t.Fatalf("Launch outcome = %+v", out)
	}
	if out.URL != "http://localhost:5173" {
		t.Errorf("URL = %q", out.URL)
	}
	if out.Quit {
		t.Error("Quit set without auto_close")
	}
	if !slices.Equal(opener.urls, []string{"http://localhost:5173"}) {
		t.Errorf("opened = %v", opener.urls)
	}
	if !slices.Equal(s.RecentPorts(), []uint16{5173}) {
		t.Errorf("RecentPorts() = %v", s.RecentPorts())
	}
}

func TestDispatch_LaunchInvalid(t *testing.T) {
	s, opener, _ := newTestSession(t, nil)
	d := NewDispatcher(s)

	out := d.Dispatch(context.Background(), Launch{Input: "99999"})
	if out.Valid {
		t.Error("invalid input reported valid")
	}
	if !errors.Is(out.Err, validator.ErrOutOfRange) {
		t.Errorf("Err = %v", out.Err)
	}
	if len(opener.urls) != 0 {
		t.Errorf("opened = %v", opener.urls)
	}
	if s.Metrics().ValidationFailures.Load() != 1 {
		t.Errorf("ValidationFailures = %d", s.Metrics().ValidationFailures.Load())
	}
}

func TestDispatch_LaunchDefault(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultPort = 4200
	cfg.RecentPorts = nil
	s, opener, _ := newTestSession(t, cfg)
	d := NewDispatcher(s)

	out := d.Dispatch(context.Background(), Launch{Input: "garbage", UseDefault: true})
	if !out.Valid {
		t.Fatalf("outcome = %+v", out)
	}
	if out.URL != "http://localhost:4200" {
		t.Errorf("URL = %q", out.URL)
	}
	if len(opener.urls) != 1 {
		t.Errorf("opened = %v", opener.urls)
	}
	if len(s.RecentPorts()) != 0 {
		t.Errorf("default launch changed history: %v", s.RecentPorts())
	}
}

func TestDispatch_LaunchHTTPS(t *testing.T) {
	s, _, _ := newTestSession(t, nil, WithHTTPS(true))
	out := NewDispatcher(s).Dispatch(context.Background(), Launch{Input: "8443"})
	if out.URL != "https://localhost:8443" {
		t.Errorf("URL = %q", out.URL)
	}
}

func TestDispatch_LaunchFailure(t *testing.T) {
	s, opener, _ := newTestSession(t, nil)
	opener.err = errors.New("no display")
	d := NewDispatcher(s)

	out := d.Dispatch(context.Background(), Launch{Input: "3000"})
	if out.Valid || out.Quit {
		t.Errorf("outcome = %+v", out)
	}
	if !errors.Is(out.Err, launcher.ErrLaunchFailed) {
		t.Errorf("Err = %v", out.Err)
	}
}

func TestDispatch_AutoClose(t *testing.T) {
	s, opener, _ := newTestSession(t, nil)
	d := NewDispatcher(s)

	out := d.Dispatch(context.Background(), Launch{Input: "3000", AutoClose: true})
	if !out.Quit || out.QuitAfter != AutoCloseDelay {
		t.Errorf("outcome = %+v, want quit after %v", out, AutoCloseDelay)
	}

	out = d.Dispatch(context.Background(), QuickPort{Port: 8080, AutoClose: true})
	if !out.Quit {
		t.Errorf("quick port outcome = %+v, want quit", out)
	}

	opener.err = errors.New("boom")
	out = d.Dispatch(context.Background(), Launch{Input: "3000", AutoClose: true})
	if out.Quit {
		t.Error("Quit set after failed launch")
	}
}

func TestDispatch_AutoCloseFollowsEvent(t *testing.T) {
	cfg := config.Default()
	cfg.AutoClose = true
	s, _, _ := newTestSession(t, cfg)
	d := NewDispatcher(s)

	// The saved setting does not override the toggle the front-end sent.
	out := d.Dispatch(context.Background(), Launch{Input: "3000"})
	if !out.Valid || out.Quit {
		t.Errorf("outcome = %+v, want launch without quit", out)
	}
}

func TestDispatch_QuickPort(t *testing.T) {
	cfg := config.Default()
	cfg.RecentPorts = []uint16{3000}
	s, opener, _ := newTestSession(t, cfg)
	d := NewDispatcher(s)

	out := d.Dispatch(context.Background(), QuickPort{Port: 8000})
	if !out.Valid || out.URL != "http://localhost:8000" {
		t.Errorf("outcome = %+v", out)
	}
	if !slices.Equal(s.RecentPorts(), []uint16{8000, 3000}) {
		t.Errorf("RecentPorts() = %v", s.RecentPorts())
	}

	out = d.Dispatch(context.Background(), QuickPort{Port: 0})
	if !errors.Is(out.Err, launcher.ErrInvalidPort) {
		t.Errorf("Err = %v, want ErrInvalidPort", out.Err)
	}
	if len(opener.urls) != 1 {
		t.Errorf("opened = %v", opener.urls)
	}
}

func TestDispatch_SaveConfig(t *testing.T) {
	cfg := config.Default()
	cfg.RecentPorts = nil
	s, _, store := newTestSession(t, cfg)
	d := NewDispatcher(s)

	d.Dispatch(context.Background(), Launch{Input: "4000"})
	out := d.Dispatch(context.Background(), SaveConfig{UseDefaultPort: false, AutoClose: true})
	if !out.Valid || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if store.saved == nil {
		t.Fatal("store not called")
	}
	if store.saved.UseDefaultPort || !store.saved.AutoClose {
		t.Errorf("saved toggles = %v/%v", store.saved.UseDefaultPort, store.saved.AutoClose)
	}
	if !slices.Equal(store.saved.RecentPorts, []uint16{4000}) {
		t.Errorf("saved RecentPorts = %v", store.saved.RecentPorts)
	}
	if !s.Config().AutoClose {
		t.Error("session config not updated")
	}
}

func TestDispatch_SaveConfigError(t *testing.T) {
	s, _, store := newTestSession(t, nil)
	store.err = errors.New("disk full")

	out := NewDispatcher(s).Dispatch(context.Background(), SaveConfig{})
	if out.Valid || out.Err == nil {
		t.Errorf("outcome = %+v", out)
	}
}

func TestDispatch_SaveConfigNoStore(t *testing.T) {
	s := NewSession(nil, WithLauncher(launcher.New(launcher.WithOpener(&recordingOpener{}))))
	out := NewDispatcher(s).Dispatch(context.Background(), SaveConfig{})
	if out.Err == nil {
		t.Error("expected error without store")
	}
}

func TestDispatch_Resize(t *testing.T) {
	s, _, _ := newTestSession(t, nil)
	d := NewDispatcher(s)

	d.Dispatch(context.Background(), Resize{Width: 800, Height: 600})
	if c := s.Config(); c.WindowWidth != 800 || c.WindowHeight != 600 {
		t.Errorf("window = %dx%d", c.WindowWidth, c.WindowHeight)
	}

	d.Dispatch(context.Background(), Resize{Width: 0, Height: 600})
	if c := s.Config(); c.WindowWidth != 800 {
		t.Errorf("zero width applied: %d", c.WindowWidth)
	}
}

func TestDispatcher_Handle(t *testing.T) {
	s, opener, _ := newTestSession(t, nil)
	d := NewDispatcher(s)

	d.Handle(Launch{}, func(_ context.Context, got *Session, ev Event) Outcome {
		if got != s {
			t.Error("handler received a different session")
		}
		return Outcome{Message: "intercepted " + ev.(Launch).Input}
	})

	out := d.Dispatch(context.Background(), Launch{Input: "3000"})
	if out.Message != "intercepted 3000" {
		t.Errorf("Message = %q", out.Message)
	}
	if len(opener.urls) != 0 {
		t.Errorf("default handler ran: %v", opener.urls)
	}
}

func TestDispatch_Concurrent(t *testing.T) {
	s, opener, _ := newTestSession(t, nil)
	d := NewDispatcher(s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Dispatch(context.Background(), QuickPort{Port: uint16(3000 + i)})
		}(i)
	}
	wg.Wait()

	if len(opener.urls) != 20 {
		t.Errorf("opened %d URLs, want 20", len(opener.urls))
	}
	if len(s.RecentPorts()) != maxRecentPorts {
		t.Errorf("len(RecentPorts()) = %d", len(s.RecentPorts()))
	}
}
