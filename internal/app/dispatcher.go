package app

import (
	"context"
	"fmt"
	"time"

	"github.com/insajin/port-browser/internal/config"
	"github.com/insajin/port-browser/internal/validator"
)

// AutoCloseDelay is how long after a successful launch auto_close quits.
const AutoCloseDelay = time.Second

// Event is an input from a front-end.
type Event interface {
	event()
}

// ValidateInput checks a port string without launching.
type ValidateInput struct {
	Input string
}

// Launch opens the browser for Input, or for the default port when
// UseDefault is set. AutoClose is the front-end's current toggle, saved or not.
type Launch struct {
	Input      string
	UseDefault bool
	AutoClose  bool
}

// QuickPort launches a port picked from the quick-port list.
type QuickPort struct {
	Port      uint16
	AutoClose bool
}

// SaveConfig stores the front-end toggles and writes the configuration.
type SaveConfig struct {
	UseDefaultPort bool
	AutoClose      bool
}

// Resize records a new window size.
type Resize struct {
	Width  uint32
	Height uint32
}

func (ValidateInput) event() {}
func (Launch) event()        {}
func (QuickPort) event()     {}
func (SaveConfig) event()    {}
func (Resize) event()        {}

// Outcome is what a front-end shows after an event.
type Outcome struct {
	// Valid is set when the input or launch succeeded.
	Valid   bool
	Message string
	// URL is the opened address after a successful launch.
	URL string
	Err error
	// Quit asks the front-end to exit after QuitAfter.
	Quit      bool
	QuitAfter time.Duration
}

// Handler processes one event against a session.
type Handler func(ctx context.Context, s *Session, ev Event) Outcome

// Dispatcher routes events to handlers.
type Dispatcher struct {
	session  *Session
	handlers map[string]Handler
}

// NewDispatcher creates a Dispatcher with the default handlers.
func NewDispatcher(s *Session) *Dispatcher {
	return &Dispatcher{
		session: s,
		handlers: map[string]Handler{
			kindOf(ValidateInput{}): handleValidate,
			kindOf(Launch{}):        handleLaunch,
			kindOf(QuickPort{}):     handleQuickPort,
			kindOf(SaveConfig{}):    handleSaveConfig,
			kindOf(Resize{}):        handleResize,
		},
	}
}

// Handle replaces the handler for events of the same type as ev.
func (d *Dispatcher) Handle(ev Event, h Handler) {
	d.handlers[kindOf(ev)] = h
}

// Session returns the session the dispatcher drives.
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Dispatch runs the handler registered for ev.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) Outcome {
	h, ok := d.handlers[kindOf(ev)]
	if !ok {
		return Outcome{Err: fmt.Errorf("unhandled event %T", ev), Message: "지원하지 않는 동작입니다"}
	}
	return h(ctx, d.session, ev)
}

func kindOf(ev Event) string {
	return fmt.Sprintf("%T", ev)
}

func handleValidate(_ context.Context, s *Session, ev Event) Outcome {
	in := ev.(ValidateInput)
	port, err := validator.ValidatePort(in.Input)
	if err != nil {
		return Outcome{Err: err, Message: err.Error()}
	}
	return Outcome{Valid: true, Message: fmt.Sprintf("사용 가능한 포트: %d", port)}
}

func handleLaunch(ctx context.Context, s *Session, ev Event) Outcome {
	in := ev.(Launch)

	var port uint16
	if in.UseDefault {
		port = s.Config().DefaultPort
	} else {
		p, err := validator.ValidatePort(in.Input)
		if err != nil {
			s.metrics.ValidationFailures.Add(1)
			s.logger.Debug().Err(err).Str("input", in.Input).Msg("invalid port input")
			return Outcome{Err: err, Message: err.Error()}
		}
		port = uint16(p)
		s.RememberPort(port)
	}

	return launchPort(ctx, s, port, in.AutoClose)
}

func handleQuickPort(ctx context.Context, s *Session, ev Event) Outcome {
	in := ev.(QuickPort)
	if in.Port != 0 {
		s.RememberPort(in.Port)
	}
	return launchPort(ctx, s, in.Port, in.AutoClose)
}

func handleSaveConfig(_ context.Context, s *Session, ev Event) Outcome {
	in := ev.(SaveConfig)
	s.update(func(cfg *config.AppConfig) {
		cfg.UseDefaultPort = in.UseDefaultPort
		cfg.AutoClose = in.AutoClose
	})

	if err := s.save(); err != nil {
		s.logger.Error().Err(err).Msg("failed to save config")
		return Outcome{Err: err, Message: "설정 저장 실패: " + err.Error()}
	}
	s.logger.Info().Msg("config saved")
	return Outcome{Valid: true, Message: "설정이 저장되었습니다"}
}

func handleResize(_ context.Context, s *Session, ev Event) Outcome {
	in := ev.(Resize)
	if in.Width == 0 || in.Height == 0 {
		return Outcome{}
	}
	s.update(func(cfg *config.AppConfig) {
		cfg.WindowWidth = in.Width
		cfg.WindowHeight = in.Height
	})
	return Outcome{Valid: true}
}

func launchPort(ctx context.Context, s *Session, port uint16, autoClose bool) Outcome {
	url, err := s.Launch(ctx, port)
	if err != nil {
		return Outcome{Err: err, Message: "실행 실패: " + err.Error()}
	}

	out := Outcome{Valid: true, URL: url, Message: "브라우저를 열었습니다: " + url}
	if autoClose {
		out.Quit = true
		out.QuitAfter = AutoCloseDelay
	}
	return out
}
