// Package app holds the per-run state of Port Browser and the event
// dispatcher front-ends drive it with.
package app

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/insajin/port-browser/internal/config"
	"github.com/insajin/port-browser/internal/launcher"
	"github.com/insajin/port-browser/internal/logger"
	"github.com/insajin/port-browser/internal/metrics"
	"github.com/insajin/port-browser/internal/security"
	"github.com/rs/zerolog"
)

// maxRecentPorts caps the in-session history.
const maxRecentPorts = 10

// Store is the subset of config.Store a Session persists through.
type Store interface {
	Save(cfg *config.AppConfig) error
}

// Session owns everything one run of the application needs. The security
// policy is fixed when the session is created.
type Session struct {
	id       string
	store    Store
	policy   security.Policy
	filter   *security.Filter
	launcher *launcher.Launcher
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	https    bool

	mu     sync.Mutex
	cfg    *config.AppConfig
	recent []uint16
}

// Option configures a Session.
type Option func(*Session)

// WithStore sets where SaveConfig writes. Without a store saving fails.
func WithStore(store Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithLauncher sets the launcher. The default opens the system browser.
func WithLauncher(l *launcher.Launcher) Option {
	return func(s *Session) {
		s.launcher = l
	}
}

// WithLogger sets the base logger; the session ID is added to it.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithHTTPS makes launches use https://.
func WithHTTPS(https bool) Option {
	return func(s *Session) {
		s.https = https
	}
}

// WithPolicy overrides the policy derived from cfg.Security.
func WithPolicy(p security.Policy) Option {
	return func(s *Session) {
		s.policy = p.Clone()
	}
}

// NewSession creates a Session from cfg. cfg is copied.
func NewSession(cfg *config.AppConfig, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	own := *cfg
	own.RecentPorts = slices.Clone(cfg.RecentPorts)
	own.Security.AllowedPorts = slices.Clone(cfg.Security.AllowedPorts)

	s := &Session{
		id:     uuid.New().String(),
		cfg:    &own,
		policy: own.Security.Policy(),
		logger: zerolog.Nop(),
		recent: slices.Clone(own.RecentPorts),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = logger.WithSession(s.logger, s.id)
	if s.metrics == nil && s.launcher != nil {
		s.metrics = s.launcher.Metrics()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	if s.launcher == nil {
		s.launcher = launcher.New(launcher.WithLogger(s.logger), launcher.WithMetrics(s.metrics))
	}
	s.filter = security.NewFilter(s.policy)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Policy returns a copy of the session's security policy.
func (s *Session) Policy() security.Policy {
	return s.policy.Clone()
}

// Filter returns the filter bound to the session policy.
func (s *Session) Filter() *security.Filter {
	return s.filter
}

// Metrics returns the session metrics.
func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

// Logger returns the session logger.
func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// Config returns a copy of the current configuration with the session
// history as its recent ports.
func (s *Session) Config() *config.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RecentPorts returns the history, most recent first.
func (s *Session) RecentPorts() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recent)
}

// QuickPorts returns the history followed by common development ports.
func (s *Session) QuickPorts() []uint16 {
	return s.Config().QuickPorts()
}

// RememberPort moves port to the front of the history.
func (s *Session) RememberPort(port uint16) {
	if port == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = slices.DeleteFunc(s.recent, func(p uint16) bool { return p == port })
	s.recent = slices.Insert(s.recent, 0, port)
	if len(s.recent) > maxRecentPorts {
		s.recent = s.recent[:maxRecentPorts]
	}
}

// Launch opens the browser for port using the session launcher.
func (s *Session) Launch(ctx context.Context, port uint16) (string, error) {
	if s.https {
		return s.launcher.LaunchHTTPS(ctx, port)
	}
	return s.launcher.Launch(ctx, port)
}

// update applies fn to the configuration under the lock.
func (s *Session) update(fn func(cfg *config.AppConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cfg)
}

// save persists the current configuration.
func (s *Session) save() error {
	if s.store == nil {
		return fmt.Errorf("no config store")
	}
	return s.store.Save(s.Config())
}

func (s *Session) snapshotLocked() *config.AppConfig {
	c := *s.cfg
	c.RecentPorts = slices.Clone(s.recent)
	c.Security.AllowedPorts = slices.Clone(s.cfg.Security.AllowedPorts)
	return &c
}
