// Package launcher opens http(s)://localhost:<port> in a browser.
package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/insajin/port-browser/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrInvalidPort is returned for port 0.
var ErrInvalidPort = errors.New("invalid port: 0")

// ErrLaunchFailed matches every *LaunchError.
var ErrLaunchFailed = errors.New("launch failed")

// LaunchError wraps a failure reported by the Opener.
type LaunchError struct {
	URL string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.URL, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLaunchFailed) true for any LaunchError.
func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunchFailed
}

// Opener hands a URL to something that can display it.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f(ctx, url).
func (f OpenerFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Result is the outcome of launching one port in a batch.
type Result struct {
	Port uint16
	URL  string
	Err  error
}

// OK reports whether the launch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Launcher builds localhost URLs and delegates them to an Opener.
type Launcher struct {
	opener  Opener
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithOpener sets the Opener. The default is SystemOpener.
func WithOpener(o Opener) Option {
	return func(l *Launcher) {
		l.opener = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Launcher) {
		l.metrics = m
	}
}

// New creates a Launcher.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.opener == nil {
		l.opener = SystemOpener()
	}
	if l.metrics == nil {
		l.metrics = metrics.NewMetrics()
	}
	return l
}

// Metrics returns the metrics sink used by the launcher.
func (l *Launcher) Metrics() *metrics.Metrics {
	return l.metrics
}

// FormatURL returns http://localhost:<port>, or https when https is set.
func FormatURL(port uint16, https bool) string {
	scheme := "http"
	if https {
		scheme = "https"
	}
	return fmt.Sprintf("%s://localhost:%d", scheme, port)
}

// Launch opens http://localhost:<port> and returns the URL.
func (l *Launcher) Launch(ctx context.Context, port uint16) (string, error) {
	return l.launch(ctx, port, false)
}

// LaunchHTTPS opens https://localhost:<port> and returns the URL.
func (l *Launcher) LaunchHTTPS(ctx context.Context, port uint16) (string, error) {
	return l.launch(ctx, port, true)
}

// LaunchMultiple launches every port in order. A failure does not stop the
// remaining launches.
func (l *Launcher) LaunchMultiple(ctx context.Context, ports []uint16) []Result {
	results := make([]Result, 0, len(ports))
	for _, port := range ports {
		url, err := l.Launch(ctx, port)
		results = append(results, Result{Port: port, URL: url, Err: err})
	}
	return results
}

func (l *Launcher) launch(ctx context.Context, port uint16, https bool) (string, error) {
	if port == 0 {
		l.metrics.RecordLaunch(ErrInvalidPort)
		return "", ErrInvalidPort
	}

	url := FormatURL(port, https)
	if err := l.opener.Open(ctx, url); err != nil {
		lerr := &LaunchError{URL: url, Err: err}
		l.metrics.RecordLaunch(lerr)
		l.logger.Error().Err(err).Str("url", url).Msg("launch failed")
		return "", lerr
	}

	l.metrics.RecordLaunch(nil)
	l.logger.Info().Str("url", url).Msg("browser launched")
	return url, nil
}
