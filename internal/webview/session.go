// Package webview runs an embedded Chrome window whose top-level navigations
// are gated by the security filter. Pages opened later by the window
// (window.open, target=_blank, a new tab) are gated the same way.
package webview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/insajin/port-browser/internal/metrics"
	"github.com/insajin/port-browser/internal/security"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyOpen is returned by Open when the window is already running.
	ErrAlreadyOpen = errors.New("webview is already open")
	// ErrNotOpen is returned by Wait before Open has succeeded.
	ErrNotOpen = errors.New("webview is not open")
	// ErrBlocked is returned by Open when the initial URL fails the filter.
	ErrBlocked = errors.New("navigation blocked by security policy")
)

// Options controls the Chrome window.
type Options struct {
	Width    int
	Height   int
	DevTools bool
	Headless bool
	// ExecPath overrides Chrome discovery.
	ExecPath string
}

// documentPatterns pauses every top-level document request.
var documentPatterns = []*fetch.RequestPattern{{
	URLPattern:   "*",
	ResourceType: network.ResourceTypeDocument,
}}

// Session manages a single embedded Chrome window. It can be opened again
// after Close.
type Session struct {
	filter  *security.Filter
	metrics *metrics.Metrics
	logger  zerolog.Logger
	opts    Options

	// allocCtx and allocCancel control the browser process lifecycle.
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// taskCtx and taskCancel control the page target lifecycle.
	taskCtx    context.Context
	taskCancel context.CancelFunc

	// closed is replaced on every Open; markClose closes the current one.
	closed    chan struct{}
	markClose func()

	active bool
	mu     sync.Mutex

	// pages holds the cancel funcs of secondary page targets being guarded.
	pages   map[target.ID]context.CancelFunc
	pagesMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink for navigation decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New creates a Session that enforces filter on every document navigation.
func New(filter *security.Filter, opts Options, options ...Option) *Session {
	s := &Session{
		filter: filter,
		logger: zerolog.Nop(),
		opts:   opts,
		pages:  make(map[target.ID]context.CancelFunc),
	}
	s.resetClosed()
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	return s
}

// Open starts Chrome and navigates to url. It implements launcher.Opener.
func (s *Session) Open(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrAlreadyOpen
	}
	// An allowed URL is counted when its document request is paused.
	start := time.Now()
	if d := s.evaluate(url); !d.Allowed {
		s.metrics.RecordNavigation(false, time.Since(start))
		return fmt.Errorf("%w: %s", ErrBlocked, url)
	}

	markClosed := s.resetClosed()
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	s.taskCtx, s.taskCancel = chromedp.NewContext(s.allocCtx)
	s.listenPage(s.taskCtx)

	// Start the browser on about:blank so the target exists before the
	// fetch domain is enabled.
	if err := chromedp.Run(s.taskCtx, chromedp.Navigate("about:blank")); err != nil {
		s.cancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	taskCtx := s.taskCtx
	pageID := chromedp.FromContext(taskCtx).Target.TargetID
	chromedp.ListenBrowser(taskCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *target.EventTargetCreated:
			if info := ev.TargetInfo; info.Type == "page" && info.TargetID != pageID {
				go s.guardPage(taskCtx, info)
			}
		case *target.EventTargetInfoChanged:
			if info := ev.TargetInfo; info.Type == "page" && info.TargetID != pageID {
				go s.checkPage(taskCtx, info)
			}
		case *target.EventTargetDestroyed:
			if ev.TargetID == pageID {
				markClosed()
			} else {
				s.releasePage(ev.TargetID)
			}
		}
	})

	if err := chromedp.Run(s.taskCtx,
		fetch.Enable().WithPatterns(documentPatterns),
		chromedp.Navigate(url),
	); err != nil {
		s.cancel()
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	s.active = true
	s.logger.Info().
		Str("url", url).
		Int("width", s.opts.Width).
		Int("height", s.opts.Height).
		Bool("devtools", s.opts.DevTools).
		Msg("webview opened")
	return nil
}

// Wait blocks until the window is closed, the browser exits or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNotOpen
	}
	browserDone := s.allocCtx.Done()
	closed := s.closed
	s.mu.Unlock()

	select {
	case <-closed:
		return nil
	case <-browserDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the browser process and releases resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.active = false
	s.cancel()
	s.markClose()

	s.pagesMu.Lock()
	clear(s.pages)
	s.pagesMu.Unlock()

	s.logger.Info().Msg("webview closed")
	return nil
}

// Reload reloads the main page. The reload goes through the filter like any
// other navigation.
func (s *Session) Reload(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

// ClearCache clears the browser cache.
func (s *Session) ClearCache(ctx context.Context) error {
	return s.run(ctx, network.ClearBrowserCache())
}

// run executes actions on the main page, stopping early when ctx is done.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNotOpen
	}
	runCtx, cancel := context.WithCancel(s.taskCtx)
	s.mu.Unlock()
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// IsActive reports whether the window is running.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
	)
	if s.opts.Width > 0 && s.opts.Height > 0 {
		opts = append(opts, chromedp.WindowSize(s.opts.Width, s.opts.Height))
	}
	if s.opts.DevTools {
		opts = append(opts, chromedp.Flag("auto-open-devtools-for-tabs", true))
	}
	if s.opts.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if s.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.opts.ExecPath))
	}
	return opts
}

// listenPage forwards paused requests of the page behind tabCtx.
func (s *Session) listenPage(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if paused, ok := ev.(*fetch.EventRequestPaused); ok {
			// CDP calls must not run on the event goroutine.
			go s.handlePaused(tabCtx, paused)
		}
	})
}

// guardPage attaches to a page the window opened and enables interception on
// it. A page whose first URL is already known and denied is closed instead.
func (s *Session) guardPage(taskCtx context.Context, info *target.Info) {
	if !isBlank(info.URL) && !s.decide(info.URL) {
		s.closeTarget(taskCtx, info.TargetID)
		return
	}

	tabCtx, cancel := chromedp.NewContext(taskCtx, chromedp.WithTargetID(info.TargetID))
	s.listenPage(tabCtx)
	if err := chromedp.Run(tabCtx, fetch.Enable().WithPatterns(documentPatterns)); err != nil {
		cancel()
		if taskCtx.Err() == nil {
			s.logger.Warn().Err(err).Str("target", string(info.TargetID)).Msg("failed to guard new page, closing it")
			s.closeTarget(taskCtx, info.TargetID)
		}
		return
	}

	s.pagesMu.Lock()
	s.pages[info.TargetID] = cancel
	s.pagesMu.Unlock()
	s.logger.Debug().Str("target", string(info.TargetID)).Str("url", info.URL).Msg("guarding new page")
}

// checkPage closes a secondary page whose committed URL fails the filter.
// It catches a navigation that started before interception was enabled.
func (s *Session) checkPage(taskCtx context.Context, info *target.Info) {
	if isBlank(info.URL) || s.filter.IsAllowed(info.URL) {
		return
	}
	s.logger.Warn().Str("url", info.URL).Str("target", string(info.TargetID)).Msg("closing page on denied URL")
	s.closeTarget(taskCtx, info.TargetID)
}

func (s *Session) releasePage(id target.ID) {
	s.pagesMu.Lock()
	cancel, ok := s.pages[id]
	delete(s.pages, id)
	s.pagesMu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Session) closeTarget(taskCtx context.Context, id target.ID) {
	c := chromedp.FromContext(taskCtx)
	if c == nil || c.Browser == nil {
		return
	}
	ctx := cdp.WithExecutor(taskCtx, c.Browser)
	if err := target.CloseTarget(id).Do(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Str("target", string(id)).Msg("failed to close page")
	}
}

// isBlank reports whether a new page has not navigated anywhere yet.
func isBlank(url string) bool {
	return url == "" || url == "about:blank"
}

// handlePaused continues or fails one intercepted document request.
func (s *Session) handlePaused(tabCtx context.Context, ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		return
	}
	ctx := cdp.WithExecutor(tabCtx, c.Target)

	url := ev.Request.URL + ev.Request.URLFragment
	var err error
	if s.decide(url) {
		err = fetch.ContinueRequest(ev.RequestID).Do(ctx)
	} else {
		err = fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(ctx)
	}
	if err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("failed to resolve paused request")
	}
}

// decide evaluates url and records the decision.
func (s *Session) decide(url string) bool {
	start := time.Now()
	d := s.evaluate(url)
	s.metrics.RecordNavigation(d.Allowed, time.Since(start))
	return d.Allowed
}

// evaluate runs the filter and logs the decision.
func (s *Session) evaluate(url string) security.Decision {
	d := s.filter.Evaluate(url)
	if d.Allowed {
		s.logger.Debug().Str("url", url).Msg("navigation allowed")
	} else {
		s.logger.Warn().
			Str("url", url).
			Str("reason", string(d.Reason)).
			Str("host", d.Host).
			Msg("navigation denied")
	}
	return d
}

// cancel tears down contexts in reverse order. Callers hold s.mu.
func (s *Session) cancel() {
	if s.taskCancel != nil {
		s.taskCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// resetClosed installs a fresh closed channel and returns the func that
// closes it. Listeners of an earlier window keep their own func, so they
// cannot close the new channel.
func (s *Session) resetClosed() func() {
	ch := make(chan struct{})
	s.closed = ch
	s.markClose = sync.OnceFunc(func() { close(ch) })
	return s.markClose
}
