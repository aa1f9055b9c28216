// Package livesync keeps a rendered dashboard in step with the crawler
// backend: seed pulls over REST, a reconnecting push channel, and actions
// that trigger a re-pull.
//
// All rendering happens on the controller's event loop. Network work runs
// on its own goroutines and posts its result back to the loop, so render
// passes never interleave. Pulls and pushes are not ordered against each
// other; whichever completes last wins.
package livesync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"crawldash/internal/metrics"
	"crawldash/internal/models"
)

// ErrAlreadyRunning is returned by a second concurrent Run.
var ErrAlreadyRunning = errors.New("livesync: controller already running")

const eventBuffer = 64

// Backend is the REST surface the controller pulls from and acts on.
// *backend.Client implements it.
type Backend interface {
	Stats(ctx context.Context) (models.DashboardStats, error)
	Crawls(ctx context.Context) ([]models.CrawlSummary, error)
	CreateCrawl(ctx context.Context, req models.CreateCrawlRequest) (models.CreateCrawlResult, error)
	StopCrawl(ctx context.Context, id models.CrawlID) error
}

// AfterFunc schedules f after d. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func())

// Controller is the live sync controller for one dashboard.
type Controller struct {
	id        string
	backend   Backend
	view      Renderer
	dialer    Dialer
	pushURL   string
	logger    *slog.Logger
	metrics   *metrics.Collectors
	afterFunc AfterFunc

	events  chan func()
	state   atomic.Int32
	running atomic.Bool

	mu        sync.RWMutex
	runCtx    context.Context
	timeRange models.TimeRange
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records push and connection metrics.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithAfterFunc replaces the reconnect timer.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// WithID sets the controller id. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.id = id
		}
	}
}

// New returns a stopped controller. pushURL is the push channel endpoint,
// normally backend.Client.PushURL().
func New(backend Backend, view Renderer, dialer Dialer, pushURL string, opts ...Option) *Controller {
	c := &Controller{
		id:      uuid.NewString(),
		backend: backend,
		view:    view,
		dialer:  dialer,
		pushURL: pushURL,
		logger:  slog.Default(),
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		events:    make(chan func(), eventBuffer),
		timeRange: models.TimeRangeDay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("controller", c.id)
	c.setState(StateDisconnected)
	return c
}

// ID identifies this controller instance.
func (c *Controller) ID() string {
	return c.id
}

// State reports the push channel state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Running reports whether Run is active.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Run seeds the view, opens the push channel and processes events until
// ctx is cancelled. Cancelling ctx closes the channel and stops reconnects.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.runCtx = nil
		c.mu.Unlock()
	}()

	defer c.drain()

	c.logger.Info("live sync starting", "push_url", c.pushURL)
	c.refresh(ctx)
	go c.connect(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("live sync stopped")
			return ctx.Err()
		case fn := <-c.events:
			fn()
		}
	}
}

// refresh pulls stats, then the crawl list. A failed stats pull skips the
// crawl pull; neither is retried.
func (c *Controller) refresh(ctx context.Context) {
	go func() {
		stats, err := c.backend.Stats(ctx)
		if err != nil {
			c.logPullFailure(ctx, err)
			return
		}
		c.post(ctx, func() { c.view.RenderStats(stats) })

		crawls, err := c.backend.Crawls(ctx)
		if err != nil {
			c.logPullFailure(ctx, err)
			return
		}
		c.post(ctx, func() { c.view.RenderCrawlList(crawls) })
	}()
}

func (c *Controller) logPullFailure(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	c.logger.Error("failed to load dashboard data", "error", err)
}

// post queues fn on the event loop. It gives up once ctx is done, and fn is
// skipped if ctx ends before the loop reaches it.
func (c *Controller) post(ctx context.Context, fn func()) {
	event := func() {
		if ctx.Err() == nil {
			fn()
		}
	}
	select {
	case c.events <- event:
	case <-ctx.Done():
	}
}

// drain discards events still queued when a run ends.
func (c *Controller) drain() {
	for {
		select {
		case <-c.events:
		default:
			return
		}
	}
}

func (c *Controller) context() (context.Context, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.runCtx == nil || c.runCtx.Err() != nil {
		return nil, false
	}
	return c.runCtx, true
}
