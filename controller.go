package refreshkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrConfiguration marks fetch errors caused by the widget's own
// configuration rather than the backend (for example a required owner
// query parameter with no value).
//
// A configuration error is surfaced once through the error callback and
// stops polling: retrying cannot succeed until the caller reconfigures and
// calls [Controller.Start] again. The controller itself remains valid.
var ErrConfiguration = errors.New("configuration error")

// Fetcher retrieves the current remote resource list for one widget.
//
// Fetch must honor context cancellation: the controller cancels the context
// on timeout and on [Controller.Close]. Implementations may retry transient
// transport errors internally, but one Fetch call counts as exactly one
// poll attempt.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entity, error)
}

// FetcherFunc adapts a plain function to the [Fetcher] interface.
type FetcherFunc func(ctx context.Context) ([]Entity, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) ([]Entity, error) {
	return f(ctx)
}

// Controller is the adaptive polling state machine behind one widget.
//
// A Controller decides when to fetch the widget's resource list, detects
// whether the result changed, and adjusts its cadence from observed
// pending-work state and failure history. It guarantees at most one fetch in
// flight at a time and fires its callbacks from a single logical thread of
// control, never concurrently with themselves.
//
// Each widget mount owns its own Controller instance; controllers share no
// state with each other. Create one with [NewController], start it with
// [Controller.Start], and tear it down with [Controller.Close]:
//
//	ctrl, err := refreshkit.NewController(fetcher,
//	    refreshkit.WithOnData(func(entities []refreshkit.Entity) { render(entities) }),
//	    refreshkit.WithOnEntityReady(func(id string, e refreshkit.Entity) { notify(id) }),
//	)
//	if err != nil {
//	    return err
//	}
//	ctrl.Start()
//	defer ctrl.Close()
//
// The cadence rules, in priority order after each tick:
//
//  1. pending work observed on a successful fetch -> the short active interval
//  2. consecutive failures -> min(base * multiplier^failures, max)
//  3. otherwise -> the base interval
type Controller struct {
	fetcher Fetcher
	tuning  Tuning
	logger  *slog.Logger

	onData  func([]Entity)
	onReady func(string, Entity)
	onError func(error)

	terminal map[string]bool

	mu          sync.Mutex
	polling     bool
	fetching    bool
	closed      bool
	interval    time.Duration
	failures    int
	lastHash    string
	statuses    map[string]string
	pending     bool
	lastFetchOK bool
	timer       *time.Timer
	cancelFetch context.CancelFunc
	totalPolls  int
	lastChange  time.Time
}

// NewController creates a [Controller] for the given fetcher.
//
// Options configure tuning and callbacks; see [WithTuning], [WithOnData],
// [WithOnEntityReady], [WithOnError], and [WithControllerLogger]. The
// controller starts idle; call [Controller.Start] to begin polling.
//
// Returns an error if the fetcher is nil or the tuning is inconsistent.
func NewController(fetcher Fetcher, opts ...ControllerOption) (*Controller, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	cfg := &controllerConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	tuning := cfg.tuning.withDefaults()
	if err := tuning.validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		fetcher:  fetcher,
		tuning:   tuning,
		logger:   logger,
		onData:   cfg.onData,
		onReady:  cfg.onReady,
		onError:  cfg.onError,
		terminal: terminalSet(tuning.TerminalStatuses),
		interval: tuning.BaseInterval,
		statuses: make(map[string]string),
	}, nil
}

// Start activates periodic polling.
//
// The interval resets to the base and the consecutive-failure count to zero,
// an immediate fetch-and-process cycle runs in the background, and further
// ticks are scheduled from its outcome. Start is a no-op if the controller
// is already polling or has been closed. Starting again after [Controller.Stop]
// (including a stop caused by a configuration error or an idle-stop policy)
// is always allowed.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.polling || c.closed {
		c.mu.Unlock()
		return
	}
	c.polling = true
	c.failures = 0
	c.interval = c.tuning.BaseInterval
	c.totalPolls = 0
	c.lastChange = time.Time{}
	c.mu.Unlock()

	go c.tick()
}

// Stop deactivates periodic polling. Idempotent.
//
// Any armed timer is cancelled. An already in-flight fetch is not aborted:
// its result is still applied once (data, ready, and error callbacks may
// still fire for it), but no next tick is armed. Use [Controller.Close] to
// also abort the in-flight fetch.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	c.polling = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Close tears the controller down. Idempotent.
//
// Close stops polling, cancels any armed timer, and aborts an in-flight
// fetch. After Close returns, no data, ready, or error callback fires and no
// timer is armed, even if the in-flight fetch later resolves. A closed
// controller cannot be restarted.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopLocked()
	cancel := c.cancelFetch
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Refresh runs one fetch-and-process cycle immediately, blocking until it
// completes.
//
// If a fetch is already in flight the call is silently skipped; refreshes
// are never queued. Refresh works on a stopped controller (the result is
// applied but no timer is armed) and is a no-op after [Controller.Close].
func (c *Controller) Refresh() {
	c.tick()
}

// IsPolling reports whether periodic polling is active.
func (c *Controller) IsPolling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polling
}

// CurrentInterval returns the delay the next idle-cadence tick would use.
// While pending work is observed the active interval overrides this value
// at scheduling time.
func (c *Controller) CurrentInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// ConsecutiveFailures returns the current run of failed poll attempts.
func (c *Controller) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// TotalPolls returns the number of ticks executed since the last Start.
func (c *Controller) TotalPolls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPolls
}

// timerTick is the timer callback. The timer may fire after Stop was called;
// polling is re-checked here so a stale callback becomes a no-op.
func (c *Controller) timerTick() {
	c.mu.Lock()
	active := c.polling && !c.closed
	c.mu.Unlock()

	if active {
		c.tick()
	}
}

// tick runs one fetch-evaluate-reschedule cycle.
//
// The fetching flag enforces single-flight: a tick that finds a fetch in
// progress returns without queuing. All fetch-time errors are absorbed here
// and converted into backoff state plus the error callback; nothing
// propagates out.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.fetching || c.closed {
		c.mu.Unlock()
		return
	}
	c.fetching = true
	c.totalPolls++
	ctx, cancel := context.WithTimeout(context.Background(), c.tuning.FetchTimeout)
	c.cancelFetch = cancel
	c.mu.Unlock()

	entities, err := c.fetch(ctx)
	cancel()

	c.mu.Lock()
	c.fetching = false
	c.cancelFetch = nil
	if c.closed {
		// teardown happened mid-flight: discard the result entirely
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.handleFailure(err)
		return
	}
	c.handleSuccess(entities)
}

// fetch invokes the fetcher with panic recovery so a misbehaving fetcher
// degrades into a failed tick instead of crashing the loop.
func (c *Controller) fetch(ctx context.Context) (entities []Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("fetcher panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			entities = nil
			err = fmt.Errorf("fetcher panic (correlation_id: %s)", correlationID)
		}
	}()
	return c.fetcher.Fetch(ctx)
}

// handleSuccess processes a successful fetch. Called with c.mu held;
// releases it before invoking callbacks.
func (c *Controller) handleSuccess(entities []Entity) {
	norm := normalizeEntities(entities)
	hash := fingerprintEntities(norm)
	changed := hash != c.lastHash
	transitions := readyTransitions(c.statuses, norm, c.terminal)

	c.statuses = statusIndex(norm)
	c.pending = hasPendingWork(norm, c.terminal)
	c.failures = 0
	c.interval = c.tuning.BaseInterval
	c.lastFetchOK = true
	if changed {
		c.lastHash = hash
		c.lastChange = time.Now()
	}

	onData := c.onData
	onReady := c.onReady
	c.mu.Unlock()

	if changed && onData != nil {
		c.invoke("data", func() { onData(norm) })
	}
	for _, e := range transitions {
		if onReady == nil {
			break
		}
		entity := e
		c.invoke("ready", func() { onReady(entity.ID, entity) })
	}

	c.schedule()
}

// handleFailure processes a failed fetch. Called with c.mu held; releases it
// before invoking callbacks.
//
// The last fingerprint is deliberately left untouched so the last good
// payload stays rendered and the next differing success re-renders.
func (c *Controller) handleFailure(err error) {
	configErr := errors.Is(err, ErrConfiguration)

	if configErr {
		// not retriable: surface once and go idle; Start() may retry later
		c.stopLocked()
	} else {
		c.failures++
		c.interval = nextInterval(c.tuning.BaseInterval, c.tuning.MaxInterval, c.tuning.BackoffMultiplier, c.failures)
	}
	c.lastFetchOK = false

	failures := c.failures
	interval := c.interval
	onError := c.onError
	c.mu.Unlock()

	c.logger.Warn("poll failed",
		"error", err,
		"consecutive_failures", failures,
		"next_interval", interval.String(),
		"configuration", configErr,
	)
	if onError != nil {
		c.invoke("error", func() { onError(err) })
	}

	if configErr {
		return
	}
	c.schedule()
}

// schedule arms the timer for the next tick.
//
// The active cadence wins whenever pending work was seen and the last fetch
// succeeded; the consecutive-failure count is orthogonal to that choice.
// The optional idle-stop policies are evaluated here, after the tick's
// result has been fully applied.
func (c *Controller) schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.polling || c.closed {
		return
	}

	if c.tuning.StopAfterPolls > 0 && c.totalPolls >= c.tuning.StopAfterPolls {
		c.logger.Info("poll budget exhausted, stopping", "total_polls", c.totalPolls)
		c.stopLocked()
		return
	}
	if c.tuning.StopWhenStable > 0 && c.lastFetchOK && !c.pending &&
		!c.lastChange.IsZero() && time.Since(c.lastChange) >= c.tuning.StopWhenStable {
		c.logger.Info("payload stable, stopping", "stable_for", time.Since(c.lastChange).String())
		c.stopLocked()
		return
	}

	delay := c.interval
	if c.pending && c.lastFetchOK {
		delay = c.tuning.ActiveInterval
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(delay, c.timerTick)
}

// invoke calls a callback with panic recovery. Panics are logged with a
// correlation ID and do not propagate into the tick loop.
func (c *Controller) invoke(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("callback panicked",
				"callback", kind,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	fn()
}
