package refreshkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/refreshkit/refreshkit/internal/fetch"
	"github.com/refreshkit/refreshkit/internal/server"
	"github.com/refreshkit/refreshkit/internal/store"
)

const defaultPort = 8080

// Snapshot is the public view of one widget's latest state, delivered to
// hub-level snapshot callbacks and served by the HTTP API.
type Snapshot struct {
	// Widget is the widget's display name.
	Widget string

	// Entities is the resource list from the last successful poll.
	Entities []Entity

	// Pending reports whether any entity is still in a non-terminal status.
	Pending bool

	// CheckedAt is the timestamp of the last poll attempt.
	CheckedAt time.Time

	// Err is the error of the last failed poll, nil after a success.
	Err error
}

// Hub mounts multiple widgets in one process.
//
// Each widget gets its own [Controller] and its own state; controllers
// share nothing but the HTTP transport's connection pool, so widgets never
// interfere with each other. The hub stores the latest snapshot per widget
// and serves them over a JSON REST API plus a Server-Sent Events stream.
//
// The typical lifecycle is:
//
//	hub, err := refreshkit.New(refreshkit.WithWidget(w))
//	if err != nil {
//	    slog.Error("failed to create hub", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	hub.Start(ctx) // blocks until context cancelled
type Hub struct {
	widgets           []Widget
	port              int
	tuning            Tuning
	logger            *slog.Logger
	snapshotCallbacks []func(Snapshot)
	readyCallbacks    []func(widget string, id string, entity Entity)
}

// New creates a new [Hub] with the given options.
//
// At least one widget must be configured via [WithWidget] or [WithWidgets],
// and widget names must be unique. Other options have sensible defaults:
// port 8080 and the default [Tuning].
func New(opts ...Option) (*Hub, error) {
	cfg := &hubConfig{
		widgets: []Widget{},
		port:    defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.widgets) == 0 {
		return nil, errors.New("at least one widget is required")
	}

	// widget names key snapshots; duplicates would silently overwrite
	seen := make(map[string]bool, len(cfg.widgets))
	for _, w := range cfg.widgets {
		if seen[w.name] {
			return nil, fmt.Errorf("duplicate widget name: %q", w.name)
		}
		seen[w.name] = true
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		widgets:           cfg.widgets,
		port:              cfg.port,
		tuning:            cfg.tuning,
		logger:            logger,
		snapshotCallbacks: cfg.snapshotCallbacks,
		readyCallbacks:    cfg.readyCallbacks,
	}, nil
}

// Start begins polling all widgets and serving their snapshots.
//
// Start is a blocking call that runs until the provided context is
// cancelled. During execution:
//
//   - Every widget's controller polls immediately, then on its own cadence
//   - Snapshots are stored and pushed to SSE subscribers
//   - The API is available at http://localhost:<port>/api/widgets
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (h *Hub) Start(ctx context.Context) error {
	h.logger.Info("refreshkit starting", "widget_count", len(h.widgets))
	h.logger.Info("api available", "url", fmt.Sprintf("http://localhost:%d/api/widgets", h.port))

	if ctx.Err() != nil {
		return nil
	}

	snapshotStore := store.NewMemoryStore()
	client := fetch.NewClient()

	controllers := make([]*Controller, 0, len(h.widgets))
	for _, w := range h.widgets {
		ctrl, err := h.buildController(client, w, snapshotStore)
		if err != nil {
			client.Close()
			return fmt.Errorf("widget %q: %w", w.name, err)
		}
		controllers = append(controllers, ctrl)
	}

	cleanup := func() {
		for _, ctrl := range controllers {
			ctrl.Close()
		}
		client.Close()
	}

	httpServer := server.NewServer(snapshotStore, h.port, h.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	for _, ctrl := range controllers {
		ctrl.Start()
	}

	<-ctx.Done()
	cleanup()
	h.logger.Info("refreshkit stopped")
	return nil
}

// buildController wires one widget's fetcher and callbacks into a
// controller and the snapshot store.
func (h *Hub) buildController(client *fetch.Client, w Widget, snapshotStore store.Store) (*Controller, error) {
	tuning := h.tuning.merge(w.tuning).withDefaults()
	terminal := terminalSet(tuning.TerminalStatuses)
	name := w.name

	onData := func(entities []Entity) {
		now := time.Now()
		snapshotStore.Update(store.Snapshot{
			Widget:    name,
			Entities:  toStoreEntities(entities),
			Pending:   hasPendingWork(entities, terminal),
			CheckedAt: now,
		})
		h.fireSnapshotCallbacks(Snapshot{
			Widget:    name,
			Entities:  entities,
			Pending:   hasPendingWork(entities, terminal),
			CheckedAt: now,
		})
	}

	onError := func(err error) {
		now := time.Now()
		snapshotStore.SetError(name, err.Error(), now)
		h.logger.Warn("widget poll failed", "widget", name, "error", err)

		if len(h.snapshotCallbacks) > 0 {
			if stored, ok := snapshotStore.Get(name); ok {
				public := storeSnapshotToPublic(stored)
				public.Err = err
				h.fireSnapshotCallbacks(public)
			}
		}
	}

	onReady := func(id string, entity Entity) {
		h.logger.Info("entity ready", "widget", name, "id", id, "display_name", entity.DisplayName)
		for _, cb := range h.readyCallbacks {
			callback := cb
			invokeCallbackSafe(h.logger, name, func() { callback(name, id, entity) })
		}
	}

	return NewController(newWidgetFetcher(client, w),
		WithTuning(tuning),
		WithControllerLogger(h.logger.With("widget", name)),
		WithOnData(onData),
		WithOnEntityReady(onReady),
		WithOnError(onError),
	)
}

// fireSnapshotCallbacks invokes all registered snapshot callbacks with
// panic recovery.
func (h *Hub) fireSnapshotCallbacks(snapshot Snapshot) {
	for _, cb := range h.snapshotCallbacks {
		callback := cb
		invokeCallbackSafe(h.logger, snapshot.Widget, func() { callback(snapshot) })
	}
}

// Widgets returns a copy of the configured widgets.
//
// The returned slice is a copy; modifying it does not affect the Hub. Each
// [Widget] in the slice is immutable.
func (h *Hub) Widgets() []Widget {
	cp := make([]Widget, len(h.widgets))
	copy(cp, h.widgets)
	return cp
}

// Port returns the configured HTTP port for the snapshot API.
func (h *Hub) Port() int {
	return h.port
}

// toStoreEntities converts the public entity projection to the storage
// representation.
func toStoreEntities(entities []Entity) []store.Entity {
	out := make([]store.Entity, len(entities))
	for i, e := range entities {
		out[i] = store.Entity{
			ID:           e.ID,
			Status:       e.Status,
			DisplayName:  e.DisplayName,
			FileName:     e.FileName,
			ThumbnailURL: e.ThumbnailURL,
			UpdatedAt:    e.UpdatedAt,
		}
	}
	return out
}

// storeSnapshotToPublic converts a stored snapshot to the public API type.
func storeSnapshotToPublic(s store.Snapshot) Snapshot {
	entities := make([]Entity, len(s.Entities))
	for i, e := range s.Entities {
		entities[i] = Entity{
			ID:           e.ID,
			Status:       e.Status,
			DisplayName:  e.DisplayName,
			FileName:     e.FileName,
			ThumbnailURL: e.ThumbnailURL,
			UpdatedAt:    e.UpdatedAt,
		}
	}

	public := Snapshot{
		Widget:    s.Widget,
		Entities:  entities,
		Pending:   s.Pending,
		CheckedAt: s.CheckedAt,
	}
	if s.Error != nil {
		public.Err = errors.New(*s.Error)
	}
	return public
}

// invokeCallbackSafe calls a hub-level callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(logger *slog.Logger, widget string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hub callback panicked",
				"panic", r,
				"widget", widget,
			)
		}
	}()
	fn()
}
