package refreshkit

import (
	"errors"
	"log/slog"
)

// hubConfig holds mutable state during Hub construction.
type hubConfig struct {
	widgets           []Widget
	port              int
	tuning            Tuning
	logger            *slog.Logger
	snapshotCallbacks []func(Snapshot)
	readyCallbacks    []func(widget string, id string, entity Entity)
}

// Option configures a [Hub] instance during construction via [New].
// Options return an error if validation fails.
//
// Built-in options: [WithWidget], [WithWidgets], [WithPort],
// [WithDefaultTuning], [WithLogger], [WithSnapshotCallback],
// [WithReadyCallback].
type Option func(*hubConfig) error

// WithWidget adds a single [Widget] to the hub.
//
// Can be called multiple times to add multiple widgets. At least one widget
// must be configured for [New] to succeed.
func WithWidget(w Widget) Option {
	return func(cfg *hubConfig) error {
		cfg.widgets = append(cfg.widgets, w)
		return nil
	}
}

// WithWidgets adds multiple [Widget] values to the hub.
//
// This is a convenience function for adding several widgets at once.
// Equivalent to calling [WithWidget] multiple times.
func WithWidgets(widgets ...Widget) Option {
	return func(cfg *hubConfig) error {
		cfg.widgets = append(cfg.widgets, widgets...)
		return nil
	}
}

// WithPort sets the HTTP port for the snapshot API server.
//
// The API will be available at http://localhost:<port>/api/widgets.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *hubConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithDefaultTuning sets the polling tuning shared by all widgets.
//
// Zero fields keep the library defaults. Per-widget tuning set via
// [WithWidgetTuning] overrides these defaults field by field.
//
// Example:
//
//	hub, err := refreshkit.New(
//	    refreshkit.WithWidgets(widgets...),
//	    refreshkit.WithDefaultTuning(refreshkit.Tuning{
//	        BaseInterval: 10 * time.Second,
//	        MaxInterval:  60 * time.Second,
//	    }),
//	)
func WithDefaultTuning(t Tuning) Option {
	return func(cfg *hubConfig) error {
		cfg.tuning = cfg.tuning.merge(t)
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Hub and the controllers it
// creates.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *hubConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSnapshotCallback registers a function to be called whenever any
// widget's snapshot changes, including error updates after failed polls.
//
// Multiple callbacks may be registered by calling WithSnapshotCallback
// multiple times; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Long-running operations should
// dispatch work to a separate goroutine; blocking callbacks delay the
// owning widget's tick processing. Callbacks for one widget are invoked
// from that widget's controller goroutine and never concurrently with
// themselves. Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *hubConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}

// WithReadyCallback registers a function to be called exactly once per
// observed transition of any widget's entity into the ready status.
//
// Use this to surface "your presentation is ready" style notifications.
// The same non-blocking and panic-recovery rules as [WithSnapshotCallback]
// apply.
//
// Nil callbacks are silently ignored.
func WithReadyCallback(cb func(widget string, id string, entity Entity)) Option {
	return func(cfg *hubConfig) error {
		if cb == nil {
			return nil
		}
		cfg.readyCallbacks = append(cfg.readyCallbacks, cb)
		return nil
	}
}
