package refreshkit

import (
	"errors"
	"log/slog"
)

// controllerConfig holds mutable state during controller construction.
type controllerConfig struct {
	tuning  Tuning
	logger  *slog.Logger
	onData  func([]Entity)
	onReady func(string, Entity)
	onError func(error)
}

// ControllerOption configures a [Controller] during construction via
// [NewController]. Options return an error if validation fails.
type ControllerOption func(*controllerConfig) error

// WithTuning sets the polling tuning for the controller.
//
// Zero fields of the [Tuning] keep their defaults, so partial tuning is
// valid:
//
//	ctrl, err := refreshkit.NewController(fetcher,
//	    refreshkit.WithTuning(refreshkit.Tuning{
//	        BaseInterval: 5 * time.Second,
//	        MaxInterval:  30 * time.Second,
//	    }),
//	)
func WithTuning(t Tuning) ControllerOption {
	return func(cfg *controllerConfig) error {
		cfg.tuning = cfg.tuning.merge(t)
		return nil
	}
}

// WithOnData registers the data callback, invoked with the normalized
// payload whenever its fingerprint differs from the previous one.
//
// The callback fires at most once per tick and never concurrently with
// itself. It does not fire on failed fetches: the last good payload is
// meant to stay rendered.
func WithOnData(cb func(entities []Entity)) ControllerOption {
	return func(cfg *controllerConfig) error {
		cfg.onData = cb
		return nil
	}
}

// WithOnEntityReady registers the ready-notification callback, invoked
// exactly once per observed transition of an entity from a non-terminal
// status to [StatusReady].
//
// It never fires for an entity first observed already ready, and never
// re-fires while the entity stays ready.
func WithOnEntityReady(cb func(id string, entity Entity)) ControllerOption {
	return func(cfg *controllerConfig) error {
		cfg.onReady = cb
		return nil
	}
}

// WithOnError registers the error callback, invoked on every failed poll
// attempt (network error, non-2xx, timeout, malformed payload,
// configuration error).
//
// Errors are informational: the controller keeps retrying on the backoff
// schedule by itself, except for [ErrConfiguration] which stops polling
// after surfacing the error once.
func WithOnError(cb func(err error)) ControllerOption {
	return func(cfg *controllerConfig) error {
		cfg.onError = cb
		return nil
	}
}

// WithControllerLogger sets the [slog.Logger] used for the controller's own
// diagnostics (poll failures, callback panics). Defaults to [slog.Default].
//
// Returns an error if the logger is nil.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(cfg *controllerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}
