package refreshkit

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default polling cadence. The idle cadence (base interval) governs stable
// widgets; the active cadence takes over while the backend reports pending
// work; consecutive failures back the idle cadence off toward the maximum.
const (
	defaultBaseInterval   = 10 * time.Second
	defaultMaxInterval    = 60 * time.Second
	defaultActiveInterval = 3 * time.Second
	defaultFetchTimeout   = 10 * time.Second
	defaultMultiplier     = 2.0
)

// Tuning holds the recognized polling knobs of a [Controller].
//
// Zero values mean "use the default" (or, when a Tuning is attached to a
// [Widget], "inherit from the hub"). Tuning is plain data so it can be
// carried through YAML configuration unchanged.
type Tuning struct {
	// BaseInterval is the idle polling cadence and the value the interval
	// resets to after a successful fetch. Defaults to 10s.
	BaseInterval time.Duration

	// MaxInterval caps the backoff-grown interval. Defaults to 60s.
	MaxInterval time.Duration

	// ActiveInterval is the short fixed cadence used while pending work was
	// observed on a successful fetch. Defaults to 3s.
	ActiveInterval time.Duration

	// BackoffMultiplier is the interval growth factor applied per
	// consecutive failure. Defaults to 2.
	BackoffMultiplier float64

	// FetchTimeout bounds a single fetch attempt; exceeding it counts the
	// tick as failed. Defaults to 10s.
	FetchTimeout time.Duration

	// TerminalStatuses is the set of status values after which an entity is
	// no longer pending work. Defaults to [DefaultTerminalStatuses].
	TerminalStatuses []string

	// StopAfterPolls stops polling after this many total ticks. Zero
	// disables the policy. This is a convenience layered above the core
	// contract; backoff alone never stops polling.
	StopAfterPolls int

	// StopWhenStable stops polling once the payload fingerprint has been
	// unchanged for this long with no pending work. Zero disables the
	// policy.
	StopWhenStable time.Duration
}

// withDefaults returns a copy of t with zero fields replaced by defaults.
func (t Tuning) withDefaults() Tuning {
	if t.BaseInterval == 0 {
		t.BaseInterval = defaultBaseInterval
	}
	if t.MaxInterval == 0 {
		t.MaxInterval = defaultMaxInterval
	}
	if t.ActiveInterval == 0 {
		t.ActiveInterval = defaultActiveInterval
	}
	if t.BackoffMultiplier == 0 {
		t.BackoffMultiplier = defaultMultiplier
	}
	if t.FetchTimeout == 0 {
		t.FetchTimeout = defaultFetchTimeout
	}
	if len(t.TerminalStatuses) == 0 {
		t.TerminalStatuses = DefaultTerminalStatuses
	}
	return t
}

// merge overlays non-zero fields of override on top of t.
func (t Tuning) merge(override Tuning) Tuning {
	if override.BaseInterval != 0 {
		t.BaseInterval = override.BaseInterval
	}
	if override.MaxInterval != 0 {
		t.MaxInterval = override.MaxInterval
	}
	if override.ActiveInterval != 0 {
		t.ActiveInterval = override.ActiveInterval
	}
	if override.BackoffMultiplier != 0 {
		t.BackoffMultiplier = override.BackoffMultiplier
	}
	if override.FetchTimeout != 0 {
		t.FetchTimeout = override.FetchTimeout
	}
	if len(override.TerminalStatuses) != 0 {
		t.TerminalStatuses = override.TerminalStatuses
	}
	if override.StopAfterPolls != 0 {
		t.StopAfterPolls = override.StopAfterPolls
	}
	if override.StopWhenStable != 0 {
		t.StopWhenStable = override.StopWhenStable
	}
	return t
}

// validate checks a fully-defaulted Tuning for internal consistency.
func (t Tuning) validate() error {
	if t.BaseInterval < 0 || t.MaxInterval < 0 || t.ActiveInterval < 0 {
		return errors.New("intervals cannot be negative")
	}
	if t.MaxInterval < t.BaseInterval {
		return fmt.Errorf("max interval %s is below base interval %s", t.MaxInterval, t.BaseInterval)
	}
	if t.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1, got %g", t.BackoffMultiplier)
	}
	if t.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	if t.StopAfterPolls < 0 {
		return errors.New("stop-after-polls cannot be negative")
	}
	if t.StopWhenStable < 0 {
		return errors.New("stop-when-stable cannot be negative")
	}
	return nil
}

// nextInterval computes the poll interval after a run of consecutive
// failures: min(base * multiplier^failures, max). failures == 0 yields the
// base interval.
func nextInterval(base, max time.Duration, multiplier float64, failures int) time.Duration {
	if failures <= 0 {
		return base
	}
	scaled := float64(base) * math.Pow(multiplier, float64(failures))
	// guard against float overflow as well as the configured ceiling
	if scaled >= float64(max) || scaled <= 0 {
		return max
	}
	return time.Duration(scaled)
}
