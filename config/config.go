// Package config provides YAML configuration parsing for RefreshKit.
//
// This package enables running RefreshKit as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	polling:
//	  base_interval: 10s
//	  max_interval: 60s
//	  active_interval: 3s
//	  backoff_multiplier: 2
//
//	widgets:
//	  - name: Workspace Grid
//	    url: https://api.example.com/presentations
//	    owner_param: userId
//	    owner: ${USER_ID}
//	    items_key: presentations
//	    headers:
//	      Authorization: Bearer ${API_TOKEN}
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minBaseInterval is the minimum allowed base polling interval for
// production configs. This prevents accidental DoS of backends with overly
// aggressive polling.
const minBaseInterval = 1 * time.Second

// Config is the root configuration structure for RefreshKit.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Polling is the default polling tuning shared by all widgets.
	Polling PollingConfig `yaml:"polling"`

	// Widgets defines the widgets to mount.
	Widgets []WidgetConfig `yaml:"widgets"`
}

// PollingConfig is the YAML shape of the polling tuning knobs.
//
// Zero fields mean "use the default" at the top level, or "inherit" when
// nested inside a widget.
type PollingConfig struct {
	// BaseInterval is the idle polling cadence.
	// Accepts duration strings like "10s", "1m", "500ms".
	BaseInterval Duration `yaml:"base_interval"`

	// MaxInterval caps the backoff-grown interval.
	MaxInterval Duration `yaml:"max_interval"`

	// ActiveInterval is the cadence used while pending work exists.
	ActiveInterval Duration `yaml:"active_interval"`

	// BackoffMultiplier is the interval growth factor per consecutive
	// failure.
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`

	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout Duration `yaml:"fetch_timeout"`

	// TerminalStatuses is the set of status values after which an entity is
	// no longer pending.
	TerminalStatuses []string `yaml:"terminal_statuses"`

	// StopAfterPolls stops a widget's polling after this many ticks.
	// Zero disables the policy.
	StopAfterPolls int `yaml:"stop_after_polls"`

	// StopWhenStable stops a widget's polling once its payload has been
	// unchanged for this long with no pending work. Zero disables the
	// policy.
	StopWhenStable Duration `yaml:"stop_when_stable"`
}

// WidgetConfig defines a single widget.
type WidgetConfig struct {
	// Name is the display name, used as the widget's key in the API.
	Name string `yaml:"name"`

	// URL is the resource collection endpoint.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// OwnerParam is the query parameter carrying the resource owner's
	// identity, if the backend requires one.
	OwnerParam string `yaml:"owner_param"`

	// Owner is the owner identity value. Supports environment variable
	// substitution. May legitimately resolve to empty; the widget then
	// reports a configuration error at poll time.
	Owner string `yaml:"owner"`

	// ItemsKey is the object key the resource list is wrapped under when
	// the backend does not return a bare array.
	ItemsKey string `yaml:"items_key"`

	// Query holds extra query parameters sent with every poll.
	// Values support environment variable substitution.
	Query map[string]string `yaml:"query"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Polling holds per-widget tuning overrides. Zero fields inherit the
	// top-level polling block.
	Polling PollingConfig `yaml:"polling"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL, Owner, Query, and Header
// values. A default Port (8080) is applied.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := c.Polling.validate("polling"); err != nil {
		return err
	}

	if len(c.Widgets) == 0 {
		return fmt.Errorf("at least one widget is required")
	}

	seen := make(map[string]bool, len(c.Widgets))
	for i := range c.Widgets {
		w := &c.Widgets[i]

		if w.Name == "" {
			return fmt.Errorf("widgets[%d]: name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("widgets[%d]: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true

		if w.URL == "" {
			return fmt.Errorf("widgets[%d] (%s): url is required", i, w.Name)
		}
		expanded, err := expandEnvVars(w.URL)
		if err != nil {
			return fmt.Errorf("widgets[%d] (%s): url: %w", i, w.Name, err)
		}
		w.URL = expanded

		parsedURL, err := url.Parse(w.URL)
		if err != nil {
			return fmt.Errorf("widgets[%d] (%s): invalid url: %w", i, w.Name, err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("widgets[%d] (%s): url scheme must be http or https, got %q", i, w.Name, parsedURL.Scheme)
		}

		// a missing owner value is a poll-time configuration error, not a
		// parse error: use ${VAR:-} to express "may be unset"
		expanded, err = expandEnvVars(w.Owner)
		if err != nil {
			return fmt.Errorf("widgets[%d] (%s): owner: %w", i, w.Name, err)
		}
		w.Owner = expanded

		for k, v := range w.Query {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("widgets[%d] (%s): query[%s]: %w", i, w.Name, k, err)
			}
			w.Query[k] = expanded
		}

		for k, v := range w.Headers {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("widgets[%d] (%s): headers[%s]: %w", i, w.Name, k, err)
			}
			w.Headers[k] = expanded
		}

		if err := w.Polling.validate(fmt.Sprintf("widgets[%d] (%s): polling", i, w.Name)); err != nil {
			return err
		}
	}

	return nil
}

// validate checks a polling block. Zero values are allowed everywhere
// (they mean "default" or "inherit"); set values must be sane.
func (p PollingConfig) validate(context string) error {
	if p.BaseInterval != 0 && p.BaseInterval.Duration() < minBaseInterval {
		return fmt.Errorf("%s: base_interval must be at least %s, got %s", context, minBaseInterval, p.BaseInterval.Duration())
	}
	if p.MaxInterval != 0 && p.BaseInterval != 0 && p.MaxInterval < p.BaseInterval {
		return fmt.Errorf("%s: max_interval %s is below base_interval %s", context, p.MaxInterval.Duration(), p.BaseInterval.Duration())
	}
	if p.ActiveInterval < 0 {
		return fmt.Errorf("%s: active_interval cannot be negative", context)
	}
	if p.BackoffMultiplier != 0 && p.BackoffMultiplier < 1 {
		return fmt.Errorf("%s: backoff_multiplier must be at least 1, got %g", context, p.BackoffMultiplier)
	}
	if p.FetchTimeout < 0 {
		return fmt.Errorf("%s: fetch_timeout cannot be negative", context)
	}
	if p.StopAfterPolls < 0 {
		return fmt.Errorf("%s: stop_after_polls cannot be negative", context)
	}
	if p.StopWhenStable < 0 {
		return fmt.Errorf("%s: stop_when_stable cannot be negative", context)
	}
	return nil
}
