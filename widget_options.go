package refreshkit

import "errors"

// widgetConfig holds mutable state during widget construction.
type widgetConfig struct {
	query      map[string]string
	headers    map[string]string
	ownerParam string
	ownerID    string
	itemsKey   string
	tuning     Tuning
}

// WidgetOption configures a [Widget] during construction via [NewWidget].
// Options return an error if validation fails.
type WidgetOption func(*widgetConfig) error

// WithQuery adds query parameters to every poll request of this widget.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	w, err := refreshkit.NewWidget("Jobs", url,
//	    refreshkit.WithQuery("sort", "updatedAt", "limit", "50"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithQuery(keyValues ...string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithQuery requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.query[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithHeaders adds custom HTTP headers to poll requests for this widget.
//
// Use this for backends that require authentication. Accepts variadic
// key-value pairs. The number of arguments must be even.
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithOwner declares that the resource query requires an owner identity,
// sent as the query parameter param with value id.
//
// The identity is resolved at poll time, not at construction: a widget may
// be built before the user is known. If the value is still empty when a
// poll runs, the fetch fails with [ErrConfiguration], surfaced once via
// the error callback, after which polling stops until restarted.
//
// Returns an error if param is empty.
func WithOwner(param, id string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if param == "" {
			return errors.New("owner parameter name cannot be empty")
		}
		cfg.ownerParam = param
		cfg.ownerID = id
		return nil
	}
}

// WithItemsKey sets the object key the resource list is wrapped under when
// the backend does not return a bare JSON array.
//
// If not set, a few common keys ("items", "presentations", "workspaces",
// "jobs") are tried in order.
func WithItemsKey(key string) WidgetOption {
	return func(cfg *widgetConfig) error {
		cfg.itemsKey = key
		return nil
	}
}

// WithWidgetTuning sets per-widget polling tuning overrides.
//
// Zero fields inherit the hub's defaults, so a widget can override just its
// base interval while keeping everything else shared:
//
//	w, err := refreshkit.NewWidget("Jobs", url,
//	    refreshkit.WithWidgetTuning(refreshkit.Tuning{BaseInterval: 5 * time.Second}),
//	)
func WithWidgetTuning(t Tuning) WidgetOption {
	return func(cfg *widgetConfig) error {
		cfg.tuning = cfg.tuning.merge(t)
		return nil
	}
}
