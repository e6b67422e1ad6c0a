package refreshkit

import (
	"errors"
	"net/url"
)

// Widget describes one embeddable widget: the remote resource collection it
// mirrors (a workspace grid, a use-case gallery, a processing-job list) and
// how its controller should poll it.
//
// Widget is immutable after creation via [NewWidget]. All fields are private
// with getter methods that return copies of mutable data (maps), ensuring
// the widget cannot be modified after construction.
//
// Widgets are configured using the functional options pattern with
// [WidgetOption] functions such as [WithQuery], [WithHeaders], [WithOwner],
// [WithItemsKey], and [WithWidgetTuning].
type Widget struct {
	name       string
	url        string
	query      map[string]string
	headers    map[string]string
	ownerParam string
	ownerID    string
	itemsKey   string
	tuning     Tuning
}

// Name returns the widget's display name, used as its key in snapshots,
// the serving API, and logs.
func (w Widget) Name() string {
	return w.name
}

// URL returns the resource collection URL the widget polls.
func (w Widget) URL() string {
	return w.url
}

// Query returns a copy of the widget's extra query parameters.
// Returns nil if none are set.
func (w Widget) Query() map[string]string {
	return copyMap(w.query)
}

// Headers returns a copy of the widget's custom HTTP headers.
// These headers are sent with every poll request. Returns nil if no custom
// headers are set.
func (w Widget) Headers() map[string]string {
	return copyMap(w.headers)
}

// Owner returns the owner query parameter name and value configured via
// [WithOwner]. Both are empty if no owner identity is required.
func (w Widget) Owner() (param, id string) {
	return w.ownerParam, w.ownerID
}

// ItemsKey returns the object key the resource list is expected under when
// the backend wraps it. Empty means common keys are tried.
func (w Widget) ItemsKey() string {
	return w.itemsKey
}

// Tuning returns the widget's polling tuning overrides. Zero fields inherit
// from the hub defaults.
func (w Widget) Tuning() Tuning {
	return w.tuning
}

// NewWidget creates a [Widget] with the given name, resource URL, and
// options.
//
// The name is a human-readable identifier and must be unique within a hub.
// The rawURL must be a valid URL with an http or https scheme.
//
// Example:
//
//	w, err := refreshkit.NewWidget("Workspace Grid", "https://api.example.com/presentations",
//	    refreshkit.WithOwner("userId", currentUser),
//	    refreshkit.WithItemsKey("presentations"),
//	    refreshkit.WithHeaders("Authorization", "Bearer "+token),
//	)
func NewWidget(name, rawURL string, opts ...WidgetOption) (Widget, error) {
	if name == "" {
		return Widget{}, errors.New("widget name cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Widget{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Widget{}, errors.New("URL must have an http:// or https:// scheme")
	}

	cfg := &widgetConfig{
		query:   make(map[string]string),
		headers: make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Widget{}, err
		}
	}

	return Widget{
		name:       name,
		url:        rawURL,
		query:      cfg.query,
		headers:    cfg.headers,
		ownerParam: cfg.ownerParam,
		ownerID:    cfg.ownerID,
		itemsKey:   cfg.itemsKey,
		tuning:     cfg.tuning,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
