package config

import (
	"sort"

	"github.com/refreshkit/refreshkit"
)

// Tuning converts a polling block to the SDK [refreshkit.Tuning] value.
// Zero fields stay zero so the SDK's default/inherit semantics apply.
func (p PollingConfig) Tuning() refreshkit.Tuning {
	return refreshkit.Tuning{
		BaseInterval:      p.BaseInterval.Duration(),
		MaxInterval:       p.MaxInterval.Duration(),
		ActiveInterval:    p.ActiveInterval.Duration(),
		BackoffMultiplier: p.BackoffMultiplier,
		FetchTimeout:      p.FetchTimeout.Duration(),
		TerminalStatuses:  p.TerminalStatuses,
		StopAfterPolls:    p.StopAfterPolls,
		StopWhenStable:    p.StopWhenStable.Duration(),
	}
}

// BuildWidgets converts parsed configuration into SDK Widget objects.
func BuildWidgets(cfg *Config) ([]refreshkit.Widget, error) {
	widgets := make([]refreshkit.Widget, 0, len(cfg.Widgets))

	for _, wc := range cfg.Widgets {
		w, err := buildWidget(wc)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}

	return widgets, nil
}

// buildWidget converts a single WidgetConfig to an SDK Widget.
func buildWidget(wc WidgetConfig) (refreshkit.Widget, error) {
	var opts []refreshkit.WidgetOption

	if len(wc.Query) > 0 {
		opts = append(opts, refreshkit.WithQuery(mapToKeyValuePairs(wc.Query)...))
	}

	if len(wc.Headers) > 0 {
		opts = append(opts, refreshkit.WithHeaders(mapToKeyValuePairs(wc.Headers)...))
	}

	if wc.OwnerParam != "" {
		opts = append(opts, refreshkit.WithOwner(wc.OwnerParam, wc.Owner))
	}

	if wc.ItemsKey != "" {
		opts = append(opts, refreshkit.WithItemsKey(wc.ItemsKey))
	}

	// merging a zero tuning is a no-op, so overrides can be passed through
	// unconditionally
	opts = append(opts, refreshkit.WithWidgetTuning(wc.Polling.Tuning()))

	return refreshkit.NewWidget(wc.Name, wc.URL, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
