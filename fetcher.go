package refreshkit

import (
	"context"
	"fmt"

	"github.com/refreshkit/refreshkit/internal/fetch"
)

// widgetFetcher is the HTTP-backed [Fetcher] the hub builds for each
// widget. It resolves the widget's query (including the owner identity) and
// converts wire resources to the Entity projection.
type widgetFetcher struct {
	client *fetch.Client
	widget Widget
}

// newWidgetFetcher wraps a widget's fetch configuration around a shared
// transport client.
func newWidgetFetcher(client *fetch.Client, w Widget) *widgetFetcher {
	return &widgetFetcher{client: client, widget: w}
}

// Fetch implements [Fetcher].
func (f *widgetFetcher) Fetch(ctx context.Context) ([]Entity, error) {
	w := f.widget

	query := make(map[string]string, len(w.query)+1)
	for k, v := range w.query {
		query[k] = v
	}
	if w.ownerParam != "" {
		if w.ownerID == "" {
			return nil, fmt.Errorf("%w: owner query parameter %q has no value", ErrConfiguration, w.ownerParam)
		}
		query[w.ownerParam] = w.ownerID
	}

	resources, err := f.client.ListResources(ctx, fetch.Request{
		URL:      w.url,
		Query:    query,
		Headers:  w.headers,
		ItemsKey: w.itemsKey,
	})
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, len(resources))
	for i, r := range resources {
		entities[i] = Entity{
			ID:           r.ID,
			Status:       r.Status,
			DisplayName:  r.Name,
			FileName:     r.FileName,
			ThumbnailURL: r.Thumbnail,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return entities, nil
}
