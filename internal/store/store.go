package store

import "time"

// Entity is the storage representation of one resource, optimized for JSON
// serialization by the REST API and SSE stream. It is decoupled from the
// refreshkit Entity type to allow independent evolution.
type Entity struct {
	// ID is the backend identity of the resource.
	ID string `json:"id"`

	// Status is the backend-reported processing status.
	Status string `json:"status"`

	// DisplayName is the user-facing name.
	DisplayName string `json:"display_name"`

	// FileName is the associated file name, if any.
	FileName string `json:"file_name"`

	// ThumbnailURL is a reference to the resource's thumbnail, if any.
	ThumbnailURL string `json:"thumbnail_url"`

	// UpdatedAt is the backend's last-modified timestamp.
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is the latest known state of one widget's resource collection.
//
// A failed poll updates only Error and CheckedAt; the entities of the last
// successful poll stay in place so consumers keep showing the last good
// state.
type Snapshot struct {
	// Widget is the widget's display name, used as the storage key.
	Widget string `json:"widget"`

	// Entities is the resource list from the last successful poll.
	Entities []Entity `json:"entities"`

	// Pending reports whether any entity is still in a non-terminal status.
	Pending bool `json:"pending"`

	// CheckedAt is the timestamp of the last poll attempt.
	CheckedAt time.Time `json:"checked_at"`

	// Error is the message of the last failed poll, nil after a success.
	Error *string `json:"error"`
}

// Store defines the interface for storing and subscribing to widget
// snapshots.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a new snapshot and notifies all subscribers.
	// The snapshot is keyed by Widget, so subsequent updates replace
	// previous values.
	Update(snapshot Snapshot)

	// SetError records a failed poll for a widget without discarding its
	// last good entities, and notifies subscribers.
	SetError(widget, message string, checkedAt time.Time)

	// Get returns the snapshot for one widget.
	Get(widget string) (Snapshot, bool)

	// GetAll returns all currently stored snapshots, sorted by widget name.
	// The returned slice is a copy; modifications do not affect the store.
	GetAll() []Snapshot

	// Subscribe returns a channel that receives snapshot updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Snapshot)
}
