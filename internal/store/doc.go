// Package store provides storage and pub/sub functionality for widget
// snapshots.
//
// This package is internal to RefreshKit and manages the in-memory storage
// of the latest resource-list snapshot per widget. It implements a
// publish-subscribe pattern for real-time updates to connected clients.
package store
