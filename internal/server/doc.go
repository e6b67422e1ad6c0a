// Package server provides the HTTP serving layer for widget snapshots.
//
// This package is internal to RefreshKit. It serves the REST API and the
// Server-Sent Events stream that injection-site scripts consume; it carries
// no HTML or rendering of its own.
package server
