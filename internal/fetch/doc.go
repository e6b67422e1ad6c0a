// Package fetch provides the HTTP transport for fetching resource lists.
//
// This package is internal to RefreshKit. It handles the single suspension
// point of a poll tick: issuing the list request, bounding it with the
// caller's context, retrying transient transport errors a small fixed
// number of times, and decoding the JSON list in either its bare-array or
// object-wrapped form.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with connection pooling and size limits
//   - [Request]: description of one resource-list fetch
//   - [Resource]: wire representation of a single resource
//
// Users of the refreshkit library should not need to interact with this
// package directly. Configuration is done through the main refreshkit
// package.
package fetch
