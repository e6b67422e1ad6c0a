// Package refreshkit keeps embeddable widgets in sync with remote resource
// collections by adaptive polling.
//
// RefreshKit is designed as an SDK-first library: the core type is
// [Controller], a per-widget polling state machine that decides when to
// fetch a resource list, detects whether the result actually changed, and
// adjusts its cadence from observed pending-work state and failure history.
// A [Hub] composes many controllers behind a JSON REST API and a
// Server-Sent Events stream for injection-site scripts to consume.
//
// # Quick Start
//
// Drive a single widget's data callback directly:
//
//	ctrl, _ := refreshkit.NewController(fetcher,
//	    refreshkit.WithOnData(func(entities []refreshkit.Entity) { render(entities) }),
//	    refreshkit.WithOnEntityReady(func(id string, e refreshkit.Entity) { toast(e.DisplayName) }),
//	)
//	ctrl.Start()
//	defer ctrl.Close()
//
// Or mount several widgets behind the serving layer:
//
//	w, _ := refreshkit.NewWidget("Workspace Grid", "https://api.example.com/presentations",
//	    refreshkit.WithOwner("userId", user),
//	)
//	hub, _ := refreshkit.New(refreshkit.WithWidget(w))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	hub.Start(ctx) // blocks until context is cancelled
//
// # Polling model
//
// A controller runs one fetch-evaluate-reschedule cycle (a tick) at a time;
// overlapping ticks are skipped, never queued. After each tick the next
// delay is chosen from the [Tuning]:
//
//   - pending work observed on a successful fetch -> ActiveInterval
//   - consecutive failures -> min(BaseInterval * BackoffMultiplier^n, MaxInterval)
//   - otherwise -> BaseInterval
//
// The data callback fires only when the payload fingerprint changed, so
// re-renders are suppressed while the backend returns the same list. A
// separate per-entity status map drives exactly-once ready notifications.
//
// # Architecture
//
// RefreshKit consists of several internal packages (under internal/):
//
//   - internal/fetch: HTTP transport with bounded transient retries
//   - internal/store: In-memory snapshot storage with pub/sub
//   - internal/server: REST API and Server-Sent Events
//
// The internal packages are not part of the public API and may change
// without notice.
package refreshkit
