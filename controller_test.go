package refreshkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticFetcher returns the same payload on every call.
func staticFetcher(entities []Entity) Fetcher {
	return FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		return entities, nil
	})
}

func TestNewController_NilFetcher(t *testing.T) {
	_, err := NewController(nil)
	if err == nil {
		t.Error("NewController() expected error for nil fetcher, got nil")
	}
}

func TestNewController_InvalidTuning(t *testing.T) {
	_, err := NewController(staticFetcher(nil),
		WithTuning(Tuning{BackoffMultiplier: 0.5}),
	)
	if err == nil {
		t.Error("NewController() expected error for multiplier below 1, got nil")
	}
}

func TestNewController_Defaults(t *testing.T) {
	ctrl, err := NewController(staticFetcher(nil), WithControllerLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	if ctrl.IsPolling() {
		t.Error("IsPolling() = true for a freshly created controller")
	}
	if ctrl.CurrentInterval() != 10*time.Second {
		t.Errorf("CurrentInterval() = %v, want %v", ctrl.CurrentInterval(), 10*time.Second)
	}
}

func TestController_RefreshFiresDataOnce(t *testing.T) {
	var dataCalls atomic.Int32

	ctrl, err := NewController(staticFetcher([]Entity{{ID: "1", Status: "ready"}}),
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) {
			dataCalls.Add(1)
		}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()
	if got := dataCalls.Load(); got != 1 {
		t.Errorf("data callbacks after first refresh = %v, want 1", got)
	}

	// identical payload: fingerprint unchanged, no redundant callback
	ctrl.Refresh()
	ctrl.Refresh()
	if got := dataCalls.Load(); got != 1 {
		t.Errorf("data callbacks after identical refreshes = %v, want 1", got)
	}
}

func TestController_ReorderedPayloadIsNotAChange(t *testing.T) {
	var dataCalls atomic.Int32
	var flip atomic.Bool

	fetcher := FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		if flip.Load() {
			return []Entity{{ID: "b", Status: "ready"}, {ID: "a", Status: "ready"}}, nil
		}
		return []Entity{{ID: "a", Status: "ready"}, {ID: "b", Status: "ready"}}, nil
	})

	ctrl, err := NewController(fetcher,
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) { dataCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()
	flip.Store(true)
	ctrl.Refresh()

	if got := dataCalls.Load(); got != 1 {
		t.Errorf("data callbacks = %v, want 1 (reorder is not a change)", got)
	}
}

func TestController_DataCallbackGetsSortedEntities(t *testing.T) {
	var got []Entity

	ctrl, err := NewController(staticFetcher([]Entity{
		{ID: "z", Status: "ready"},
		{ID: "a", Status: "ready"},
	}),
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) { got = entities }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()

	if len(got) != 2 {
		t.Fatalf("len(entities) = %v, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "z" {
		t.Errorf("entity order = [%s %s], want [a z]", got[0].ID, got[1].ID)
	}
}

func TestController_ReadyTransitionFiresExactlyOnce(t *testing.T) {
	var status atomic.Value
	status.Store("processing")
	var readyIDs []string

	fetcher := FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		return []Entity{{ID: "pres-1", Status: status.Load().(string), DisplayName: "Deck"}}, nil
	})

	ctrl, err := NewController(fetcher,
		WithControllerLogger(testLogger()),
		WithOnEntityReady(func(id string, e Entity) {
			readyIDs = append(readyIDs, id)
		}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh() // observed processing
	status.Store("ready")
	ctrl.Refresh() // processing -> ready: fires
	ctrl.Refresh() // still ready: must not fire again
	ctrl.Refresh()

	if len(readyIDs) != 1 {
		t.Fatalf("ready notifications = %v, want exactly 1", len(readyIDs))
	}
	if readyIDs[0] != "pres-1" {
		t.Errorf("ready id = %v, want pres-1", readyIDs[0])
	}
}

func TestController_ReadyTransitionRenderInterplay(t *testing.T) {
	var status atomic.Value
	status.Store("processing")
	var dataCalls, readyCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		return []Entity{{ID: "a", Status: status.Load().(string)}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) { dataCalls.Add(1) }),
		WithOnEntityReady(func(id string, e Entity) { readyCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh() // processing: renders
	status.Store("ready")
	ctrl.Refresh() // ready: renders (status changed) and notifies
	ctrl.Refresh() // still ready: neither

	if got := dataCalls.Load(); got != 2 {
		t.Errorf("data callbacks = %v, want 2", got)
	}
	if got := readyCalls.Load(); got != 1 {
		t.Errorf("ready notifications = %v, want 1", got)
	}
}

func TestController_AlreadyReadyOnFirstFetchDoesNotNotify(t *testing.T) {
	var readyCalls atomic.Int32

	ctrl, err := NewController(staticFetcher([]Entity{{ID: "1", Status: "ready"}}),
		WithControllerLogger(testLogger()),
		WithOnEntityReady(func(id string, e Entity) { readyCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()
	if got := readyCalls.Load(); got != 0 {
		t.Errorf("ready notifications = %v, want 0 for entities first seen ready", got)
	}
}

func TestController_FailureBackoff(t *testing.T) {
	var errCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		return nil, errors.New("backend down")
	}),
		WithControllerLogger(testLogger()),
		WithOnError(func(err error) { errCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	// defaults: base 10s, max 60s, multiplier 2
	wantIntervals := []time.Duration{20 * time.Second, 40 * time.Second, 60 * time.Second, 60 * time.Second}
	for i, want := range wantIntervals {
		ctrl.Refresh()
		if got := ctrl.ConsecutiveFailures(); got != i+1 {
			t.Errorf("ConsecutiveFailures() after %d failures = %v, want %v", i+1, got, i+1)
		}
		if got := ctrl.CurrentInterval(); got != want {
			t.Errorf("CurrentInterval() after %d failures = %v, want %v", i+1, got, want)
		}
	}

	if got := errCalls.Load(); got != int32(len(wantIntervals)) {
		t.Errorf("error callbacks = %v, want %v", got, len(wantIntervals))
	}
}

func TestController_SuccessResetsBackoff(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		if fail.Load() {
			return nil, errors.New("backend down")
		}
		return []Entity{{ID: "1", Status: "ready"}}, nil
	}),
		WithControllerLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()
	ctrl.Refresh()
	if got := ctrl.ConsecutiveFailures(); got != 2 {
		t.Fatalf("ConsecutiveFailures() = %v, want 2", got)
	}

	fail.Store(false)
	ctrl.Refresh()

	if got := ctrl.ConsecutiveFailures(); got != 0 {
		t.Errorf("ConsecutiveFailures() after success = %v, want 0", got)
	}
	if got := ctrl.CurrentInterval(); got != 10*time.Second {
		t.Errorf("CurrentInterval() after success = %v, want %v", got, 10*time.Second)
	}
}

func TestController_FailureKeepsLastGoodFingerprint(t *testing.T) {
	var dataCalls atomic.Int32
	var fail atomic.Bool

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		if fail.Load() {
			return nil, errors.New("backend down")
		}
		return []Entity{{ID: "1", Status: "ready"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) { dataCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh() // success, renders
	fail.Store(true)
	ctrl.Refresh() // failure: no data callback, fingerprint untouched
	fail.Store(false)
	ctrl.Refresh() // same payload as before the failure: still no change

	if got := dataCalls.Load(); got != 1 {
		t.Errorf("data callbacks = %v, want 1", got)
	}
}

func TestController_ConfigurationErrorStopsPolling(t *testing.T) {
	var errCalls atomic.Int32
	errored := make(chan struct{}, 4)

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		return nil, fmt.Errorf("%w: owner query parameter %q has no value", ErrConfiguration, "userId")
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{BaseInterval: 10 * time.Millisecond, ActiveInterval: 10 * time.Millisecond}),
		WithOnError(func(err error) {
			errCalls.Add(1)
			errored <- struct{}{}
		}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()

	select {
	case <-errored:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the configuration error")
	}

	// give a would-be retry time to happen, then verify it did not
	time.Sleep(100 * time.Millisecond)
	if ctrl.IsPolling() {
		t.Error("IsPolling() = true after a configuration error")
	}
	if got := errCalls.Load(); got != 1 {
		t.Errorf("error callbacks = %v, want 1 (no retries on configuration errors)", got)
	}

	// an explicit restart is allowed and polls again
	ctrl.Start()
	select {
	case <-errored:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the post-restart poll")
	}
}

func TestController_SingleFlight(t *testing.T) {
	entered := make(chan struct{}, 8)
	release := make(chan struct{})
	var fetchCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		entered <- struct{}{}
		<-release
		return nil, nil
	}),
		WithControllerLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	go ctrl.Refresh()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fetch to start")
	}

	// a refresh while a fetch is in flight is skipped, never queued
	ctrl.Refresh()
	ctrl.Refresh()

	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("concurrent fetches = %v, want 1", got)
	}
	close(release)
}

func TestController_StopIsIdempotent(t *testing.T) {
	ctrl, err := NewController(staticFetcher(nil), WithControllerLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	// stop before start, twice after: all no-ops, no panic
	ctrl.Stop()
	ctrl.Start()
	ctrl.Stop()
	ctrl.Stop()

	if ctrl.IsPolling() {
		t.Error("IsPolling() = true after Stop()")
	}
}

func TestController_StartIsIdempotent(t *testing.T) {
	var fetchCalls atomic.Int32
	fetched := make(chan struct{}, 8)

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		fetched <- struct{}{}
		return []Entity{{ID: "1", Status: "ready"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{BaseInterval: time.Hour, ActiveInterval: time.Hour, MaxInterval: 2 * time.Hour}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	ctrl.Start()
	ctrl.Start()

	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the initial poll")
	}
	time.Sleep(50 * time.Millisecond)

	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("fetches after repeated Start() = %v, want 1", got)
	}
}

func TestController_StopAppliesInFlightResultOnce(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var dataCalls atomic.Int32
	var fetchCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		entered <- struct{}{}
		<-release
		return []Entity{{ID: "1", Status: "ready"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{BaseInterval: 10 * time.Millisecond, ActiveInterval: 10 * time.Millisecond}),
		WithOnData(func(entities []Entity) { dataCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fetch to start")
	}

	ctrl.Stop()
	close(release)

	time.Sleep(100 * time.Millisecond)

	// the in-flight result is still applied exactly once, but no next tick runs
	if got := dataCalls.Load(); got != 1 {
		t.Errorf("data callbacks = %v, want 1", got)
	}
	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("fetches = %v, want 1 (no tick after Stop)", got)
	}
}

func TestController_CloseDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var dataCalls, errCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		entered <- struct{}{}
		<-release
		return []Entity{{ID: "1", Status: "ready"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) { dataCalls.Add(1) }),
		WithOnError(func(err error) { errCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Start()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fetch to start")
	}

	ctrl.Close()
	close(release)

	time.Sleep(100 * time.Millisecond)

	if got := dataCalls.Load(); got != 0 {
		t.Errorf("data callbacks after Close() = %v, want 0", got)
	}
	if got := errCalls.Load(); got != 0 {
		t.Errorf("error callbacks after Close() = %v, want 0", got)
	}
}

func TestController_CloseCancelsInFlightContext(t *testing.T) {
	cancelled := make(chan struct{})
	entered := make(chan struct{}, 1)

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		entered <- struct{}{}
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}),
		WithControllerLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Start()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fetch to start")
	}

	ctrl.Close()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("Close() did not cancel the in-flight fetch context")
	}
}

func TestController_StartAfterCloseIsNoOp(t *testing.T) {
	var fetchCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		return nil, nil
	}),
		WithControllerLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Close()
	ctrl.Start()
	ctrl.Refresh()

	time.Sleep(50 * time.Millisecond)

	if got := fetchCalls.Load(); got != 0 {
		t.Errorf("fetches after Close() = %v, want 0", got)
	}
	if ctrl.IsPolling() {
		t.Error("IsPolling() = true after Close()")
	}
}

func TestController_ActiveIntervalWhilePending(t *testing.T) {
	var fetchCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		return []Entity{{ID: "1", Status: "processing"}}, nil
	}),
		WithControllerLogger(testLogger()),
		// idle cadence is an hour; only the active cadence can produce
		// multiple polls within the test window
		WithTuning(Tuning{BaseInterval: time.Hour, MaxInterval: 2 * time.Hour, ActiveInterval: 15 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	time.Sleep(200 * time.Millisecond)
	ctrl.Stop()

	if got := fetchCalls.Load(); got < 3 {
		t.Errorf("fetches while pending = %v, want at least 3 (active cadence)", got)
	}
}

func TestController_IdleCadenceWhenNoPendingWork(t *testing.T) {
	var fetchCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		return []Entity{{ID: "1", Status: "ready"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{BaseInterval: time.Hour, MaxInterval: 2 * time.Hour, ActiveInterval: 15 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	time.Sleep(200 * time.Millisecond)

	// all entities terminal: the active cadence must not apply
	if got := fetchCalls.Load(); got != 1 {
		t.Errorf("fetches with no pending work = %v, want 1 (idle cadence)", got)
	}
}

func TestController_ActiveIntervalNotUsedAfterFailure(t *testing.T) {
	var fetchCalls atomic.Int32
	var fail atomic.Bool

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		if fail.Load() {
			return nil, errors.New("backend down")
		}
		return []Entity{{ID: "1", Status: "processing"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{BaseInterval: time.Hour, MaxInterval: 2 * time.Hour, ActiveInterval: 15 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	time.Sleep(50 * time.Millisecond)

	// pending work was seen, the active cadence is running; now start failing
	fail.Store(true)
	time.Sleep(60 * time.Millisecond)
	calls := fetchCalls.Load()

	// the first failure backs the interval off to base*multiplier (hours), so
	// no further fetch can happen inside the test window
	time.Sleep(100 * time.Millisecond)
	if got := fetchCalls.Load(); got != calls {
		t.Errorf("fetches = %v, want %v (active cadence must not survive a failure)", got, calls)
	}
	if got := ctrl.ConsecutiveFailures(); got < 1 {
		t.Errorf("ConsecutiveFailures() = %v, want at least 1", got)
	}
}

func TestController_StopAfterPolls(t *testing.T) {
	var fetchCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		fetchCalls.Add(1)
		return []Entity{{ID: "1", Status: "processing"}}, nil
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{
			BaseInterval:   10 * time.Millisecond,
			ActiveInterval: 10 * time.Millisecond,
			StopAfterPolls: 3,
		}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	time.Sleep(300 * time.Millisecond)

	if got := ctrl.TotalPolls(); got != 3 {
		t.Errorf("TotalPolls() = %v, want 3", got)
	}
	if ctrl.IsPolling() {
		t.Error("IsPolling() = true after the poll budget was exhausted")
	}
}

func TestController_StopWhenStable(t *testing.T) {
	ctrl, err := NewController(staticFetcher([]Entity{{ID: "1", Status: "ready"}}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{
			BaseInterval:   10 * time.Millisecond,
			ActiveInterval: 10 * time.Millisecond,
			StopWhenStable: 50 * time.Millisecond,
		}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer ctrl.Close()

	ctrl.Start()
	time.Sleep(300 * time.Millisecond)

	if ctrl.IsPolling() {
		t.Error("IsPolling() = true after the payload was stable past the threshold")
	}
	if got := ctrl.TotalPolls(); got < 2 {
		t.Errorf("TotalPolls() = %v, want at least 2 before stopping", got)
	}
}

func TestController_FetchTimeout(t *testing.T) {
	var gotErr error

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}),
		WithControllerLogger(testLogger()),
		WithTuning(Tuning{FetchTimeout: 20 * time.Millisecond}),
		WithOnError(func(err error) { gotErr = err }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()

	if gotErr == nil {
		t.Fatal("error callback not invoked for a timed-out fetch")
	}
	if !errors.Is(gotErr, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", gotErr)
	}
	if got := ctrl.ConsecutiveFailures(); got != 1 {
		t.Errorf("ConsecutiveFailures() = %v, want 1", got)
	}
}

func TestController_FetcherPanicCountsAsFailure(t *testing.T) {
	var errCalls atomic.Int32

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		panic("fetcher bug")
	}),
		WithControllerLogger(testLogger()),
		WithOnError(func(err error) { errCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh()

	if got := errCalls.Load(); got != 1 {
		t.Errorf("error callbacks = %v, want 1", got)
	}
	if got := ctrl.ConsecutiveFailures(); got != 1 {
		t.Errorf("ConsecutiveFailures() = %v, want 1", got)
	}
}

func TestController_CallbackPanicIsRecovered(t *testing.T) {
	payload := atomic.Value{}
	payload.Store([]Entity{{ID: "1", Status: "processing"}})

	ctrl, err := NewController(FetcherFunc(func(ctx context.Context) ([]Entity, error) {
		return payload.Load().([]Entity), nil
	}),
		WithControllerLogger(testLogger()),
		WithOnData(func(entities []Entity) {
			panic("renderer bug")
		}),
	)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	ctrl.Refresh() // callback panics; must not crash the tick

	// a panicking callback does not poison the controller state
	if got := ctrl.ConsecutiveFailures(); got != 0 {
		t.Errorf("ConsecutiveFailures() = %v, want 0", got)
	}

	payload.Store([]Entity{{ID: "1", Status: "ready"}})
	ctrl.Refresh() // still works, panics again, still no crash
}
