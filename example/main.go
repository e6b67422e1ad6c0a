package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/refreshkit/refreshkit"
)

func main() {
	// start mock resource API (see mock_server.go)
	go StartMockResourceServer(":9999")
	time.Sleep(100 * time.Millisecond)

	grid, err := refreshkit.NewWidget("Workspace Grid", "http://localhost:9999/api/presentations",
		refreshkit.WithOwner("userId", "demo-user"),
		refreshkit.WithItemsKey("presentations"),
		refreshkit.WithWidgetTuning(refreshkit.Tuning{
			BaseInterval:   10 * time.Second,
			ActiveInterval: 2 * time.Second,
		}),
	)
	if err != nil {
		slog.Error("failed to create widget", "error", err)
		os.Exit(1)
	}

	hub, err := refreshkit.New(
		refreshkit.WithWidget(grid),
		refreshkit.WithPort(8080),
		refreshkit.WithReadyCallback(func(widget, id string, e refreshkit.Entity) {
			fmt.Printf("  >> %s: %q is ready\n", widget, e.DisplayName)
		}),
	)
	if err != nil {
		slog.Error("failed to create hub", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  RefreshKit Demo")
	fmt.Println()
	fmt.Println("  Snapshots:  http://localhost:8080/api/widgets")
	fmt.Println("  Live feed:  http://localhost:8080/api/sse")
	fmt.Println()
	fmt.Println("  The mock presentations advance uploading -> processing -> ready;")
	fmt.Println("  watch the polling cadence tighten while work is pending and the")
	fmt.Println("  ready notifications fire exactly once per presentation.")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := hub.Start(ctx); err != nil {
		slog.Error("refreshkit error", "error", err)
		os.Exit(1)
	}
}
