// Standalone mock resource server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/refreshkit serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

type mockResource struct {
	id        string
	name      string
	fileName  string
	stageIdx  int
	nextStage time.Time
	updatedAt time.Time
}

var stages = []string{"uploading", "processing", "ready"}

func main() {
	fmt.Println("Mock resource server starting on :9999")
	fmt.Println("Presentations advance: uploading -> processing -> ready")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu        sync.Mutex
		resources []*mockResource
	)

	now := time.Now()
	for i := 1; i <= 3; i++ {
		resources = append(resources, &mockResource{
			id:        fmt.Sprintf("pres-%d", i),
			name:      fmt.Sprintf("Quarterly Deck %d", i),
			fileName:  fmt.Sprintf("deck-%d.pdf", i),
			nextStage: now.Add(time.Duration(5+3*i) * time.Second),
			updatedAt: now,
		})
	}

	http.HandleFunc("/api/presentations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		mu.Lock()
		now := time.Now()
		for _, res := range resources {
			if res.stageIdx < len(stages)-1 && now.After(res.nextStage) {
				res.stageIdx++
				res.nextStage = now.Add(time.Duration(5+res.stageIdx*3) * time.Second)
				res.updatedAt = now
				slog.Info("stage change", "id", res.id, "status", stages[res.stageIdx])
			}
		}

		type wireResource struct {
			ID        string    `json:"id"`
			Status    string    `json:"status"`
			Name      string    `json:"name"`
			FileName  string    `json:"fileName"`
			Thumbnail string    `json:"thumbnail"`
			UpdatedAt time.Time `json:"updatedAt"`
		}

		list := make([]wireResource, 0, len(resources))
		for _, res := range resources {
			list = append(list, wireResource{
				ID:        res.id,
				Status:    stages[res.stageIdx],
				Name:      res.name,
				FileName:  res.fileName,
				Thumbnail: "/thumbs/" + res.id + ".png",
				UpdatedAt: res.updatedAt,
			})
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"presentations": list})
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
