package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// mockResource is one simulated presentation working its way through the
// processing pipeline.
type mockResource struct {
	id        string
	name      string
	fileName  string
	stageIdx  int
	nextStage time.Time
	updatedAt time.Time
}

// processing stages each resource advances through
var stages = []string{"uploading", "processing", "ready"}

// StartMockResourceServer runs a mock resource API whose presentations
// advance uploading -> processing -> ready over time, so ready-transition
// notifications and the active polling cadence can be observed.
//
// Call this in a goroutine before creating widgets. The endpoint is
// GET /api/presentations?userId=... and responds with
// {"presentations": [...]}.
func StartMockResourceServer(addr string) {
	var (
		mu        sync.Mutex
		resources = []*mockResource{}
		nextID    = 1
	)

	now := time.Now()
	for i := 0; i < 3; i++ {
		resources = append(resources, &mockResource{
			id:        fmt.Sprintf("pres-%d", nextID),
			name:      fmt.Sprintf("Quarterly Deck %d", nextID),
			fileName:  fmt.Sprintf("deck-%d.pdf", nextID),
			stageIdx:  0,
			nextStage: now.Add(time.Duration(5+3*i) * time.Second),
			updatedAt: now,
		})
		nextID++
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
		resp := map[string]any{"presentations": list}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
