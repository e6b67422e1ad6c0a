package refreshkit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Well-known terminal status values. An entity whose status is terminal is
// no longer counted as pending work; anything else, including an empty
// status, keeps the widget on the active polling cadence.
const (
	// StatusReady indicates the resource finished processing successfully.
	// Transitions into this status fire the ready-notification callback.
	StatusReady = "ready"

	// StatusFailed indicates the resource finished processing unsuccessfully.
	StatusFailed = "failed"

	// StatusError indicates the backend reported an error for the resource.
	StatusError = "error"
)

// DefaultTerminalStatuses is the terminal status set used when none is
// configured via [WithTuning] or the Tuning struct.
var DefaultTerminalStatuses = []string{StatusReady, StatusFailed, StatusError}

// Entity is the presentation-relevant projection of a remote resource
// (a presentation, workspace, or file-processing job).
//
// Only the fields below participate in change detection: two payloads whose
// entities agree on all of them are considered equal and do not trigger a
// redundant data callback. Any other fields the backend returns are dropped
// at the fetch boundary.
type Entity struct {
	// ID is the backend identity of the resource.
	ID string `json:"id"`

	// Status is the backend-reported processing status (e.g. "uploading",
	// "processing", "ready"). Empty means the backend reported none, which
	// counts as pending work.
	Status string `json:"status"`

	// DisplayName is the user-facing name of the resource.
	DisplayName string `json:"display_name"`

	// FileName is the name of the file associated with the resource, if any.
	FileName string `json:"file_name"`

	// ThumbnailURL is a reference to the resource's thumbnail image, if any.
	ThumbnailURL string `json:"thumbnail_url"`

	// UpdatedAt is the backend's last-modified timestamp for the resource.
	UpdatedAt time.Time `json:"updated_at"`
}

// normalizeEntities returns a copy of entities sorted by ID.
//
// Sorting makes the fingerprint independent of the ordering the backend
// happens to return, so a reordered but otherwise identical payload does not
// count as a change.
func normalizeEntities(entities []Entity) []Entity {
	norm := make([]Entity, len(entities))
	copy(norm, entities)
	sort.Slice(norm, func(i, j int) bool {
		return norm[i].ID < norm[j].ID
	})
	return norm
}

// fingerprintEntities computes a deterministic fingerprint of an already
// normalized payload.
//
// The fingerprint is the SHA-256 of the canonical JSON encoding of the
// entities. Struct field order is fixed, so equal normalized payloads always
// produce equal fingerprints. The algorithm itself carries no meaning beyond
// determinism; only equality of fingerprints is ever inspected.
func fingerprintEntities(normalized []Entity) string {
	data, err := json.Marshal(normalized)
	if err != nil {
		// Entity contains only marshalable field types; this is unreachable
		// short of memory corruption. Fall back to an empty fingerprint so a
		// broken marshal reads as "changed" rather than crashing the tick.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// terminalSet converts a terminal status list to a lookup set.
func terminalSet(statuses []string) map[string]bool {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// hasPendingWork reports whether any entity is still in a non-terminal
// status. An absent (empty) status counts as pending.
func hasPendingWork(entities []Entity, terminal map[string]bool) bool {
	for _, e := range entities {
		if !terminal[e.Status] {
			return true
		}
	}
	return false
}

// readyTransitions returns the entities that moved from a previously
// observed non-terminal status to [StatusReady].
//
// Entities not present in prev are first observations and never reported,
// even if they arrive already ready. Entities that stay ready across ticks
// are reported at most once, on the tick that observed the transition.
func readyTransitions(prev map[string]string, entities []Entity, terminal map[string]bool) []Entity {
	var transitioned []Entity
	for _, e := range entities {
		if e.Status != StatusReady {
			continue
		}
		last, seen := prev[e.ID]
		if seen && !terminal[last] {
			transitioned = append(transitioned, e)
		}
	}
	return transitioned
}

// statusIndex builds the entity ID -> status map retained across ticks for
// transition tracking. The map covers exactly the current payload: entities
// that disappear are forgotten, so a later reappearance counts as a fresh
// first observation.
func statusIndex(entities []Entity) map[string]string {
	idx := make(map[string]string, len(entities))
	for _, e := range entities {
		idx[e.ID] = e.Status
	}
	return idx
}
