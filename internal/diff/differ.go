// Package diff filters crawled records against the persisted seen-state.
package diff

import (
	"github.com/gfiorillo/albowatch/internal/albo"
)

// Unseen returns the records whose ID is absent from the snapshot,
// preserving the input (discovery) order. A record whose ID repeats
// within the same traversal is yielded only once.
func Unseen(records []albo.Record, snapshot albo.Snapshot) []albo.Record {
	var out []albo.Record
	yielded := make(map[string]struct{}, len(records))

	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, seen := snapshot[r.ID]; seen {
			continue
		}
		if _, dup := yielded[r.ID]; dup {
			continue
		}
		yielded[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
