// Package seenstore persists the set of already processed register
// entries. The store holds a single JSON-shaped snapshot that is read
// once per run and replaced wholesale on commit; this abstraction allows
// the application to be independent of where the snapshot lives
// (a GitHub Gist, a Cloud Storage object, or a local database).
package seenstore

import (
	"context"

	"github.com/gfiorillo/albowatch/internal/albo"
)

// Store defines the common interface for a seen-state provider.
type Store interface {
	// Load reads the current snapshot. A missing or empty document is
	// not an error and yields an empty snapshot.
	Load(ctx context.Context) (albo.Snapshot, error)

	// Commit replaces the stored snapshot in a single operation.
	Commit(ctx context.Context, snapshot albo.Snapshot) error

	// Close releases provider resources.
	Close() error
}

// NoOpStore is a store that remembers nothing. It is useful for dry runs
// where every entry is treated as new and nothing is persisted.
type NoOpStore struct{}

// Load for NoOpStore always returns an empty snapshot.
func (n *NoOpStore) Load(_ context.Context) (albo.Snapshot, error) {
	return albo.Snapshot{}, nil
}

// Commit for NoOpStore discards the snapshot.
func (n *NoOpStore) Commit(_ context.Context, _ albo.Snapshot) error {
	return nil
}

// Close for NoOpStore does nothing.
func (n *NoOpStore) Close() error { return nil }
