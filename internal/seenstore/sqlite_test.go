package seenstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gfiorillo/albowatch/internal/albo"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	snapshot, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, snapshot)

	want := albo.Snapshot{
		"1": {Number: "1/2026", Subject: "Primo", Summary: "riassunto"},
		"2": {Number: "2/2026", Subject: "Secondo"},
	}
	require.NoError(t, store.Commit(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSQLiteStoreCommitReplacesWholesale(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Commit(ctx, albo.Snapshot{"old": {Number: "0"}}))

	next := albo.Snapshot{"old": {Number: "0"}, "new": {Number: "1"}}
	require.NoError(t, store.Commit(ctx, next))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, next, got)
}

func TestNoOpStore(t *testing.T) {
	store := &NoOpStore{}
	ctx := context.Background()

	snapshot, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, snapshot)

	require.NoError(t, store.Commit(ctx, albo.Snapshot{"1": {}}))

	snapshot, err = store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, snapshot, "noop store remembers nothing")
}
