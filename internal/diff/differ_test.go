package diff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gfiorillo/albowatch/internal/albo"
)

func records(ids ...string) []albo.Record {
	out := make([]albo.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, albo.Record{ID: id})
	}
	return out
}

func ids(recs []albo.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestUnseenFiltersKnownIDs(t *testing.T) {
	snapshot := albo.Snapshot{"1": {}, "3": {}}
	fresh := Unseen(records("1", "2", "3", "4"), snapshot)
	require.Equal(t, []string{"2", "4"}, ids(fresh))
}

func TestUnseenPreservesDiscoveryOrder(t *testing.T) {
	fresh := Unseen(records("9", "7", "8", "1"), albo.Snapshot{})
	require.Equal(t, []string{"9", "7", "8", "1"}, ids(fresh))
}

func TestUnseenYieldsDuplicateIDOnce(t *testing.T) {
	fresh := Unseen(records("5", "5", "6", "5"), albo.Snapshot{})
	require.Equal(t, []string{"5", "6"}, ids(fresh))
}

func TestUnseenSkipsEmptyID(t *testing.T) {
	fresh := Unseen(records("", "2"), albo.Snapshot{})
	require.Equal(t, []string{"2"}, ids(fresh))
}

func TestUnseenEmptyInput(t *testing.T) {
	require.Empty(t, Unseen(nil, albo.Snapshot{"1": {}}))
}
