package seenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gfiorillo/albowatch/internal/albo"
)

func newTestGistStore(serverURL string) *GistStore {
	store := NewGistStore("gist123", "secret", "state.json")
	store.baseURL = serverURL
	return store
}

func TestGistStoreLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/gist123", r.URL.Path)
		require.Equal(t, "token secret", r.Header.Get("Authorization"))

		content := `{"42": {"numero": "7/2026", "oggetto": "Bilancio"}}`
		fmt.Fprintf(w, `{"files": {"state.json": {"content": %q}}}`, content)
	}))
	defer server.Close()

	snapshot, err := newTestGistStore(server.URL).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Equal(t, "7/2026", snapshot["42"].Number)
	require.Equal(t, "Bilancio", snapshot["42"].Subject)
}

func TestGistStoreLoadEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"files": {"state.json": {"content": "  "}}}`)
	}))
	defer server.Close()

	snapshot, err := newTestGistStore(server.URL).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot)
}

func TestGistStoreLoadMissingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"files": {}}`)
	}))
	defer server.Close()

	snapshot, err := newTestGistStore(server.URL).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot)
}

func TestGistStoreLoadUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestGistStore(server.URL).Load(context.Background())
	require.Error(t, err)
}

func TestGistStoreCommit(t *testing.T) {
	var received gistDocument
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/gist123", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	snapshot := albo.Snapshot{"42": {Number: "7/2026", Subject: "Bilancio"}}
	require.NoError(t, newTestGistStore(server.URL).Commit(context.Background(), snapshot))

	file, ok := received.Files["state.json"]
	require.True(t, ok)

	var stored albo.Snapshot
	require.NoError(t, json.Unmarshal([]byte(file.Content), &stored))
	require.Equal(t, snapshot, stored)
}

func TestGistStoreCommitUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	err := newTestGistStore(server.URL).Commit(context.Background(), albo.Snapshot{})
	require.Error(t, err)
}
