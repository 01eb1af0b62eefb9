package seenstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gfiorillo/albowatch/internal/albo"
)

const gistAPIBase = "https://api.github.com/gists"

// GistStore keeps the snapshot as one file inside a GitHub Gist,
// mirroring the register's original deployment where the Gist acts as a
// tiny remote key-value document.
type GistStore struct {
	gistID   string
	token    string
	filename string
	baseURL  string
	client   *http.Client
}

// NewGistStore builds a GistStore for the given gist and file.
func NewGistStore(gistID, token, filename string) *GistStore {
	return &GistStore{
		gistID:   gistID,
		token:    token,
		filename: filename,
		baseURL:  gistAPIBase,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type gistFile struct {
	Content string `json:"content"`
}

type gistDocument struct {
	Files map[string]gistFile `json:"files"`
}

// Load fetches the gist and decodes the snapshot file. A gist without the
// file, or with blank content, yields an empty snapshot.
func (g *GistStore) Load(ctx context.Context) (albo.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.gistURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build gist request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch gist: unexpected status %d", resp.StatusCode)
	}

	var doc gistDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gist: %w", err)
	}

	file, ok := doc.Files[g.filename]
	if !ok || strings.TrimSpace(file.Content) == "" {
		return albo.Snapshot{}, nil
	}

	var snapshot albo.Snapshot
	if err := json.Unmarshal([]byte(file.Content), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Commit replaces the snapshot file's content in one PATCH call.
func (g *GistStore) Commit(ctx context.Context, snapshot albo.Snapshot) error {
	content, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	payload, err := json.Marshal(gistDocument{
		Files: map[string]gistFile{g.filename: {Content: string(content)}},
	})
	if err != nil {
		return fmt.Errorf("encode gist payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, g.gistURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gist request: %w", err)
	}
	g.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("update gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update gist: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Close for GistStore does nothing; the HTTP client holds no resources.
func (g *GistStore) Close() error { return nil }

func (g *GistStore) gistURL() string {
	return g.baseURL + "/" + g.gistID
}

func (g *GistStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}
