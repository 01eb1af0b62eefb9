package seenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/gfiorillo/albowatch/internal/albo"
)

// GCSStore keeps the snapshot as a single JSON object in a Cloud Storage
// bucket. Authentication is handled via Application Default Credentials.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSStore initializes a GCS client and verifies bucket access,
// failing fast on startup if the configuration is wrong.
func NewGCSStore(ctx context.Context, bucket, object string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("access GCS bucket %q: %w", bucket, err)
	}

	return &GCSStore{client: client, bucket: bucket, object: object}, nil
}

// Load reads and decodes the snapshot object. A missing object yields an
// empty snapshot.
func (g *GCSStore) Load(ctx context.Context) (albo.Snapshot, error) {
	rc, err := g.client.Bucket(g.bucket).Object(g.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return albo.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot object: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read snapshot object: %w", err)
	}
	if len(data) == 0 {
		return albo.Snapshot{}, nil
	}

	var snapshot albo.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Commit rewrites the snapshot object. GCS object writes are atomic: the
// new content becomes visible only when the writer is closed successfully.
func (g *GCSStore) Commit(ctx context.Context, snapshot albo.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	wc := g.client.Bucket(g.bucket).Object(g.object).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write snapshot object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finalize snapshot object: %w", err)
	}
	return nil
}

// Close releases the GCS client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}
