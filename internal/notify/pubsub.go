package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/gfiorillo/albowatch/internal/albo"
)

// PubSubProvider publishes notifications to a Google Cloud Pub/Sub topic
// instead of a chat, for deployments that feed the register's new acts
// into a downstream system. Authentication uses Application Default
// Credentials.
type PubSubProvider struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubProvider creates a Pub/Sub client and verifies the topic
// exists, failing fast on startup if the configuration is wrong.
func NewPubSubProvider(ctx context.Context, projectID, topicName string) (*PubSubProvider, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicName, err)
	}
	if !exists {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicName, projectID)
	}

	return &PubSubProvider{client: client, topic: topic}, nil
}

type pubsubPayload struct {
	ID      string `json:"id"`
	Number  string `json:"numero"`
	Subject string `json:"oggetto"`
	URL     string `json:"url_dettaglio"`
	Message string `json:"message"`
}

// Notify publishes one JSON message per record and waits for the server
// acknowledgement, so delivery reporting matches the Telegram provider.
func (p *PubSubProvider) Notify(ctx context.Context, rec albo.Record) (bool, error) {
	data, err := json.Marshal(pubsubPayload{
		ID:      rec.ID,
		Number:  rec.Number,
		Subject: rec.Subject,
		URL:     rec.DetailURL,
		Message: RenderMessage(rec),
	})
	if err != nil {
		return false, fmt.Errorf("encode notification: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return false, fmt.Errorf("publish notification: %w", err)
	}
	return true, nil
}

// Close stops the topic publisher and the underlying client.
func (p *PubSubProvider) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
