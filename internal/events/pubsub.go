package events

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
)

// PubSubClient publishes note activity events to Google Cloud Pub/Sub.
type PubSubClient struct {
	client *pubsub.Client
}

// NewPubSubClient constructs a Pub/Sub backend for the project.
func NewPubSubClient(ctx context.Context, projectID string) (*PubSubClient, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &PubSubClient{client: client}, nil
}

// Publish sends a message to the named topic, creating it on first
// use.
func (p *PubSubClient) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("pubsub topic is required")
	}

	t, err := p.ensureTopic(ctx, topic)
	if err != nil {
		return "", err
	}
	result := t.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Close closes the underlying Pub/Sub client.
func (p *PubSubClient) Close() error {
	return p.client.Close()
}

func (p *PubSubClient) ensureTopic(ctx context.Context, name string) (*pubsub.Topic, error) {
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, name)
	}
	return topic, nil
}
