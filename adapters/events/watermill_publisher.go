package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	TopicAuthenticated = "webauth.authenticated"
	TopicRejected      = "webauth.rejected"
)

// AuthenticatedEvent is published after a token was issued
type AuthenticatedEvent struct {
	Subject      string `json:"subject"`
	ClientDomain string `json:"client_domain,omitempty"`
	TokenID      string `json:"token_id"`
}

// RejectedEvent is published when a challenge is forged or its client
// signature is rejected by the ledger
type RejectedEvent struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishAuthenticated publishes an authentication event
func (p *WatermillPublisher) PublishAuthenticated(ctx context.Context, subject, clientDomain, tokenID string) error {
	return p.publish(ctx, TopicAuthenticated, AuthenticatedEvent{
		Subject:      subject,
		ClientDomain: clientDomain,
		TokenID:      tokenID,
	})
}

// PublishRejected publishes a rejection event
func (p *WatermillPublisher) PublishRejected(ctx context.Context, kind, reason string) error {
	return p.publish(ctx, TopicRejected, RejectedEvent{Kind: kind, Reason: reason})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
