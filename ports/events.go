package ports

import "context"

// EventPublisher publishes authentication outcomes to other services
type EventPublisher interface {
	PublishAuthenticated(ctx context.Context, subject, clientDomain, tokenID string) error
	PublishRejected(ctx context.Context, kind, reason string) error
}
