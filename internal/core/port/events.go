package port

import (
	"context"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
)

// EventPublisher publishes gateway security events to the message bus.
type EventPublisher interface {
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishLoginThrottled(ctx context.Context, event domain.LoginThrottledEvent) error
	PublishRoleCreated(ctx context.Context, event domain.RoleCreatedEvent) error
	PublishRoleUpdated(ctx context.Context, event domain.RoleUpdatedEvent) error
	PublishRoleDeleted(ctx context.Context, event domain.RoleDeletedEvent) error
}
