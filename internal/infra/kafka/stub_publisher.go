package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/core/port"
	"github.com/husnainn01/dealership-gateway/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, subjectID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("subject_id", subjectID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishLoginSucceeded logs auth.login.succeeded events.
func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.logEvent(EventLoginSucceeded, event.AccountID, event.At, map[string]any{
		"kind":  event.Kind,
		"email": logger.MaskEmail(event.Email),
		"role":  event.Role,
		"ip":    logger.MaskIP(event.IP),
	})
	return nil
}

// PublishLoginFailed logs auth.login.failed events.
func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.logEvent(EventLoginFailed, "", event.At, map[string]any{
		"kind":   event.Kind,
		"email":  logger.MaskEmail(event.Email),
		"reason": event.Reason,
		"ip":     logger.MaskIP(event.IP),
	})
	return nil
}

// PublishLoginThrottled logs auth.login.throttled events.
func (p *StubPublisher) PublishLoginThrottled(_ context.Context, event domain.LoginThrottledEvent) error {
	p.logEvent(EventLoginThrottled, "", event.At, map[string]any{
		"kind": event.Kind,
		"ip":   logger.MaskIP(event.IP),
	})
	return nil
}

// PublishRoleCreated logs roles.created events.
func (p *StubPublisher) PublishRoleCreated(_ context.Context, event domain.RoleCreatedEvent) error {
	p.logEvent(EventRoleCreated, event.RoleID, event.At, map[string]any{
		"slug":       event.Slug,
		"email":      logger.MaskEmail(event.Email),
		"created_by": event.CreatedBy,
	})
	return nil
}

// PublishRoleUpdated logs roles.updated events.
func (p *StubPublisher) PublishRoleUpdated(_ context.Context, event domain.RoleUpdatedEvent) error {
	p.logEvent(EventRoleUpdated, event.RoleID, event.At, map[string]any{
		"slug":       event.Slug,
		"updated_by": event.UpdatedBy,
	})
	return nil
}

// PublishRoleDeleted logs roles.deleted events.
func (p *StubPublisher) PublishRoleDeleted(_ context.Context, event domain.RoleDeletedEvent) error {
	p.logEvent(EventRoleDeleted, event.RoleID, event.At, map[string]any{
		"slug":       event.Slug,
		"deleted_by": event.DeletedBy,
	})
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
