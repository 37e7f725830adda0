package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/core/port"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/infra/logger"
)

const schemaVersion = "1.0"

// Event type names published to the bus.
const (
	EventLoginSucceeded = "auth.login.succeeded"
	EventLoginFailed    = "auth.login.failed"
	EventLoginThrottled = "auth.login.throttled"
	EventRoleCreated    = "roles.created"
	EventRoleUpdated    = "roles.updated"
	EventRoleDeleted    = "roles.deleted"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	SubjectID string           `json:"subject_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, subjectID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		SubjectID: subjectID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishLoginSucceeded publishes auth.login.succeeded events.
func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"kind":       event.Kind,
		"email":      logger.MaskEmail(event.Email),
		"role":       event.Role,
		"ip":         logger.MaskIP(event.IP),
	}
	return p.publish(ctx, EventLoginSucceeded, event.AccountID, event.At, payload)
}

// PublishLoginFailed publishes auth.login.failed events.
func (p *EventPublisher) PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error {
	payload := map[string]any{
		"kind":   event.Kind,
		"email":  logger.MaskEmail(event.Email),
		"reason": event.Reason,
		"ip":     logger.MaskIP(event.IP),
	}
	return p.publish(ctx, EventLoginFailed, "", event.At, payload)
}

// PublishLoginThrottled publishes auth.login.throttled events.
func (p *EventPublisher) PublishLoginThrottled(ctx context.Context, event domain.LoginThrottledEvent) error {
	payload := map[string]any{
		"kind": event.Kind,
		"ip":   logger.MaskIP(event.IP),
	}
	return p.publish(ctx, EventLoginThrottled, "", event.At, payload)
}

// PublishRoleCreated publishes roles.created events.
func (p *EventPublisher) PublishRoleCreated(ctx context.Context, event domain.RoleCreatedEvent) error {
	payload := map[string]any{
		"role_id":    event.RoleID,
		"slug":       event.Slug,
		"email":      logger.MaskEmail(event.Email),
		"created_by": event.CreatedBy,
	}
	return p.publish(ctx, EventRoleCreated, event.RoleID, event.At, payload)
}

// PublishRoleUpdated publishes roles.updated events.
func (p *EventPublisher) PublishRoleUpdated(ctx context.Context, event domain.RoleUpdatedEvent) error {
	payload := map[string]any{
		"role_id":    event.RoleID,
		"slug":       event.Slug,
		"updated_by": event.UpdatedBy,
	}
	return p.publish(ctx, EventRoleUpdated, event.RoleID, event.At, payload)
}

// PublishRoleDeleted publishes roles.deleted events.
func (p *EventPublisher) PublishRoleDeleted(ctx context.Context, event domain.RoleDeletedEvent) error {
	payload := map[string]any{
		"role_id":    event.RoleID,
		"slug":       event.Slug,
		"deleted_by": event.DeletedBy,
	}
	return p.publish(ctx, EventRoleDeleted, event.RoleID, event.At, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
