package services

import (
	"context"
	"time"

	"ideahub/microservices/projects-service/events"
	"ideahub/microservices/projects-service/logging"
)

// publish sends a domain event. Delivery failures are logged and never fail
// the write that caused them.
func publish(ctx context.Context, pub events.Publisher, eventType, subjectID string, data interface{}) {
	if pub == nil {
		return
	}
	e := events.Event{
		Type:       eventType,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if err := pub.Publish(ctx, e); err != nil {
		logging.Logger.Warnf("Event ID: EVENT_PUBLISH_FAILED, Description: Could not publish %s for %s: %v", eventType, subjectID, err)
	}
}
