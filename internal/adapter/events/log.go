package events

import (
	"context"

	"landq-backend/internal/domain/event"
	"landq-backend/internal/infrastructure/logger"
)

// LogPublisher writes events to the service log when no broker is configured.
type LogPublisher struct{ log *logger.Logger }

func NewLogPublisher(l *logger.Logger) *LogPublisher { return &LogPublisher{log: l} }

func (p *LogPublisher) Publish(_ context.Context, e event.Event) error {
	p.log.Info("event",
		"event_id", e.ID,
		"type", e.Type,
		"parcel_id", e.ParcelID,
		"region", e.Region,
		"actor", e.Actor,
		"state", e.State,
		"data", e.Data,
	)
	return nil
}
