package service

import (
	"context"
	"encoding/json"

	"nannylink/internal/domain"
	"nannylink/internal/events"
	"nannylink/internal/metrics"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
)

// changeJournal is the slice of the store recordTransition writes to.
type changeJournal interface {
	AppendChange(ctx context.Context, rec *models.ChangeRecord) error
}

// recordTransition appends the change to the log, publishes the domain
// event and counts it. The append is the durable part; a failed publish
// is logged and swallowed because the refresh worker drains the log
// independently of the bus. A failed append is counted so operators can
// tell the replayed history has a gap.
func recordTransition(ctx context.Context, journal changeJournal, bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload events.PairEventPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload error")
		return
	}

	rec := &models.ChangeRecord{
		EventType:  eventType,
		EntityID:   payload.EntityID,
		EmployerID: payload.EmployerID,
		NannyID:    payload.NannyID,
		Payload:    string(raw),
	}
	if err := journal.AppendChange(ctx, rec); err != nil {
		metrics.IncJournalAppendError()
		logger.Error().Err(err).Str("event_type", eventType).Str("entity_id", payload.EntityID).Msg("append change error")
	}

	if bus != nil {
		if err := bus.PublishJSON(eventType, payload); err != nil {
			logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
		}
	}

	metrics.IncTransition(eventType)
}
