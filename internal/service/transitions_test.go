package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"nannylink/internal/events"
	"nannylink/internal/metrics"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type failingJournal struct{}

func (failingJournal) AppendChange(ctx context.Context, rec *models.ChangeRecord) error {
	return errors.New("disk full")
}

func TestRecordTransitionCountsJournalFailure(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()

	var published []string
	bus.SubscribeAll(events.AllEventTypes(), func(event *events.Event) error {
		published = append(published, event.Type)
		return nil
	})

	before := metrics.JournalAppendErrorCount()
	recordTransition(context.Background(), failingJournal{}, bus, &logger,
		events.EventPaymentConfirmed, events.PairEventPayload{EntityID: "p1", EmployerID: "e1", NannyID: "n1"})

	// The gap in the journal is counted, and bus consumers still hear
	// about the committed transition.
	assert.Equal(t, before+1, metrics.JournalAppendErrorCount())
	assert.Equal(t, []string{events.EventPaymentConfirmed}, published)
}
