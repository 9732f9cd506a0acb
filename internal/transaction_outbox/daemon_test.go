package transaction_outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suricat89/baas-core/internal/config"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
)

type stubEventsRepository struct {
	event  *models.TransactionEvent
	states map[string]string
}

func (s *stubEventsRepository) ReserveTransactionProcessedEvent(ctx context.Context) (*models.TransactionEvent, error) {
	e := s.event
	s.event = nil
	return e, nil
}

func (s *stubEventsRepository) SetState(ctx context.Context, uuid string, newState string) error {
	if s.states == nil {
		s.states = map[string]string{}
	}
	s.states[uuid] = newState
	return nil
}

type stubPublisher struct {
	published []*models.TransactionEvent
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, e *models.TransactionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, e)
	return nil
}

func newTestDaemon(t *testing.T, events OutboxEventsRepository, publisher EventsPublisher) *Daemon {
	t.Helper()

	lg, err := logging.NewZapLogger(&config.Config{LogLevel: 2})
	require.NoError(t, err)

	return &Daemon{lg: lg, events: events, publisher: publisher}
}

func testEvent() *models.TransactionEvent {
	return &models.TransactionEvent{
		UUID:  "event-1",
		State: models.TransactionEventNewState,
		Name:  models.TransactionProcessedEventName,
		Meta:  &models.TransactionEventMeta{TransactionUUID: "tran-1", Value: 100},
	}
}

func TestProcessEventPublishesAndFinishes(t *testing.T) {
	events := &stubEventsRepository{event: testEvent()}
	publisher := &stubPublisher{}
	dmn := newTestDaemon(t, events, publisher)

	require.NoError(t, dmn.processEvent(context.Background()))

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "tran-1", publisher.published[0].Meta.TransactionUUID)
	assert.Equal(t, models.TransactionEventFinishedState, events.states["event-1"])
}

func TestProcessEventMarksFailedOnPublishError(t *testing.T) {
	events := &stubEventsRepository{event: testEvent()}
	publisher := &stubPublisher{err: errors.New("broker unreachable")}
	dmn := newTestDaemon(t, events, publisher)

	err := dmn.processEvent(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.TransactionEventFailedState, events.states["event-1"])
}

func TestProcessEventNoopOnEmptyOutbox(t *testing.T) {
	events := &stubEventsRepository{}
	publisher := &stubPublisher{}
	dmn := newTestDaemon(t, events, publisher)

	require.NoError(t, dmn.processEvent(context.Background()))
	assert.Empty(t, publisher.published)
}
