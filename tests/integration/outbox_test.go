package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/infrastructure/eventpublisher"
	"github.com/iho/fundsbook/tests/testutil"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func (p *capturePublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

func TestEntryWritesOutboxEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	app := testutil.NewApp(t)

	owner := app.SignUp(ctx, "oscar")
	book := newBook(t, app, owner, "Outbox")
	entry := addEntry(t, app, owner.User.ID, book.ID, "12.34", domain.EntryTypeOut, "lunch")

	events, err := app.OutboxRepo.GetUnpublished(ctx, 100)
	require.NoError(t, err)

	var entryEvent *domain.OutboxEvent
	for _, e := range events {
		if e.EventType == domain.EventTypeEntryCreated && e.AggregateID == entry.ID {
			entryEvent = e
		}
	}
	require.NotNil(t, entryEvent, "entry created event not found in outbox")

	assert.Equal(t, domain.AggregateTypeEntry, entryEvent.AggregateType)
	assert.False(t, entryEvent.Published)
	assert.Equal(t, book.ID, entryEvent.Payload["book_id"])
	assert.Equal(t, "12.34", entryEvent.Payload["amount"])
	assert.Equal(t, "OUT", entryEvent.Payload["type"])
}

func TestEventPublisherDrainsOutbox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	app := testutil.NewApp(t)

	owner := app.SignUp(ctx, "peggy")
	book := newBook(t, app, owner, "Drain")
	addEntry(t, app, owner.User.ID, book.ID, "1", domain.EntryTypeIn, "")

	sink := &capturePublisher{}
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: app.OutboxRepo,
		Publisher:  sink,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   50 * time.Millisecond,
	})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- publisher.Start(runCtx) }()

	require.Eventually(t, func() bool {
		return app.DB.CountRows(ctx, "outbox_events", "NOT published") == 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))

	types := sink.types()
	assert.Equal(t, []string{
		domain.EventTypeBookshelfCreated,
		domain.EventTypeBookCreated,
		domain.EventTypeEntryCreated,
	}, types)
}
