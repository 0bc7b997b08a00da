package ledger

import (
	"context"
	"encoding/json"
	"sync"

	"nannylink/internal/events"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
)

// Watcher turns the event stream into per-user summary subscriptions.
// Every delivery is a complete replacement snapshot, never a delta: a
// consumer may drop any number of intermediate deliveries and still hold
// a consistent view after the last one.
type Watcher struct {
	summarizer summarizer
	logger     *zerolog.Logger

	mu   sync.Mutex
	subs map[int64]*subscription
	next int64
}

type summarizer interface {
	Summarize(ctx context.Context, userID string) (*models.Summary, error)
}

type subscription struct {
	userID string
	ctx    context.Context
	ch     chan *models.Summary

	mu     sync.Mutex
	closed bool
}

func NewWatcher(bus *events.EventBus, s summarizer, logger *zerolog.Logger) *Watcher {
	w := &Watcher{
		summarizer: s,
		logger:     logger,
		subs:       make(map[int64]*subscription),
	}
	bus.SubscribeAll(events.AllEventTypes(), w.handle)
	return w
}

// Watch delivers a fresh summary snapshot whenever an event touching the
// user fires. The channel closes when ctx is done; consuming stops there,
// mirroring "stop listening when the view is torn down".
func (w *Watcher) Watch(ctx context.Context, userID string) (<-chan *models.Summary, error) {
	sub := &subscription{
		userID: userID,
		ctx:    ctx,
		ch:     make(chan *models.Summary, 1),
	}

	w.mu.Lock()
	w.next++
	id := w.next
	w.subs[id] = sub
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()

		sub.mu.Lock()
		sub.closed = true
		close(sub.ch)
		sub.mu.Unlock()
	}()

	// Seed with the current state so consumers never start blind. The
	// teardown goroutine may already have closed the channel, so the seed
	// goes through deliver like every other snapshot.
	summary, err := w.summarizer.Summarize(ctx, userID)
	if err != nil {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
		return nil, err
	}
	w.deliver(sub, summary)

	return sub.ch, nil
}

func (w *Watcher) handle(event *events.Event) error {
	var payload events.PairEventPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			w.logger.Error().Err(err).Str("event_type", event.Type).Msg("watcher: bad event payload")
			return err
		}
	}

	w.mu.Lock()
	matched := make([]*subscription, 0, 2)
	for _, sub := range w.subs {
		if sub.userID == payload.EmployerID || sub.userID == payload.NannyID {
			matched = append(matched, sub)
		}
	}
	w.mu.Unlock()

	for _, sub := range matched {
		summary, err := w.summarizer.Summarize(sub.ctx, sub.userID)
		if err != nil {
			w.logger.Error().Err(err).Str("user_id", sub.userID).Msg("watcher: summary recompute failed")
			continue
		}
		w.deliver(sub, summary)
	}
	return nil
}

// deliver replaces any undelivered snapshot with the newer one.
func (w *Watcher) deliver(sub *subscription, summary *models.Summary) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- summary:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}
