// Package feed is the in-process change feed between ledger operations and
// their observers (live aggregators, the websocket relay). Events carry just
// enough to say what moved; observers re-derive their views from the store.
package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	EventDeductionCreated EventType = "deduction_created"
	EventDeductionReturn  EventType = "deduction_returned"
	EventDeductionDeleted EventType = "deduction_deleted"
	EventProductChanged   EventType = "product_changed"
)

// Event notifies observers that the ledger or journal changed. Aggregators
// recompute in full from the store, so the payload is a pointer, not state.
type Event struct {
	Type        EventType `json:"type"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	At          time.Time `json:"at"`
}

// TouchesJournal reports whether the event changed the deduction journal.
func (e Event) TouchesJournal() bool {
	return e.Type != EventProductChanged
}

// Subscription is one observer's long-lived event channel. Close releases it;
// events published after Close are not delivered.
type Subscription struct {
	C    <-chan Event
	c    chan Event
	name string
	feed *Feed
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.unsubscribe(s)
		close(s.c)
	})
}

// Feed fans events out to subscribers. Delivery is non-blocking: a subscriber
// whose buffer is full misses the event, which only delays its next full
// recompute rather than corrupting it.
type Feed struct {
	mu   sync.Mutex
	subs map[string]*Subscription
	log  *zap.Logger
}

func New(log *zap.Logger) *Feed {
	return &Feed{
		subs: make(map[string]*Subscription),
		log:  log,
	}
}

// Subscribe registers the named observer. Each observer holds exactly one
// active subscription: re-subscribing under the same name closes the old one.
func (f *Feed) Subscribe(name string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	c := make(chan Event, buffer)
	sub := &Subscription{C: c, c: c, name: name, feed: f}

	f.mu.Lock()
	old := f.subs[name]
	f.subs[name] = sub
	f.mu.Unlock()

	if old != nil {
		old.once.Do(func() { close(old.c) })
		f.log.Warn("replaced existing feed subscription", zap.String("observer", name))
	}
	return sub
}

func (f *Feed) unsubscribe(sub *Subscription) {
	f.mu.Lock()
	if f.subs[sub.name] == sub {
		delete(f.subs, sub.name)
	}
	f.mu.Unlock()
}

// Publish pushes the event to every live subscription.
func (f *Feed) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for name, sub := range f.subs {
		select {
		case sub.c <- ev:
		default:
			f.log.Warn("feed subscriber lagging, event dropped",
				zap.String("observer", name),
				zap.String("event", string(ev.Type)))
		}
	}
}
