package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeed(t *testing.T) {
	t.Run("DeliversToSubscriber", func(t *testing.T) {
		f := New(zap.NewNop())
		sub := f.Subscribe("observer", 4)
		defer sub.Close()

		f.Publish(Event{Type: EventDeductionCreated, ProductName: "Rice"})

		select {
		case ev := <-sub.C:
			require.Equal(t, EventDeductionCreated, ev.Type)
			require.Equal(t, "Rice", ev.ProductName)
			require.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	})

	t.Run("FansOutToAllSubscribers", func(t *testing.T) {
		f := New(zap.NewNop())
		a := f.Subscribe("a", 4)
		b := f.Subscribe("b", 4)
		defer a.Close()
		defer b.Close()

		f.Publish(Event{Type: EventProductChanged})
		require.Len(t, a.C, 1)
		require.Len(t, b.C, 1)
	})

	t.Run("CloseStopsDelivery", func(t *testing.T) {
		f := New(zap.NewNop())
		sub := f.Subscribe("observer", 4)
		sub.Close()

		f.Publish(Event{Type: EventProductChanged})

		_, open := <-sub.C
		require.False(t, open)
	})

	t.Run("ResubscribeReplacesOldSubscription", func(t *testing.T) {
		f := New(zap.NewNop())
		old := f.Subscribe("monitor", 4)
		fresh := f.Subscribe("monitor", 4)
		defer fresh.Close()

		// One subscription per observer: the old channel closes, and the
		// event reaches only the replacement.
		_, open := <-old.C
		require.False(t, open)

		f.Publish(Event{Type: EventDeductionDeleted})
		require.Len(t, fresh.C, 1)
	})

	t.Run("FullBufferDropsInsteadOfBlocking", func(t *testing.T) {
		f := New(zap.NewNop())
		sub := f.Subscribe("slow", 1)
		defer sub.Close()

		done := make(chan struct{})
		go func() {
			f.Publish(Event{Type: EventProductChanged})
			f.Publish(Event{Type: EventProductChanged})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a slow subscriber")
		}
		require.Len(t, sub.C, 1)
	})

	t.Run("JournalEventClassification", func(t *testing.T) {
		require.True(t, Event{Type: EventDeductionCreated}.TouchesJournal())
		require.True(t, Event{Type: EventDeductionReturn}.TouchesJournal())
		require.True(t, Event{Type: EventDeductionDeleted}.TouchesJournal())
		require.False(t, Event{Type: EventProductChanged}.TouchesJournal())
	})
}
