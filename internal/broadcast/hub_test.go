package broadcast

import (
	"sync"
	"testing"
	"time"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()

	idA, chA := hub.Subscribe()
	idB, chB := hub.Subscribe()
	defer hub.Unsubscribe(idA)
	defer hub.Unsubscribe(idB)

	hub.Notify("p1", 7)

	for _, ch := range []<-chan StockUpdate{chA, chB} {
		select {
		case update := <-ch:
			if update.ProductID != "p1" || update.Stock != 7 {
				t.Fatalf("unexpected update: %+v", update)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive update")
		}
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()

	id, ch := hub.Subscribe()
	hub.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.SubscriberCount())
	}

	// double unsubscribe is a no-op
	hub.Unsubscribe(id)
}

func TestHubNotifyNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub()

	id, _ := hub.Subscribe()
	defer hub.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		// nobody drains the channel; fills the buffer and keeps going
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Notify("p1", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow subscriber")
	}
}

func TestHubConcurrentNotifyAndSubscribe(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id, _ := hub.Subscribe()
			hub.Unsubscribe(id)
		}()
		go func(n int) {
			defer wg.Done()
			hub.Notify("p1", n)
		}(i)
	}
	wg.Wait()
}
