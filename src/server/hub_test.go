package server

import (
	"testing"
	"time"

	"quote-relay/src/models"
)

// startHub runs a hub and returns it with a stop function that waits for
// the loop to exit.
func startHub(t *testing.T) (*Hub, func()) {
	t.Helper()
	h := NewHub()
	finished := make(chan struct{})
	go func() {
		h.run()
		close(finished)
	}()

	stop := func() {
		h.stop()
		<-finished
	}
	t.Cleanup(stop)
	return h, stop
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count never reached %d (now %d)", want, h.ClientCount())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// -----------------------------------------------------------------------------

func TestHub_BroadcastToRegisteredClients(t *testing.T) {
	h, _ := startHub(t)

	client := &WsClient{hub: h, send: make(chan models.MPublishedQuote, 4)}
	h.register <- client
	waitForCount(t, h, 1)

	h.PublishQuote(models.MPublishedQuote{Symbol: "EURUSD", Line: "EURUSD 1.1 1.2"})

	select {
	case q := <-client.send:
		if q.Symbol != "EURUSD" {
			t.Errorf("got %q", q.Symbol)
		}
	case <-time.After(time.Second):
		t.Fatal("quote never reached the client")
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t)

	client := &WsClient{hub: h, send: make(chan models.MPublishedQuote, 1)}
	h.register <- client
	waitForCount(t, h, 1)

	h.unregister <- client
	waitForCount(t, h, 0)

	if _, ok := <-client.send; ok {
		t.Error("send channel must be closed on unregister")
	}
}

func TestHub_SlowClientEvicted(t *testing.T) {
	h, _ := startHub(t)

	// Unbuffered send with no reader: the first broadcast cannot be
	// delivered and must evict the client instead of blocking the hub.
	slow := &WsClient{hub: h, send: make(chan models.MPublishedQuote)}
	h.register <- slow
	waitForCount(t, h, 1)

	h.PublishQuote(models.MPublishedQuote{Symbol: "EURUSD"})
	waitForCount(t, h, 0)
}

func TestHub_ShutdownClosesEveryone(t *testing.T) {
	h, stop := startHub(t)

	a := &WsClient{hub: h, send: make(chan models.MPublishedQuote, 1)}
	b := &WsClient{hub: h, send: make(chan models.MPublishedQuote, 1)}
	h.register <- a
	h.register <- b
	waitForCount(t, h, 2)

	stop()
	waitForCount(t, h, 0)

	for _, c := range []*WsClient{a, b} {
		if _, ok := <-c.send; ok {
			t.Error("client send must be closed on shutdown")
		}
	}
}

func TestHub_DropClientAfterShutdownReturns(t *testing.T) {
	h, stop := startHub(t)

	client := &WsClient{hub: h, send: make(chan models.MPublishedQuote, 1)}
	h.register <- client
	waitForCount(t, h, 1)

	stop()

	// A client torn down after the loop has exited has no receiver for its
	// unregister; the hand-off must still return.
	returned := make(chan struct{})
	go func() {
		h.dropClient(client)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("dropClient blocked after hub shutdown")
	}
}
