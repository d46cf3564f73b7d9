package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type testSubscriber struct {
	ch     chan []byte
	fail   bool
	mu     sync.Mutex
	closed bool
}

func newTestSubscriber() *testSubscriber {
	return &testSubscriber{ch: make(chan []byte, 8)}
}

func (s *testSubscriber) Send(payload []byte) error {
	if s.fail {
		return errors.New("broken pipe")
	}
	s.ch <- payload
	return nil
}

func (s *testSubscriber) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *testSubscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHubPublishesEnvelope(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	sub := newTestSubscriber()
	hub.Register(sub)
	waitFor(t, func() bool { return hub.Count() == 1 })

	hub.Publish(TypeData, map[string]float64{"gas": 12})

	select {
	case payload := <-sub.ch:
		var msg map[string]any
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg["type"] != TypeData {
			t.Fatalf("expected type data, got %v", msg["type"])
		}
		body, ok := msg["payload"].(map[string]any)
		if !ok || body["gas"] != float64(12) {
			t.Fatalf("unexpected payload %v", msg["payload"])
		}
	case <-time.After(time.Second):
		t.Fatal("expected broadcast")
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	bad := newTestSubscriber()
	bad.fail = true
	good := newTestSubscriber()
	hub.Register(bad)
	hub.Register(good)
	waitFor(t, func() bool { return hub.Count() == 2 })

	hub.Publish(TypeAlert, "Gas Leakage")

	select {
	case <-good.ch:
	case <-time.After(time.Second):
		t.Fatal("expected healthy subscriber to receive alert")
	}
	waitFor(t, func() bool { return hub.Count() == 1 && bad.isClosed() })
}

func TestHubUnregisterAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	a := newTestSubscriber()
	b := newTestSubscriber()
	hub.Register(a)
	hub.Register(b)
	hub.Unregister(a)
	waitFor(t, func() bool { return hub.Count() == 1 && a.isClosed() })

	cancel()
	<-done
	if !b.isClosed() || hub.Count() != 0 {
		t.Fatal("expected remaining subscribers to be closed on shutdown")
	}

	// после остановки вызовы не блокируются
	late := newTestSubscriber()
	hub.Register(late)
	hub.Unregister(late)
	if !late.isClosed() {
		t.Fatal("expected late subscriber to be closed immediately")
	}
}

func TestHubPublishWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 1000; i++ {
		hub.Publish(TypeData, i)
	}
}
