package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsubscribe")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventIngestFile, Data: map[string]string{"name": "budget.txt", "outcome": "added"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: ingest.file") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"name":"budget.txt"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishDocumentEvent_StatsThrottle(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	b := NewBroker(500*time.Millisecond, func() any {
		mu.Lock()
		calls++
		mu.Unlock()
		return map[string]int{"document_count": 1}
	})
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("added", "id1", "a.txt")
	b.PublishDocumentEvent("deleted", "id1", "a.txt")
	b.PublishDocumentEvent("unknown", "x", "y")

	time.Sleep(50 * time.Millisecond)
	var added, deleted, stats int
	for _, s := range drain(ch) {
		switch {
		case strings.Contains(s, "event: "+EventDocumentAdded):
			added++
			if !strings.Contains(s, `"title":"a.txt"`) {
				t.Errorf("added event missing title: %q", s)
			}
		case strings.Contains(s, "event: "+EventDocumentDeleted):
			deleted++
		case strings.Contains(s, "event: "+EventStatsUpdated):
			stats++
			if !strings.Contains(s, `"document_count":1`) {
				t.Errorf("stats payload = %q", s)
			}
		default:
			t.Errorf("unexpected message %q", s)
		}
	}
	if added != 1 || deleted != 1 {
		t.Errorf("added=%d deleted=%d", added, deleted)
	}
	if stats != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", stats)
	}
}

func TestClearedEvent(t *testing.T) {
	b := NewBroker(time.Millisecond, nil)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("cleared", "", "")
	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	if len(msgs) != 2 || !strings.Contains(msgs[0], "event: documents.cleared") {
		t.Errorf("messages = %q", msgs)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishDocumentEvent("added", "abc", "tax.pdf")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: document.added") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second, nil)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Client buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
}

func TestCloseStopsOperations(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: EventStatsUpdated})
	b.PublishDocumentEvent("added", "x", "y")
	b.Close()
}
