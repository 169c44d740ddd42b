package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"scanhub/internal/domain"
)

type recordingSink struct {
	mu       sync.Mutex
	initial  []domain.Record
	appended []domain.Record
	statuses []string
	onAppend chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{onAppend: make(chan struct{}, 16)}
}

func (s *recordingSink) Reset(records []domain.Record) {
	s.mu.Lock()
	s.initial = records
	s.mu.Unlock()
}

func (s *recordingSink) Append(rec domain.Record) {
	s.mu.Lock()
	s.appended = append(s.appended, rec)
	s.mu.Unlock()
	s.onAppend <- struct{}{}
}

func (s *recordingSink) Status(text string) {
	s.mu.Lock()
	s.statuses = append(s.statuses, text)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() ([]domain.Record, []domain.Record, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Record(nil), s.initial...),
		append([]domain.Record(nil), s.appended...),
		append([]string(nil), s.statuses...)
}

func waitAppend(t *testing.T, sink *recordingSink) {
	t.Helper()
	select {
	case <-sink.onAppend:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for append")
	}
}

func sseFrame(t *testing.T, rec domain.Record) string {
	t.Helper()
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return fmt.Sprintf("data: %s\n\n", b)
}

func TestFeedSnapshotThenStream(t *testing.T) {
	old := domain.Record{ID: "1", Mode: domain.ModeFinal, Code: "OLD", Timestamp: "2026-01-01T00:00:00Z"}
	fresh := domain.Record{ID: "2", Mode: domain.ModeFinal, Code: "NEW", Timestamp: "2026-01-01T00:01:00Z"}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/scans", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mode"); got != "FINAL" {
			t.Errorf("snapshot mode = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]domain.Record{old})
	})
	mux.HandleFunc("/api/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, ": connected\n\n")
		fmt.Fprint(w, sseFrame(t, fresh))
		flusher.Flush()
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sink := newRecordingSink()
	f, err := New(Config{BaseURL: srv.URL, Mode: domain.ModeFinal, Sink: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Run(ctx)
	}()

	waitAppend(t, sink)
	cancel()
	<-done

	initial, appended, statuses := sink.snapshot()
	if len(initial) != 1 || initial[0].Code != "OLD" {
		t.Fatalf("initial = %+v", initial)
	}
	if len(appended) != 1 || appended[0].Code != "NEW" {
		t.Fatalf("appended = %+v", appended)
	}

	var sawLoading, sawOnline bool
	for _, s := range statuses {
		sawLoading = sawLoading || s == StatusLoading
		sawOnline = sawOnline || s == StatusOnline
	}
	if !sawLoading || !sawOnline {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestFeedReconnectsWithoutResnapshot(t *testing.T) {
	var mu sync.Mutex
	snapshots := 0
	streams := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/scans", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		snapshots++
		mu.Unlock()
		_ = json.NewEncoder(w).Encode([]domain.Record{})
	})
	mux.HandleFunc("/api/stream", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		streams++
		n := streams
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, sseFrame(t, domain.Record{Mode: domain.ModeTest, Assembly: "A", Location: fmt.Sprintf("L%d", n)}))
		flusher.Flush()

		// First connection drops immediately to force a reconnect; later
		// ones stay open.
		if n > 1 {
			<-r.Context().Done()
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sink := newRecordingSink()
	f, err := New(Config{BaseURL: srv.URL, Mode: domain.ModeTest, Sink: sink, RetryDelay: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Run(ctx)
	}()

	waitAppend(t, sink)
	waitAppend(t, sink)
	cancel()
	<-done

	_, appended, statuses := sink.snapshot()
	if len(appended) < 2 {
		t.Fatalf("appended = %+v, want records from both connections", appended)
	}

	var sawReconnecting bool
	for _, s := range statuses {
		sawReconnecting = sawReconnecting || s == StatusReconnecting
	}
	if !sawReconnecting {
		t.Fatalf("statuses = %v, want %q surfaced", statuses, StatusReconnecting)
	}

	mu.Lock()
	defer mu.Unlock()
	if snapshots != 1 {
		t.Fatalf("snapshot fetched %d times, reconnect must not re-fetch", snapshots)
	}
	if streams < 2 {
		t.Fatalf("streams = %d, want a reconnect", streams)
	}
}

func TestFeedSnapshotFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := newRecordingSink()
	f, err := New(Config{BaseURL: srv.URL, Mode: domain.ModeFinal, Sink: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := f.Run(context.Background()); err == nil {
		t.Fatal("expected snapshot failure to end Run")
	}
}
