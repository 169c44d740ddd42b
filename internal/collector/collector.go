// Package collector holds the committed-scan history and fans new records out
// to live observers. Each mode owns an independent bounded history and
// subscriber set.
package collector

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"scanhub/internal/domain"
)

// DefaultMaxHistory caps the per-mode history length.
const DefaultMaxHistory = 2000

// subscriber channel buffer; a subscriber that falls this far behind is
// dropped instead of blocking the accept path.
const subscriberBuffer = 64

// ErrClosed is returned by Accept after Close.
var ErrClosed = errors.New("collector: closed")

// RejectError explains why a payload was refused. Nothing is appended or
// broadcast for a rejected payload.
type RejectError struct {
	Reason  string
	Details map[string]string
}

func (e *RejectError) Error() string { return "collector: " + e.Reason }

type table struct {
	mu      sync.Mutex
	history []domain.Record
	subs    map[chan domain.Record]struct{}
}

// Collector accepts, stores and broadcasts committed scans.
type Collector struct {
	max    int
	clock  func() time.Time
	tables map[domain.Mode]*table

	mu     sync.Mutex
	closed bool
}

// Options tune a Collector. Zero values pick defaults.
type Options struct {
	MaxHistory int
	Clock      func() time.Time
}

func New(opts Options) *Collector {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Collector{
		max:   opts.MaxHistory,
		clock: opts.Clock,
		tables: map[domain.Mode]*table{
			domain.ModeTest:  {subs: make(map[chan domain.Record]struct{})},
			domain.ModeFinal: {subs: make(map[chan domain.Record]struct{})},
		},
	}
}

func (c *Collector) table(mode domain.Mode) *table {
	return c.tables[domain.ParseMode(string(mode))]
}

// Accept parses and validates a raw submission payload. On success the record
// gets an id and, if missing, a timestamp, is appended to its mode's history
// (trimming the oldest entries beyond the cap) and broadcast to subscribers.
func (c *Collector) Accept(raw []byte) (domain.Record, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return domain.Record{}, ErrClosed
	}

	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Record{}, &RejectError{Reason: "invalid format"}
	}

	rec.Normalize()
	if details := rec.Validate(); details != nil {
		return domain.Record{}, &RejectError{Reason: "missing fields", Details: details}
	}

	rec.ID = domain.NewRecordID()
	if rec.Timestamp == "" {
		rec.Timestamp = c.clock().UTC().Format(time.RFC3339)
	}

	t := c.table(rec.Mode)
	t.mu.Lock()
	t.history = append(t.history, rec)
	if n := len(t.history) - c.max; n > 0 {
		t.history = append(t.history[:0:0], t.history[n:]...)
	}
	broken := t.broadcastLocked(rec)
	t.mu.Unlock()

	for _, ch := range broken {
		close(ch)
	}
	return rec, nil
}

// broadcastLocked sends to every subscriber without blocking. Subscribers
// whose buffer is full are removed from the set; their channels are returned
// so the caller can close them outside further bookkeeping.
func (t *table) broadcastLocked(rec domain.Record) []chan domain.Record {
	var broken []chan domain.Record
	for ch := range t.subs {
		select {
		case ch <- rec:
		default:
			delete(t.subs, ch)
			broken = append(broken, ch)
		}
	}
	return broken
}

// Subscribe registers a new observer channel for a mode. History is not
// replayed; callers wanting existing records read Snapshot first. The channel
// is closed when the subscriber is dropped or the collector shuts down.
func (c *Collector) Subscribe(mode domain.Mode) chan domain.Record {
	ch := make(chan domain.Record, subscriberBuffer)
	t := c.table(mode)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel previously returned by Subscribe.
// Safe to call for a channel the collector already dropped.
func (c *Collector) Unsubscribe(mode domain.Mode, ch chan domain.Record) {
	t := c.table(mode)
	t.mu.Lock()
	_, ok := t.subs[ch]
	delete(t.subs, ch)
	t.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Snapshot returns a copy of the mode's history, oldest first.
func (c *Collector) Snapshot(mode domain.Mode) []domain.Record {
	t := c.table(mode)
	t.mu.Lock()
	out := make([]domain.Record, len(t.history))
	copy(out, t.history)
	t.mu.Unlock()
	return out
}

// Close drops all subscribers and makes further Accepts fail.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	for _, t := range c.tables {
		t.mu.Lock()
		for ch := range t.subs {
			delete(t.subs, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
}
