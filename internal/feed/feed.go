// Package feed is the read side of the collector: it loads the current
// history once, then follows the live stream, handing records to a sink.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scanhub/internal/domain"
)

// Transient status text surfaced while following the stream.
const (
	StatusLoading      = "loading..."
	StatusOnline       = "online"
	StatusReconnecting = "reconnecting..."
)

const defaultRetryDelay = 2 * time.Second

// Sink receives feed updates. Reset delivers the initial snapshot oldest
// first; Append delivers each newly broadcast record as it arrives, so the
// most recent record is always the latest Append.
type Sink interface {
	Reset(records []domain.Record)
	Append(rec domain.Record)
	Status(text string)
}

type Config struct {
	BaseURL string
	Mode    domain.Mode
	Sink    Sink

	HTTPClient *http.Client
	RetryDelay time.Duration
}

// Feed follows one mode's records. The snapshot is fetched before the stream
// is opened, so a record committed between the two calls can be missed or
// duplicated; that narrow gap is accepted. Reconnects never re-fetch the
// snapshot, so only records after the reconnect are delivered.
type Feed struct {
	base  string
	mode  domain.Mode
	sink  Sink
	httpc *http.Client
	retry time.Duration
}

func New(cfg Config) (*Feed, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("feed: base url required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("feed: sink required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Feed{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		mode:  domain.ParseMode(string(cfg.Mode)),
		sink:  cfg.Sink,
		httpc: cfg.HTTPClient,
		retry: cfg.RetryDelay,
	}, nil
}

// Run loads the snapshot, then follows the stream until ctx is done,
// reconnecting after transient failures.
func (f *Feed) Run(ctx context.Context) error {
	f.sink.Status(StatusLoading)
	records, err := f.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("feed: snapshot: %w", err)
	}
	f.sink.Reset(records)

	for {
		if err := f.stream(ctx); ctx.Err() != nil {
			return ctx.Err()
		} else if err != nil {
			f.sink.Status(StatusReconnecting)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.retry):
		}
	}
}

func (f *Feed) endpoint(path string) string {
	return f.base + path + "?mode=" + url.QueryEscape(string(f.mode))
}

func (f *Feed) snapshot(ctx context.Context) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint("/api/scans"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var records []domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// stream opens the SSE endpoint and appends records until the connection
// drops or ctx is done.
func (f *Feed) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint("/api/stream"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	f.sink.Status(StatusOnline)

	var data []string
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := sc.Text()

		// Blank line terminates a frame; anything buffered is one event.
		if line == "" {
			if len(data) > 0 {
				f.dispatch(strings.Join(data, "\n"))
				data = data[:0]
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // comment/heartbeat
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(v, " "))
		}
		// Other SSE fields (retry, event, id) are not used.
	}

	if err := sc.Err(); err != nil {
		return err
	}
	return errors.New("stream closed")
}

func (f *Feed) dispatch(payload string) {
	var rec domain.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return
	}
	f.sink.Append(rec)
}
