// Package submit delivers committed scans to the collector endpoint. One call,
// one delivery attempt: no retry, no queueing.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"scanhub/internal/domain"
)

// DefaultTimeout bounds one submission attempt end to end.
const DefaultTimeout = 7 * time.Second

// Client posts records as JSON with a wall-clock deadline.
type Client struct {
	endpoint string
	timeout  time.Duration
	httpc    *http.Client
	clock    func() time.Time
}

type Config struct {
	Endpoint string
	Timeout  time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("submit: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		httpc:    cfg.HTTPClient,
		clock:    time.Now,
	}, nil
}

// Submit serializes rec and posts it, assigning the timestamp first when the
// caller left it empty. The deadline starts at call time; expiry cancels the
// in-flight request. Cancellation and deadline expiry are reported as the
// same outcome since they share a root cause, and whichever of response or
// deadline lands first is the only outcome reported.
func (c *Client) Submit(ctx context.Context, rec domain.Record) domain.Outcome {
	if rec.Timestamp == "" {
		rec.Timestamp = c.clock().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return domain.Outcome{Kind: domain.OutcomeTransportError, Err: err.Error()}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{Kind: domain.OutcomeTransportError, Err: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.Outcome{Kind: domain.OutcomeTimedOut}
		}
		return domain.Outcome{Kind: domain.OutcomeTransportError, Err: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return domain.Outcome{Kind: domain.OutcomeDelivered, HTTPStatus: resp.StatusCode}
	}
	return domain.Outcome{Kind: domain.OutcomeRejected, HTTPStatus: resp.StatusCode}
}
