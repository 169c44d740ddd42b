package domain

import "context"

// CodeSource is the narrow capability a host bridge exposes to the session.
// CommitScan asks the bridge to capture whatever code is currently in frame
// and report it back through the session's commit callback.
type CodeSource interface {
	CommitScan(mode Mode) error
}

// Submitter delivers one committed record and reports how the attempt ended.
// Implementations make at most one delivery attempt per call.
type Submitter interface {
	Submit(ctx context.Context, rec Record) Outcome
}

// StatusSink receives user-visible status text from the session.
type StatusSink interface {
	Status(text string)
}

// StatusFunc adapts a function to the StatusSink interface.
type StatusFunc func(text string)

func (f StatusFunc) Status(text string) { f(text) }
