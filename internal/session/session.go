// Package session implements the scan-session state machine: it decides
// whether a scanned code is the first half of a checkpoint pair or a commit,
// and hands committed records to the submitter.
package session

import (
	"context"
	"strings"
	"sync"

	"scanhub/internal/domain"
)

const (
	stepFirst  = 1
	stepSecond = 2
)

// User-visible status text.
const (
	StatusNoCode        = "no code in frame"
	StatusAwaitLocation = "waiting: scan location"
	StatusSending       = "sending..."
	StatusBridgeCommit  = "committing via bridge..."
)

type Config struct {
	Mode      domain.Mode
	Submitter domain.Submitter

	// Source is the optional hardware bridge, asked to commit when no live
	// code is available.
	Source domain.CodeSource

	// Status receives user-visible status text. Optional.
	Status domain.StatusSink
}

// Session holds the current mode and, in TEST mode, the pending first scan.
// Methods never block on the network while holding state: the pair state is
// reset before the submission attempt, so a slow or failed send can never
// leave the session stuck mid-pair.
type Session struct {
	submitter domain.Submitter
	source    domain.CodeSource
	status    domain.StatusSink

	mu           sync.Mutex
	mode         domain.Mode
	step         int
	pendingFirst string
	liveCode     string
}

// Result reports what a scan event did. Committed is false for checkpoint
// scans and precondition failures; Outcome is only meaningful when Committed.
type Result struct {
	Committed bool
	Record    domain.Record
	Outcome   domain.Outcome
}

// State is a point-in-time snapshot of the session, for UIs and tests.
type State struct {
	Mode         domain.Mode
	Step         int
	PendingFirst string
	LiveCode     string
}

func New(cfg Config) *Session {
	return &Session{
		submitter: cfg.Submitter,
		source:    cfg.Source,
		status:    cfg.Status,
		mode:      domain.ParseMode(string(cfg.Mode)),
		step:      stepFirst,
	}
}

func (s *Session) emit(text string) {
	if s.status != nil {
		s.status.Status(text)
	}
}

// Mode returns the session's current operating mode.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the operating mode. Changing mode resets the pair state:
// a pending first scan is silently abandoned, never auto-submitted.
func (s *Session) SetMode(m domain.Mode) {
	m = domain.ParseMode(string(m))
	s.mu.Lock()
	if m != s.mode {
		s.mode = m
		s.step = stepFirst
		s.pendingFirst = ""
	}
	s.mu.Unlock()
}

// SetLiveCode records the code currently in frame without committing it.
func (s *Session) SetLiveCode(code string) {
	s.mu.Lock()
	s.liveCode = strings.TrimSpace(code)
	s.mu.Unlock()
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Mode:         s.mode,
		Step:         s.step,
		PendingFirst: s.pendingFirst,
		LiveCode:     s.liveCode,
	}
}

// HandleCode processes one scanned code, either from the user's scan action
// or from the bridge's commit callback. declared overrides the session mode
// for this event when non-empty.
//
// In TEST mode the first code becomes the pending assembly and nothing is
// submitted; the second code completes the pair. In FINAL mode every code is
// a commit, and the session itself switches to FINAL.
func (s *Session) HandleCode(ctx context.Context, code string, declared domain.Mode) Result {
	code = strings.TrimSpace(code)
	if code == "" {
		s.emit(StatusNoCode)
		return Result{}
	}

	s.mu.Lock()
	mode := s.mode
	if declared != "" {
		mode = domain.ParseMode(string(declared))
	}

	var rec domain.Record
	if mode == domain.ModeTest {
		if s.step == stepFirst {
			s.pendingFirst = code
			s.step = stepSecond
			s.mu.Unlock()
			s.emit(StatusAwaitLocation)
			return Result{}
		}
		rec = domain.Record{Mode: domain.ModeTest, Assembly: s.pendingFirst, Location: code}
		s.step = stepFirst
		s.pendingFirst = ""
	} else {
		if s.mode != domain.ModeFinal {
			s.mode = domain.ModeFinal
			s.step = stepFirst
			s.pendingFirst = ""
		}
		rec = domain.Record{Mode: domain.ModeFinal, Code: code}
	}
	s.mu.Unlock()

	return s.submit(ctx, rec)
}

// Commit is the user's scan action: commit the live code if there is one,
// otherwise fall back to asking the bridge. A bridge failure is surfaced as
// status text and leaves the session fully usable.
func (s *Session) Commit(ctx context.Context) Result {
	s.mu.Lock()
	mode := s.mode
	live := s.liveCode
	s.mu.Unlock()

	if live != "" {
		return s.HandleCode(ctx, live, mode)
	}

	if s.source != nil {
		s.emit(StatusBridgeCommit)
		if err := s.source.CommitScan(mode); err != nil {
			s.emit("bridge commit failed: " + err.Error())
		}
		return Result{}
	}

	s.emit(StatusNoCode)
	return Result{}
}

func (s *Session) submit(ctx context.Context, rec domain.Record) Result {
	s.emit(StatusSending)
	outcome := s.submitter.Submit(ctx, rec)
	s.emit(outcome.String())
	return Result{Committed: true, Record: rec, Outcome: outcome}
}
