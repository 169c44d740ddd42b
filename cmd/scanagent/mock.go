package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"scanhub/internal/domain"
	"scanhub/internal/session"
)

// mockBridge stands in for the hardware scanner: asked to commit, it fabricates
// a code after a short delay and reports it back through the session's commit
// callback, the way a real bridge would.
type mockBridge struct {
	ctx  context.Context
	sess *session.Session
}

func (m *mockBridge) CommitScan(mode domain.Mode) error {
	go func() {
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(600 * time.Millisecond):
		}
		m.sess.HandleCode(m.ctx, mockCode(), mode)
	}()
	return nil
}

func mockCode() string {
	return fmt.Sprintf("MOCK-%06d", 100000+rand.Intn(900000))
}
