package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

var ErrInvalidSession = errors.New("invalid session id")

// Manager keeps the live sessions of one variant. Each session gets fresh
// state from the variant the first time it is opened.
type Manager struct {
	variant  contractx.Variant
	sessions *xsync.MapOf[string, contractx.Session]
	onOpen   func(contractx.Session)
}

type ManagerOption func(*Manager)

// WithOnOpen runs hook once per newly created session.
func WithOnOpen(hook func(contractx.Session)) ManagerOption {
	return func(m *Manager) { m.onOpen = hook }
}

func NewManager(variant contractx.Variant, opts ...ManagerOption) (*Manager, error) {
	if variant == nil {
		return nil, errors.New("variant is required")
	}
	m := &Manager{
		variant:  variant,
		sessions: xsync.NewMapOf[string, contractx.Session](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Variant() contractx.Variant { return m.variant }

// Open returns the session for id, creating it on first use.
func (m *Manager) Open(sessionID string) (contractx.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	created := false
	s, _ := m.sessions.LoadOrCompute(sessionID, func() contractx.Session {
		created = true
		return m.variant.NewSession(sessionID)
	})
	if created {
		log.Info().
			Str("session_id", sessionID).
			Str("agent", string(m.variant.Name())).
			Msg("session opened")
		if m.onOpen != nil {
			m.onOpen(s)
		}
	}
	return s, nil
}

func (m *Manager) Get(sessionID string) (contractx.Session, bool) {
	return m.sessions.Load(strings.TrimSpace(sessionID))
}

// Invoke routes a tool call to an open session.
func (m *Manager) Invoke(ctx context.Context, sessionID string, req contractx.ToolRequest) (contractx.ToolResult, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return contractx.ToolResult{}, fmt.Errorf("%w: session %q", contractx.ErrNotFound, sessionID)
	}
	return s.Invoke(ctx, req), nil
}

// Close drops the session and its state. It reports whether it was open.
func (m *Manager) Close(sessionID string) bool {
	_, ok := m.sessions.LoadAndDelete(strings.TrimSpace(sessionID))
	if ok {
		log.Info().Str("session_id", sessionID).Msg("session closed")
	}
	return ok
}

func (m *Manager) Len() int {
	return m.sessions.Size()
}
